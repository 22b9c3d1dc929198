package kinds

import "redchips.ai/internal/sim/circuit"

// And outputs the conjunction of all inputs on output 0.
type And struct{}

func (*And) Stateless() bool { return true }

func (*And) Init(c *circuit.Circuit, args []string) error {
	return requirePins(c, "and", 1, 1)
}

func (*And) InputChange(c *circuit.Circuit, idx int, state bool) {
	bits := c.InputBits()
	all := true
	for _, b := range bits {
		if !b {
			all = false
			break
		}
	}
	c.SendOutput(0, all)
}

// Or outputs the disjunction of all inputs on output 0.
type Or struct{}

func (*Or) Stateless() bool { return true }

func (*Or) Init(c *circuit.Circuit, args []string) error {
	return requirePins(c, "or", 1, 1)
}

func (*Or) InputChange(c *circuit.Circuit, idx int, state bool) {
	any := false
	for _, b := range c.InputBits() {
		if b {
			any = true
			break
		}
	}
	c.SendOutput(0, any)
}

// Xor outputs input parity on output 0.
type Xor struct{}

func (*Xor) Stateless() bool { return true }

func (*Xor) Init(c *circuit.Circuit, args []string) error {
	return requirePins(c, "xor", 1, 1)
}

func (*Xor) InputChange(c *circuit.Circuit, idx int, state bool) {
	parity := false
	for _, b := range c.InputBits() {
		if b {
			parity = !parity
		}
	}
	c.SendOutput(0, parity)
}

// Not inverts each input onto the output with the same index.
type Not struct{}

func (*Not) Stateless() bool { return true }

func (*Not) Init(c *circuit.Circuit, args []string) error {
	in := len(c.InputBits())
	out := len(c.OutputBits())
	if in == 0 || in != out {
		return circuit.Initf("not", "expects equal input and output counts, got %d/%d", in, out)
	}
	return nil
}

func (*Not) InputChange(c *circuit.Circuit, idx int, state bool) {
	c.SendOutput(idx, !state)
}

func requirePins(c *circuit.Circuit, kind string, minIn, minOut int) error {
	if n := len(c.InputBits()); n < minIn {
		return circuit.Initf(kind, "expects at least %d input(s), got %d", minIn, n)
	}
	if n := len(c.OutputBits()); n < minOut {
		return circuit.Initf(kind, "expects at least %d output(s), got %d", minOut, n)
	}
	return nil
}
