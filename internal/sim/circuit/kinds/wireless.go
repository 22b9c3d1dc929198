package kinds

import "redchips.ai/internal/sim/circuit"

// Transmitter broadcasts its input bits on a named wireless channel every
// time any input changes. The channel name is the required first argument.
type Transmitter struct {
	channel string
}

func (*Transmitter) Stateless() bool { return true }

func (k *Transmitter) Init(c *circuit.Circuit, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return circuit.Initf("transmitter", "expects a channel name argument")
	}
	if len(c.InputBits()) < 1 {
		return circuit.Initf("transmitter", "expects at least 1 input")
	}
	k.channel = args[0]
	return nil
}

func (k *Transmitter) InputChange(c *circuit.Circuit, idx int, state bool) {
	c.Registry().Wireless().Broadcast(k.channel, c.InputBits())
}

// Receiver mirrors broadcasts from a named wireless channel onto its
// outputs. The channel name is the required first argument.
type Receiver struct {
	channel string
	c       *circuit.Circuit
}

func (*Receiver) Stateless() bool { return false }

func (k *Receiver) Init(c *circuit.Circuit, args []string) error {
	if len(args) < 1 || args[0] == "" {
		return circuit.Initf("receiver", "expects a channel name argument")
	}
	if len(c.OutputBits()) < 1 {
		return circuit.Initf("receiver", "expects at least 1 output")
	}
	k.channel = args[0]
	k.c = c
	c.Registry().Wireless().Subscribe(k.channel, k)
	return nil
}

func (*Receiver) InputChange(c *circuit.Circuit, idx int, state bool) {}

func (k *Receiver) Receive(bits circuit.Bits) {
	if k.c.State() == circuit.Destroyed || k.c.IsDisabled() {
		return
	}
	k.c.SendBitSet(0, len(k.c.OutputBits()), bits)
}

func (k *Receiver) Shutdown(c *circuit.Circuit) {
	c.Registry().Wireless().Unsubscribe(k.channel, k)
}
