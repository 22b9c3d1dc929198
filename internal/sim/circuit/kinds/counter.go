package kinds

import (
	"strconv"

	"redchips.ai/internal/sim/circuit"
)

// Counter counts rising edges on input 0 and presents the count across all
// outputs as an unsigned integer, output 0 carrying the least-significant
// bit. The count wraps at the output width and survives restarts through
// internal state.
type Counter struct {
	count uint64
	max   uint64
}

func (*Counter) Stateless() bool { return false }

func (k *Counter) Init(c *circuit.Circuit, args []string) error {
	in := len(c.InputBits())
	out := len(c.OutputBits())
	if in < 1 {
		return circuit.Initf("counter", "expects at least 1 input")
	}
	if out < 1 || out > 64 {
		return circuit.Initf("counter", "expects 1..64 outputs, got %d", out)
	}
	k.max = uint64(1) << uint(out)
	if len(args) > 0 {
		m, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || m == 0 || m > k.max {
			return circuit.Initf("counter", "bad max %q", args[0])
		}
		k.max = m
	}
	_ = c.SendInt(0, out, k.count)
	return nil
}

func (k *Counter) InputChange(c *circuit.Circuit, idx int, state bool) {
	if idx != 0 || !state {
		return
	}
	k.count = (k.count + 1) % k.max
	_ = c.SendInt(0, len(c.OutputBits()), k.count)
}

func (k *Counter) InternalState(c *circuit.Circuit) map[string]string {
	return map[string]string{"count": strconv.FormatUint(k.count, 10)}
}

func (k *Counter) RestoreState(c *circuit.Circuit, st map[string]string) {
	v, err := strconv.ParseUint(st["count"], 10, 64)
	if err != nil {
		return
	}
	k.count = v % k.max
	_ = c.SendInt(0, len(c.OutputBits()), k.count)
}
