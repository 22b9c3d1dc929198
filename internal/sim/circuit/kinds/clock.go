package kinds

import (
	"strconv"

	"redchips.ai/internal/sim/circuit"
)

// Clock toggles output 0 every period ticks. The period is the optional
// first sign argument, in ticks (default 10). Re-arming stops once the
// circuit is destroyed; while disabled the phase is frozen.
type Clock struct {
	period  int
	elapsed int
	phase   bool
	stopped bool
}

func (*Clock) Stateless() bool { return false }

func (k *Clock) Init(c *circuit.Circuit, args []string) error {
	k.period = 10
	if len(args) > 0 {
		p, err := strconv.Atoi(args[0])
		if err != nil || p <= 0 {
			return circuit.Initf("clock", "bad period %q", args[0])
		}
		k.period = p
	}
	if len(c.OutputBits()) < 1 {
		return circuit.Initf("clock", "expects at least 1 output")
	}
	k.arm(c)
	return nil
}

func (*Clock) InputChange(c *circuit.Circuit, idx int, state bool) {}

func (k *Clock) Shutdown(c *circuit.Circuit) { k.stopped = true }

func (k *Clock) arm(c *circuit.Circuit) {
	c.Substrate().OnNextTick(func() {
		if k.stopped || c.State() == circuit.Destroyed {
			return
		}
		if !c.IsDisabled() {
			k.elapsed++
			if k.elapsed >= k.period {
				k.elapsed = 0
				k.phase = !k.phase
				c.SendOutput(0, k.phase)
			}
		}
		k.arm(c)
	})
}
