package circuit

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"redchips.ai/internal/sim/world"
)

// State is the lifecycle state of a circuit instance.
type State int

const (
	Uninitialized State = iota
	Active
	Disabled
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Disabled:
		return "disabled"
	default:
		return "destroyed"
	}
}

// Logic is the behavior of one chip kind. Implementations receive the
// circuit they are mounted on and drive outputs through its Send methods.
type Logic interface {
	// Stateless reports whether outputs are a pure function of current
	// inputs. Stateless kinds get a synthetic InputChange per pin right
	// after a successful Init so they can compute their initial outputs.
	Stateless() bool

	// Init validates args and prepares the kind. Returning an error
	// discards the instance. Init may call c.Disable to come up disabled.
	Init(c *Circuit, args []string) error

	// InputChange is invoked once per genuine input transition.
	InputChange(c *Circuit, idx int, state bool)
}

// Optional Logic extensions.
type Shutdowner interface{ Shutdown(c *Circuit) }
type DestroyedHook interface{ Destroyed(c *Circuit) }

// StateHolder kinds carry internal state across restarts.
type StateHolder interface {
	InternalState(c *Circuit) map[string]string
	RestoreState(c *Circuit, st map[string]string)
}

// Circuit is one live chip instance bound to physical locations.
type Circuit struct {
	ID   int
	Name string
	Kind string
	Args []string

	Topology

	logic Logic
	reg   *Registry
	sub   Substrate
	log   *logrus.Entry

	inputBits  Bits
	outputBits Bits

	state    State
	disabled bool

	debuggers   []Observer
	iodebuggers []Observer
}

// New binds a logic kind to a detected topology. The circuit is inert until
// the registry initializes and registers it.
func New(kind string, logic Logic, topo *Topology, args []string) *Circuit {
	return &Circuit{
		ID:       -1,
		Kind:     kind,
		Args:     args,
		Topology: *topo,
		logic:    logic,
		state:    Uninitialized,
	}
}

func (c *Circuit) Logic() Logic         { return c.logic }
func (c *Circuit) State() State         { return c.state }
func (c *Circuit) IsDisabled() bool     { return c.disabled }
func (c *Circuit) Registry() *Registry  { return c.reg }
func (c *Circuit) Substrate() Substrate { return c.sub }

// InputBits returns a snapshot copy; writers go only through StateChange.
func (c *Circuit) InputBits() Bits { return c.inputBits.Clone() }

// OutputBits returns a snapshot copy; writers go only through SendOutput.
func (c *Circuit) OutputBits() Bits { return c.outputBits.Clone() }

// ChipString names the instance in traces and logs.
func (c *Circuit) ChipString() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%d)", c.Kind, c.ID)
}

// InitCircuit binds the registry context, pulls current physical input
// values (without firing change notifications) and runs the kind's Init.
// Stateless kinds then get one synthetic InputChange per pin.
func (c *Circuit) InitCircuit(reg *Registry, sender Sender) error {
	c.reg = reg
	c.sub = reg.world
	c.log = reg.log.WithField("chip", c.ChipString())

	c.inputBits = NewBits(len(c.Inputs))
	c.outputBits = NewBits(len(c.Outputs))

	c.updateInputBits()

	if err := c.logic.Init(c, c.Args); err != nil {
		if _, ok := err.(*InitError); ok {
			return err
		}
		return &InitError{Kind: c.Kind, Reason: err.Error()}
	}

	if c.disabled {
		c.state = Disabled
		c.updateSignLater()
	} else {
		c.state = Active
		c.updateSignLater()
		if c.logic.Stateless() {
			for i := range c.Inputs {
				c.logic.InputChange(c, i, c.inputBits.Get(i))
			}
		}
	}
	return nil
}

// StateChange delivers a new value for one input pin. Repeated identical
// values are debounced; only a genuine transition updates the bit and
// reaches the logic kind. Ignored entirely while disabled or destroyed.
func (c *Circuit) StateChange(idx int, newVal bool) {
	if c.state == Destroyed || c.disabled {
		return
	}
	if idx < 0 || idx >= len(c.Inputs) {
		return
	}
	if c.inputBits.Get(idx) == newVal {
		return
	}
	c.inputBits.Set(idx, newVal)

	if c.HasIODebuggers() {
		v, _ := c.inputBits.Uint(0, min(len(c.Inputs), 64))
		c.IODebug(fmt.Sprintf("input %d is %s: %s (0x%x)", idx, onOff(newVal), c.inputBits.BinaryString(), v))
	}

	c.logic.InputChange(c, idx, newVal)
}

// SendOutput writes one output bit and re-asserts the physical level even
// when the bit is unchanged. The output path is deliberately not debounced;
// re-asserting keeps the substrate honest after exogenous edits.
func (c *Circuit) SendOutput(idx int, state bool) {
	if idx < 0 || idx >= len(c.Outputs) {
		return
	}
	c.outputBits.Set(idx, state)

	if c.HasIODebuggers() {
		v, _ := c.outputBits.Uint(0, min(len(c.Outputs), 64))
		c.IODebug(fmt.Sprintf("output %d is %s: %s (0x%x)", idx, onOff(state), c.outputBits.BinaryString(), v))
	}

	c.Outputs[idx].Drive(c.sub, state)
}

// SendInt writes an integer across width outputs, the output at start being
// the least-significant bit.
func (c *Circuit) SendInt(start, width int, value uint64) error {
	bits, err := UintToBits(value, width)
	if err != nil {
		return err
	}
	c.SendBitSet(start, width, bits)
	return nil
}

func (c *Circuit) SendBitSet(start, width int, bits Bits) {
	for i := 0; i < width; i++ {
		c.SendOutput(start+i, bits.Get(i))
	}
}

// Disable freezes input processing. Safe to call from Logic.Init to come up
// disabled.
func (c *Circuit) Disable() {
	c.disabled = true
	if c.state == Active {
		c.state = Disabled
	}
	c.updateSignLater()
	if c.HasDebuggers() {
		c.Debug("chip is disabled")
	}
}

func (c *Circuit) Enable() {
	c.disabled = false
	if c.state == Disabled {
		c.state = Active
	}
	c.updateSignLater()
	if c.HasDebuggers() {
		c.Debug("chip is enabled")
	}
}

// DestroyCircuit runs the shutdown hook, forces every output low and runs
// the destroyed hook. The caller removes the instance from the registry.
func (c *Circuit) DestroyCircuit() {
	if c.state == Destroyed {
		return
	}
	if sh, ok := c.logic.(Shutdowner); ok {
		sh.Shutdown(c)
	}
	for i := range c.Outputs {
		c.outputBits.Set(i, false)
		c.Outputs[i].Drive(c.sub, false)
	}
	if d, ok := c.logic.(DestroyedHook); ok {
		d.Destroyed(c)
	}
	c.state = Destroyed
}

// CheckIntegrity reports whether the recorded structure still exists
// physically: the activation sign must still be sign material and no other
// structure block may be air. Read-only; the caller decides consequences.
func (c *Circuit) CheckIntegrity() bool {
	m := c.reg.materials
	if c.sub.BlockAt(c.Activation) != m.Sign {
		c.log.Warnf("sign is missing at %s", c.Activation)
		return false
	}
	for _, p := range c.Structure {
		if p == c.Activation {
			continue
		}
		if c.sub.BlockAt(p) == world.Air {
			c.log.Warnf("chip block is missing at %s", p)
			return false
		}
	}
	return true
}

// FixIOBlocks reconciles pin and interface markers back to their canonical
// materials. Unloaded chunks are force-loaded only for the duration of the
// pass and always released, including on early exit. Returns the number of
// blocks changed; a repeat call with no exogenous change returns 0.
func (c *Circuit) FixIOBlocks() int {
	var held []world.ChunkKey
	defer func() {
		for _, k := range held {
			c.sub.ReleaseChunk(k)
		}
	}()
	for _, k := range c.Topology.Chunks() {
		if !c.sub.ChunkLoaded(k) {
			c.sub.ForceChunk(k)
			held = append(held, k)
		}
	}

	m := c.reg.materials
	fixed := 0
	for i := range c.Inputs {
		fixed += c.fixBlock(c.Inputs[i].Marker, m.Input)
	}
	for i := range c.Outputs {
		fixed += c.fixBlock(c.Outputs[i].Marker, m.Output)
	}
	for _, p := range c.Interfaces {
		fixed += c.fixBlock(p, m.Interface)
	}
	return fixed
}

func (c *Circuit) fixBlock(p world.Vec3i, want uint16) int {
	if c.sub.BlockAt(p) == want {
		return 0
	}
	c.sub.SetBlock(p, want)
	return 1
}

// ChunkLoaded re-reads all inputs and re-asserts all outputs after one of
// the circuit's chunks becomes loaded again.
func (c *Circuit) ChunkLoaded() {
	c.updateInputBits()
	for i := range c.Outputs {
		c.Outputs[i].Drive(c.sub, c.outputBits.Get(i))
	}
}

func (c *Circuit) updateInputBits() {
	for i := range c.Inputs {
		c.inputBits.Set(i, c.Inputs[i].Read(c.sub))
	}
}

// updateSignLater refreshes the activation sign text one tick later; the
// host convention forbids visual updates mid-event.
func (c *Circuit) updateSignLater() {
	if c.sub == nil {
		return
	}
	c.sub.OnNextTick(func() {
		if c.sub.BlockAt(c.Activation) != c.reg.materials.Sign {
			return
		}
		text := c.Kind
		if c.disabled {
			text = c.Kind + " [disabled]"
		}
		if len(c.Args) > 0 {
			text += "\n" + joinArgs(c.Args)
		}
		if c.sub.SignText(c.Activation) != text {
			c.sub.SetSignText(c.Activation, text)
		}
	})
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
