package circuit

import "redchips.ai/internal/sim/world"

// Record is the persisted form of one circuit: everything needed to rebuild
// the instance on startup without re-scanning the world.
type Record struct {
	ID         int
	Kind       string
	Name       string
	Activation world.Vec3i
	Direction  world.Direction
	Args       []string

	Inputs     []InputPin
	Outputs    []OutputPin
	Interfaces []world.Vec3i
	Structure  []world.Vec3i

	Disabled bool
	Internal map[string]string
}

// Store persists the whole circuit population. The file is rewritten in
// full on every structural change; the last successful write wins.
type Store interface {
	SaveAll(recs []Record) error
	LoadAll() ([]Record, error)
}

func (c *Circuit) record() Record {
	rec := Record{
		ID:         c.ID,
		Kind:       c.Kind,
		Name:       c.Name,
		Activation: c.Activation,
		Direction:  c.Direction,
		Args:       c.Args,
		Inputs:     append([]InputPin(nil), c.Inputs...),
		Outputs:    append([]OutputPin(nil), c.Outputs...),
		Interfaces: append([]world.Vec3i(nil), c.Interfaces...),
		Structure:  append([]world.Vec3i(nil), c.Structure...),
		Disabled:   c.disabled,
	}
	if sh, ok := c.logic.(StateHolder); ok {
		rec.Internal = sh.InternalState(c)
	}
	return rec
}

func (r Record) topology() *Topology {
	return &Topology{
		Activation: r.Activation,
		Direction:  r.Direction,
		Inputs:     append([]InputPin(nil), r.Inputs...),
		Outputs:    append([]OutputPin(nil), r.Outputs...),
		Interfaces: append([]world.Vec3i(nil), r.Interfaces...),
		Structure:  append([]world.Vec3i(nil), r.Structure...),
	}
}
