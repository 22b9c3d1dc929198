package circuit

import "redchips.ai/internal/sim/world"

// Topology is a validated physical chip layout: the straight body run with
// its ordered pins, as discovered from an activation sign.
type Topology struct {
	Activation world.Vec3i
	Direction  world.Direction

	Inputs     []InputPin
	Outputs    []OutputPin
	Interfaces []world.Vec3i

	// Structure holds every location whose destruction kills the circuit:
	// the activation sign, body blocks, pin markers and output jacks.
	Structure []world.Vec3i
}

func (t *Topology) Chunks() []world.ChunkKey {
	seen := map[world.ChunkKey]bool{}
	var out []world.ChunkKey
	add := func(p world.Vec3i) {
		k := world.ChunkOf(p)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, p := range t.Structure {
		add(p)
	}
	for i := range t.Inputs {
		add(t.Inputs[i].Source)
	}
	return out
}

// Scan walks the chip body one block at a time along dir, starting at the
// block the activation sign faces. At every body block the two lateral
// neighbors are inspected for pin markers: an input marker senses the block
// beyond it, an output marker drives the block beyond it (which must be
// wire and becomes part of the structure). The first non-body block along
// dir terminates the walk.
//
// Scanning the same layout from the opposite valid direction yields the
// same pin counts and classifications; only the left/right sense differs.
func Scan(s Substrate, m Materials, sign world.Vec3i, dir world.Direction) (*Topology, error) {
	if s.BlockAt(sign) != m.Sign {
		return nil, ErrNotActivation
	}

	t := &Topology{
		Activation: sign,
		Direction:  dir,
		Structure:  []world.Vec3i{sign},
	}

	cur := sign.Add(dir.Vec())
	if s.BlockAt(cur) != m.Body {
		return nil, ErrNoBodyBlocks
	}

	for s.BlockAt(cur) == m.Body {
		t.Structure = append(t.Structure, cur)

		for _, lat := range []world.Vec3i{dir.Left(), dir.Right()} {
			side := cur.Add(lat)
			switch s.BlockAt(side) {
			case m.Input:
				t.Structure = append(t.Structure, side)
				t.Inputs = append(t.Inputs, InputPin{Marker: side, Source: side.Add(lat)})
			case m.Output:
				jack := side.Add(lat)
				t.Structure = append(t.Structure, side, jack)
				t.Outputs = append(t.Outputs, OutputPin{Marker: side, Jack: jack})
			case m.Interface:
				t.Structure = append(t.Structure, side)
				t.Interfaces = append(t.Interfaces, side)
			}
		}

		cur = cur.Add(dir.Vec())
	}

	for i := range t.Outputs {
		if s.BlockAt(t.Outputs[i].Jack) != m.Wire {
			return nil, ErrOutputNotWired
		}
	}
	if len(t.Inputs) == 0 && len(t.Outputs) == 0 {
		return nil, ErrNoPins
	}
	return t, nil
}
