package circuit

import "redchips.ai/internal/sim/world"

// InputPin senses the block beyond its physical marker.
type InputPin struct {
	Marker world.Vec3i `json:"marker"`
	Source world.Vec3i `json:"source"`

	value bool
}

func (p *InputPin) Read(s Substrate) bool {
	p.value = s.PowerLevel(p.Source) > 0
	return p.value
}

func (p *InputPin) Value() bool { return p.value }

// OutputPin drives the wire block beyond its physical marker. Driving always
// re-asserts the physical level, even when unchanged.
type OutputPin struct {
	Marker world.Vec3i `json:"marker"`
	Jack   world.Vec3i `json:"jack"`

	state bool
}

func (p *OutputPin) Drive(s Substrate, on bool) {
	p.state = on
	level := 0
	if on {
		level = 15
	}
	s.SetPower(p.Jack, level)
}

func (p *OutputPin) State() bool { return p.state }
