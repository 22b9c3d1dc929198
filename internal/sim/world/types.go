package world

import "fmt"

type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (v Vec3i) Add(o Vec3i) Vec3i {
	return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3i) String() string {
	return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z)
}

func Manhattan(a, b Vec3i) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction is one of the four cardinal walking directions on the XZ plane.
type Direction int

const (
	East Direction = iota // +X
	West                  // -X
	South                 // +Z
	North                 // -Z
)

var Cardinal = []Direction{East, West, South, North}

func (d Direction) Vec() Vec3i {
	switch d {
	case East:
		return Vec3i{X: 1}
	case West:
		return Vec3i{X: -1}
	case South:
		return Vec3i{Z: 1}
	default:
		return Vec3i{Z: -1}
	}
}

// Left and Right are the lateral neighbors relative to the walking direction.
func (d Direction) Left() Vec3i {
	v := d.Vec()
	return Vec3i{X: v.Z, Z: -v.X}
}

func (d Direction) Right() Vec3i {
	v := d.Vec()
	return Vec3i{X: -v.Z, Z: v.X}
}

func (d Direction) Opposite() Direction {
	switch d {
	case East:
		return West
	case West:
		return East
	case South:
		return North
	default:
		return South
	}
}

func (d Direction) String() string {
	switch d {
	case East:
		return "east"
	case West:
		return "west"
	case South:
		return "south"
	default:
		return "north"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "east":
		return East, nil
	case "west":
		return West, nil
	case "south":
		return South, nil
	case "north":
		return North, nil
	}
	return East, fmt.Errorf("unknown direction %q", s)
}

type ChunkKey struct {
	CX int `json:"cx"`
	CZ int `json:"cz"`
}

func ChunkOf(p Vec3i) ChunkKey {
	return ChunkKey{CX: FloorDiv(p.X, 16), CZ: FloorDiv(p.Z, 16)}
}

func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
