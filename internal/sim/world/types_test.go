package world

import "testing"

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{0, 16, 0},
		{15, 16, 0},
		{16, 16, 1},
		{-1, 16, -1},
		{-16, 16, -1},
		{-17, 16, -2},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.want {
			t.Errorf("FloorDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestChunkOf(t *testing.T) {
	if k := ChunkOf(Vec3i{X: 0, Z: 0}); k != (ChunkKey{0, 0}) {
		t.Errorf("got %+v", k)
	}
	if k := ChunkOf(Vec3i{X: -1, Z: 16}); k != (ChunkKey{-1, 1}) {
		t.Errorf("got %+v", k)
	}
	if k := ChunkOf(Vec3i{X: 31, Z: -17}); k != (ChunkKey{1, -2}) {
		t.Errorf("got %+v", k)
	}
}

func TestManhattan(t *testing.T) {
	a := Vec3i{X: 1, Y: 2, Z: 3}
	b := Vec3i{X: -2, Y: 2, Z: 7}
	if got := Manhattan(a, b); got != 7 {
		t.Errorf("Manhattan(%s,%s) = %d, want 7", a, b, got)
	}
	if got := Manhattan(a, a); got != 0 {
		t.Errorf("distance to self = %d", got)
	}
	if Manhattan(a, b) != Manhattan(b, a) {
		t.Error("distance is not symmetric")
	}
}

func TestDirectionLaterals(t *testing.T) {
	for _, d := range Cardinal {
		v := d.Vec()
		l := d.Left()
		r := d.Right()
		if l == r {
			t.Fatalf("%s: left and right coincide", d)
		}
		if l.Add(r) != (Vec3i{}) {
			t.Errorf("%s: laterals are not opposite: %s vs %s", d, l, r)
		}
		if v.X*l.X+v.Z*l.Z != 0 {
			t.Errorf("%s: left %s is not perpendicular to %s", d, l, v)
		}
	}
}

func TestDirectionOpposite(t *testing.T) {
	for _, d := range Cardinal {
		if d.Opposite().Opposite() != d {
			t.Errorf("%s: double opposite is not identity", d)
		}
		if d.Vec().Add(d.Opposite().Vec()) != (Vec3i{}) {
			t.Errorf("%s: opposite vectors do not cancel", d)
		}
	}
}

func TestParseDirectionRoundTrip(t *testing.T) {
	for _, d := range Cardinal {
		got, err := ParseDirection(d.String())
		if err != nil {
			t.Fatalf("parse %q: %v", d.String(), err)
		}
		if got != d {
			t.Errorf("parse %q = %v, want %v", d.String(), got, d)
		}
	}
	if _, err := ParseDirection("up"); err == nil {
		t.Error("expected error for unknown direction")
	}
}
