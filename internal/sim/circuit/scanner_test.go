package circuit

import (
	"testing"

	"github.com/pkg/errors"

	"redchips.ai/internal/sim/world"
)

func TestScanBasicLayout(t *testing.T) {
	w := testWorld()
	m := DefaultMaterials()
	spec := chipSpec{
		sign:    world.Vec3i{X: 0, Y: 2, Z: 0},
		dir:     world.East,
		bodyLen: 3,
		inputs:  2,
		outputs: 1,
	}
	sources, jacks := spec.place(w, m)

	topo, err := Scan(w, m, spec.sign, spec.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(topo.Inputs) != 2 || len(topo.Outputs) != 1 {
		t.Fatalf("got %d inputs, %d outputs", len(topo.Inputs), len(topo.Outputs))
	}
	for i, pin := range topo.Inputs {
		if pin.Source != sources[i] {
			t.Errorf("input %d source = %s, want %s", i, pin.Source, sources[i])
		}
	}
	if topo.Outputs[0].Jack != jacks[0] {
		t.Errorf("output jack = %s, want %s", topo.Outputs[0].Jack, jacks[0])
	}
	if topo.Activation != spec.sign {
		t.Errorf("activation = %s", topo.Activation)
	}

	// Structure covers the sign, every body block, every marker and the jack.
	wantStructure := 1 + 3 + 2 + 1 + 1
	if len(topo.Structure) != wantStructure {
		t.Errorf("structure has %d blocks, want %d", len(topo.Structure), wantStructure)
	}
}

func TestScanPinOrderFollowsWalk(t *testing.T) {
	w := testWorld()
	m := DefaultMaterials()
	spec := chipSpec{
		sign:    world.Vec3i{X: 0, Y: 2, Z: 0},
		dir:     world.South,
		bodyLen: 4,
		inputs:  3,
	}
	sources, _ := spec.place(w, m)
	// One output on the last body block so the chip has pins of both kinds.
	last := spec.sign.Add(world.Vec3i{Z: 4})
	outMarker := last.Add(spec.dir.Right())
	w.SetBlock(outMarker, m.Output)
	w.SetBlock(outMarker.Add(spec.dir.Right()), m.Wire)

	topo, err := Scan(w, m, spec.sign, spec.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(topo.Inputs) != 3 {
		t.Fatalf("got %d inputs", len(topo.Inputs))
	}
	for i := range sources {
		if topo.Inputs[i].Source != sources[i] {
			t.Errorf("input %d = %s, want %s (walk order)", i, topo.Inputs[i].Source, sources[i])
		}
	}
}

func TestScanOppositeDirectionSameShape(t *testing.T) {
	w := testWorld()
	m := DefaultMaterials()
	spec := chipSpec{
		sign:    world.Vec3i{X: 0, Y: 2, Z: 0},
		dir:     world.East,
		bodyLen: 3,
		inputs:  2,
		outputs: 2,
	}
	spec.place(w, m)

	// A second sign at the far end scans the same body backwards.
	farSign := spec.sign.Add(world.Vec3i{X: 4})
	w.SetBlock(farSign, m.Sign)

	a, err := Scan(w, m, spec.sign, world.East)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Scan(w, m, farSign, world.West)
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Inputs) != len(b.Inputs) || len(a.Outputs) != len(b.Outputs) {
		t.Fatalf("asymmetric scan: %d/%d inputs, %d/%d outputs",
			len(a.Inputs), len(b.Inputs), len(a.Outputs), len(b.Outputs))
	}
	aSrc := map[world.Vec3i]bool{}
	for _, p := range a.Inputs {
		aSrc[p.Source] = true
	}
	for _, p := range b.Inputs {
		if !aSrc[p.Source] {
			t.Errorf("reverse scan found source %s the forward scan did not", p.Source)
		}
	}
}

func TestScanNotActivationSign(t *testing.T) {
	w := testWorld()
	m := DefaultMaterials()
	pos := world.Vec3i{X: 0, Y: 2, Z: 0}
	w.SetBlock(pos, m.Body)
	if _, err := Scan(w, m, pos, world.East); !errors.Is(err, ErrNotActivation) {
		t.Errorf("got %v", err)
	}
}

func TestScanNoBodyBlocks(t *testing.T) {
	w := testWorld()
	m := DefaultMaterials()
	pos := world.Vec3i{X: 0, Y: 2, Z: 0}
	w.SetBlock(pos, m.Sign)
	if _, err := Scan(w, m, pos, world.East); !errors.Is(err, ErrNoBodyBlocks) {
		t.Errorf("got %v", err)
	}
}

func TestScanOutputNotWired(t *testing.T) {
	w := testWorld()
	m := DefaultMaterials()
	spec := chipSpec{
		sign:    world.Vec3i{X: 0, Y: 2, Z: 0},
		dir:     world.East,
		bodyLen: 2,
		inputs:  1,
		outputs: 1,
	}
	_, jacks := spec.place(w, m)
	w.SetBlock(jacks[0], world.Air)

	if _, err := Scan(w, m, spec.sign, spec.dir); !errors.Is(err, ErrOutputNotWired) {
		t.Errorf("got %v", err)
	}
}

func TestScanNoPins(t *testing.T) {
	w := testWorld()
	m := DefaultMaterials()
	spec := chipSpec{
		sign:    world.Vec3i{X: 0, Y: 2, Z: 0},
		dir:     world.East,
		bodyLen: 3,
	}
	spec.place(w, m)

	if _, err := Scan(w, m, spec.sign, spec.dir); !errors.Is(err, ErrNoPins) {
		t.Errorf("got %v", err)
	}
}

func TestTopologyChunksDeduplicated(t *testing.T) {
	topo := &Topology{
		Structure: []world.Vec3i{{X: 0, Y: 2, Z: 0}, {X: 1, Y: 2, Z: 0}, {X: 17, Y: 2, Z: 0}},
		Inputs:    []InputPin{{Source: world.Vec3i{X: 2, Y: 2, Z: 0}}},
	}
	keys := topo.Chunks()
	if len(keys) != 2 {
		t.Fatalf("got %d chunk keys, want 2: %+v", len(keys), keys)
	}
}
