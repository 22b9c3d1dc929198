package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"redchips.ai/internal/sim/circuit"
	"redchips.ai/internal/sim/circuit/kinds"
	"redchips.ai/internal/sim/config"
	"redchips.ai/internal/sim/world"
)

func newIdleEngine() *engine {
	log := logrus.New()
	log.SetOutput(io.Discard)
	w := world.New(log, 8, 0)
	table := kinds.Default()
	reg := circuit.NewRegistry(log, w, circuit.DefaultMaterials(), table)
	return newEngine(w, reg, table)
}

func TestEngineCallRunsOnLoop(t *testing.T) {
	eng := newIdleEngine()
	go eng.run(time.Hour)
	defer eng.stop()

	ran := false
	eng.call(func() { ran = true })
	if !ran {
		t.Fatal("call did not run the closure")
	}
}

func TestEngineCallReturnsAfterStop(t *testing.T) {
	eng := newIdleEngine()
	go eng.run(time.Hour)
	eng.stop()

	done := make(chan struct{})
	go func() {
		eng.call(func() {})
		eng.Post(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("call blocked after the loop stopped")
	}
}

func testTopology(at world.Vec3i) *circuit.Topology {
	return &circuit.Topology{
		Activation: at,
		Direction:  world.East,
		Inputs:     []circuit.InputPin{{Marker: at.Add(world.Vec3i{X: 1, Z: -1}), Source: at.Add(world.Vec3i{X: 1, Z: -2})}},
		Outputs:    []circuit.OutputPin{{Marker: at.Add(world.Vec3i{X: 1, Z: 1}), Jack: at.Add(world.Vec3i{X: 1, Z: 2})}},
		Structure:  []world.Vec3i{at, at.Add(world.Vec3i{X: 1})},
	}
}

func TestCircuitsNearSortsByDistance(t *testing.T) {
	eng := newIdleEngine()
	go eng.run(time.Hour)
	defer eng.stop()

	far := world.Vec3i{X: 40, Y: 2, Z: 0}
	near := world.Vec3i{X: 4, Y: 2, Z: 0}
	eng.call(func() {
		for _, at := range []world.Vec3i{far, near} {
			if _, err := eng.reg.Activate(testTopology(at), "and", nil, nil); err != nil {
				t.Errorf("activate at %s: %v", at, err)
			}
		}
	})

	rec := httptest.NewRecorder()
	eng.handleCircuits(rec, httptest.NewRequest(http.MethodGet, "/v1/circuits?near=0,2,0", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []circuit.Info
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Activation != near || list[1].Activation != far {
		t.Fatalf("order = %+v, want nearest first", list)
	}

	rec = httptest.NewRecorder()
	eng.handleCircuits(rec, httptest.NewRequest(http.MethodGet, "/v1/circuits?near=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad near coordinate: status = %d", rec.Code)
	}
}

func TestWorldEndpoint(t *testing.T) {
	eng := newIdleEngine()
	go eng.run(time.Hour)
	defer eng.stop()

	a := world.Vec3i{X: 9, Y: 2, Z: 0}
	b := world.Vec3i{X: -1, Y: 2, Z: 0}
	eng.call(func() {
		for _, p := range []world.Vec3i{a, b} {
			eng.world.SetBlock(p, world.WallSign)
			eng.world.SetSignText(p, "and")
		}
	})

	rec := httptest.NewRecorder()
	eng.handleWorld(rec, httptest.NewRequest(http.MethodGet, "/v1/world", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var info worldInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if len(info.Signs) != 2 || info.Signs[0].Pos != b || info.Signs[1].Pos != a {
		t.Fatalf("signs = %+v, want both, x-sorted", info.Signs)
	}
	if info.Signs[0].Text != "and" {
		t.Errorf("sign text = %q", info.Signs[0].Text)
	}
	if len(info.LoadedChunks) == 0 {
		t.Error("no loaded chunks reported")
	}
}

func TestParsePos(t *testing.T) {
	if v, ok := parsePos("3,-2,10"); !ok || v != (world.Vec3i{X: 3, Y: -2, Z: 10}) {
		t.Errorf("parsePos = %v, %v", v, ok)
	}
	for _, bad := range []string{"", "1,2", "a,b,c"} {
		if _, ok := parsePos(bad); ok {
			t.Errorf("parsePos(%q) accepted", bad)
		}
	}
}

func TestResolveMaterials(t *testing.T) {
	m := config.Defaults().Materials
	mats, err := resolveMaterials(m)
	if err != nil {
		t.Fatal(err)
	}
	if mats.Body != world.Sandstone || mats.Wire != world.Wire {
		t.Errorf("materials = %+v", mats)
	}

	m.Body = "BEDROCK"
	if _, err := resolveMaterials(m); err == nil {
		t.Error("unknown block name accepted")
	}
}
