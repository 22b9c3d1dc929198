package circuit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"redchips.ai/internal/sim/world"
)

// LogicTable resolves a logic-kind name, as read off an activation sign,
// to a fresh Logic value. Built once at startup; unknown names are a
// detection failure, never a crash.
type LogicTable interface {
	Create(name string) (Logic, bool)
	Names() []string
}

// Journal records circuit lifecycle events for offline inspection.
// Implementations must never block the event path.
type Journal interface {
	RecordEvent(e LifecycleEvent)
}

type LifecycleEvent struct {
	Tick      uint64
	Event     string // "activate", "destroy", "integrity_fail"
	CircuitID int
	Kind      string
	Pos       world.Vec3i
	Detail    string
}

type pinRef struct {
	id  int
	pin int
}

// Registry owns the live circuit population: id assignment, the location
// and chunk interest indexes, observer pause state and persistence. All
// methods run on the simulation goroutine.
type Registry struct {
	log       *logrus.Logger
	world     Substrate
	materials Materials
	table     LogicTable

	circuits       map[int]*Circuit
	byActivation   map[world.Vec3i]int
	inputIndex     map[world.Vec3i][]pinRef
	structureIndex map[world.Vec3i]int
	chunkIndex     map[world.ChunkKey]map[int]bool

	nextID int
	paused map[string]bool

	wireless  *Wireless
	store     Store
	journal   Journal
	traceSink TraceSink

	dispatchDepth int
}

// maxDispatchDepth bounds synchronous redstone feedback chains. A circuit
// driving its own input would otherwise recurse without limit.
const maxDispatchDepth = 256

func NewRegistry(log *logrus.Logger, sub Substrate, materials Materials, table LogicTable) *Registry {
	if log == nil {
		log = logrus.New()
	}
	return &Registry{
		log:            log,
		world:          sub,
		materials:      materials,
		table:          table,
		circuits:       map[int]*Circuit{},
		byActivation:   map[world.Vec3i]int{},
		inputIndex:     map[world.Vec3i][]pinRef{},
		structureIndex: map[world.Vec3i]int{},
		chunkIndex:     map[world.ChunkKey]map[int]bool{},
		paused:         map[string]bool{},
		wireless:       NewWireless(),
	}
}

func (r *Registry) SetStore(s Store)         { r.store = s }
func (r *Registry) SetJournal(j Journal)     { r.journal = j }
func (r *Registry) SetTraceSink(t TraceSink) { r.traceSink = t }
func (r *Registry) Wireless() *Wireless      { return r.wireless }
func (r *Registry) Materials() Materials     { return r.materials }

func (r *Registry) Circuit(id int) *Circuit { return r.circuits[id] }
func (r *Registry) Count() int              { return len(r.circuits) }

// Observer pause gating. Paused observers stay subscribed but receive no
// deliveries until resumed.
func (r *Registry) PauseDebugger(id string)       { r.paused[id] = true }
func (r *Registry) ResumeDebugger(id string)      { delete(r.paused, id) }
func (r *Registry) DebuggerPaused(id string) bool { return r.paused[id] }

// RedstoneChange fans a power-level change out to every circuit whose input
// pin senses the changed location. A failure inside one circuit never
// prevents delivery to the rest.
func (r *Registry) RedstoneChange(pos world.Vec3i, oldLevel, newLevel int) {
	oldOn := oldLevel > 0
	newOn := newLevel > 0
	if oldOn == newOn {
		return
	}
	if r.dispatchDepth >= maxDispatchDepth {
		r.log.Warnf("redstone dispatch depth limit at %s, dropping change", pos)
		return
	}
	r.dispatchDepth++
	defer func() { r.dispatchDepth-- }()

	for _, ref := range r.inputIndex[pos] {
		c := r.circuits[ref.id]
		if c == nil {
			continue
		}
		r.safeStateChange(c, ref.pin, newOn)
	}
}

func (r *Registry) safeStateChange(c *Circuit, pin int, val bool) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Errorf("%s: input change panicked: %v", c.ChipString(), p)
		}
	}()
	c.StateChange(pin, val)
}

// RightClick handles a physical right-click on a block. A click on an
// unclaimed activation sign triggers detection in every cardinal direction
// whose neighbor is chip body material.
func (r *Registry) RightClick(pos world.Vec3i, sender Sender) (*Circuit, error) {
	if r.world.BlockAt(pos) != r.materials.Sign {
		return nil, nil
	}
	if id, ok := r.byActivation[pos]; ok {
		r.message(sender, fmt.Sprintf("circuit %d is already activated", id))
		return nil, ErrAlreadyClaimed
	}

	kind, args := parseSign(r.world.SignText(pos))
	if kind == "" {
		return nil, nil
	}

	scanErr := ErrNoBodyBlocks
	for _, dir := range world.Cardinal {
		if r.world.BlockAt(pos.Add(dir.Vec())) != r.materials.Body {
			continue
		}
		topo, err := Scan(r.world, r.materials, pos, dir)
		if err != nil {
			scanErr = err
			continue
		}
		return r.Activate(topo, kind, args, sender)
	}
	r.message(sender, "detection failed: "+scanErr.Error())
	return nil, scanErr
}

// Activate constructs and registers a circuit from an accepted topology.
// Detection and initialization failures leave the registry untouched. An
// activation location belongs to at most one live circuit, no matter how
// the topology reached us.
func (r *Registry) Activate(topo *Topology, kind string, args []string, sender Sender) (*Circuit, error) {
	if id, ok := r.byActivation[topo.Activation]; ok {
		r.message(sender, fmt.Sprintf("circuit %d is already activated", id))
		return nil, fmt.Errorf("activation %s: %w", topo.Activation, ErrAlreadyClaimed)
	}
	logic, ok := r.table.Create(kind)
	if !ok {
		r.message(sender, fmt.Sprintf("unknown circuit type %q", kind))
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}

	c := New(kind, logic, topo, args)
	if err := c.InitCircuit(r, sender); err != nil {
		r.message(sender, err.Error())
		return nil, err
	}

	c.ID = r.nextID
	r.nextID++
	r.register(c)
	r.saveQuiet()
	r.recordEvent("activate", c, "")

	r.message(sender, fmt.Sprintf("activated %s with %d inputs and %d outputs", c.ChipString(), len(c.Inputs), len(c.Outputs)))
	r.log.Infof("activated %s at %s", c.ChipString(), c.Activation)
	return c, nil
}

// BlockBreak handles physical destruction. Breaking any structure block
// destroys the owning circuit.
func (r *Registry) BlockBreak(pos world.Vec3i, sender Sender) bool {
	id, ok := r.structureIndex[pos]
	if !ok {
		return false
	}
	c := r.circuits[id]
	if c == nil {
		return false
	}
	r.message(sender, fmt.Sprintf("you destroyed the %s chip", c.ChipString()))
	r.Destroy(c)
	return true
}

// Destroy tears a circuit down and removes it from the registry.
func (r *Registry) Destroy(c *Circuit) {
	c.DestroyCircuit()
	r.unregister(c)
	r.saveQuiet()
	r.recordEvent("destroy", c, "")
	r.log.Infof("destroyed %s at %s", c.ChipString(), c.Activation)
}

func (r *Registry) DestroyAt(pos world.Vec3i) bool {
	id, ok := r.byActivation[pos]
	if !ok {
		return false
	}
	c := r.circuits[id]
	if c == nil {
		return false
	}
	r.Destroy(c)
	return true
}

// VerifyIntegrity sweeps the population and reports ids that fail their
// integrity check. Decision about destruction stays with the caller.
func (r *Registry) VerifyIntegrity() []int {
	var bad []int
	for _, id := range r.sortedIDs() {
		c := r.circuits[id]
		if !c.CheckIntegrity() {
			bad = append(bad, id)
			r.recordEvent("integrity_fail", c, "structure check failed")
		}
	}
	return bad
}

// ChunkLoaded notifies every circuit with interest in the chunk so it can
// re-read inputs and re-assert outputs.
func (r *Registry) ChunkLoaded(k world.ChunkKey) {
	ids := make([]int, 0, len(r.chunkIndex[k]))
	for id := range r.chunkIndex[k] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if c := r.circuits[id]; c != nil {
			c.ChunkLoaded()
		}
	}
}

type Info struct {
	ID         int         `json:"id"`
	Kind       string      `json:"kind"`
	Name       string      `json:"name,omitempty"`
	Activation world.Vec3i `json:"activation"`
	State      string      `json:"state"`
	Inputs     int         `json:"inputs"`
	Outputs    int         `json:"outputs"`
}

func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.circuits))
	for _, id := range r.sortedIDs() {
		c := r.circuits[id]
		out = append(out, Info{
			ID:         c.ID,
			Kind:       c.Kind,
			Name:       c.Name,
			Activation: c.Activation,
			State:      c.state.String(),
			Inputs:     len(c.Inputs),
			Outputs:    len(c.Outputs),
		})
	}
	return out
}

// Save rewrites the whole population through the store. On failure the
// in-memory state is kept; durability resumes on the next successful save.
func (r *Registry) Save() error {
	if r.store == nil {
		return nil
	}
	recs := make([]Record, 0, len(r.circuits))
	for _, id := range r.sortedIDs() {
		recs = append(recs, r.circuits[id].record())
	}
	return r.store.SaveAll(recs)
}

func (r *Registry) saveQuiet() {
	if err := r.Save(); err != nil {
		r.log.Warnf("save circuits: %v", err)
	}
}

// Load rebuilds the population from the store, once at startup. Records
// with unknown kinds or failing init are skipped with a warning.
func (r *Registry) Load() error {
	if r.store == nil {
		return nil
	}
	recs, err := r.store.LoadAll()
	if err != nil {
		if recs == nil {
			return err
		}
		r.log.Warnf("load circuits: %v", err)
	}
	loaded := 0
	for _, rec := range recs {
		if err := r.loadRecord(rec); err != nil {
			r.log.Warnf("skipping circuit %d: %v", rec.ID, err)
			continue
		}
		loaded++
	}
	r.log.Infof("loaded %d circuits", loaded)
	return nil
}

func (r *Registry) loadRecord(rec Record) error {
	logic, ok := r.table.Create(rec.Kind)
	if !ok {
		return fmt.Errorf("%q: %w", rec.Kind, ErrUnknownKind)
	}
	if _, taken := r.circuits[rec.ID]; taken || rec.ID < 0 {
		return fmt.Errorf("duplicate circuit id %d", rec.ID)
	}
	if _, claimed := r.byActivation[rec.Activation]; claimed {
		return fmt.Errorf("activation %s: %w", rec.Activation, ErrAlreadyClaimed)
	}

	c := New(rec.Kind, logic, rec.topology(), rec.Args)
	c.Name = rec.Name
	if err := c.InitCircuit(r, nil); err != nil {
		return err
	}
	if sh, ok := logic.(StateHolder); ok && rec.Internal != nil {
		sh.RestoreState(c, rec.Internal)
	}
	if rec.Disabled && !c.disabled {
		c.Disable()
	}

	c.ID = rec.ID
	if rec.ID >= r.nextID {
		r.nextID = rec.ID + 1
	}
	r.register(c)
	return nil
}

func (r *Registry) register(c *Circuit) {
	r.circuits[c.ID] = c
	r.byActivation[c.Activation] = c.ID
	for i := range c.Inputs {
		src := c.Inputs[i].Source
		r.inputIndex[src] = append(r.inputIndex[src], pinRef{id: c.ID, pin: i})
	}
	for _, p := range c.Structure {
		r.structureIndex[p] = c.ID
	}
	for _, k := range c.Topology.Chunks() {
		set := r.chunkIndex[k]
		if set == nil {
			set = map[int]bool{}
			r.chunkIndex[k] = set
		}
		set[c.ID] = true
	}
}

func (r *Registry) unregister(c *Circuit) {
	delete(r.circuits, c.ID)
	delete(r.byActivation, c.Activation)
	for i := range c.Inputs {
		src := c.Inputs[i].Source
		refs := r.inputIndex[src][:0]
		for _, ref := range r.inputIndex[src] {
			if ref.id != c.ID {
				refs = append(refs, ref)
			}
		}
		if len(refs) == 0 {
			delete(r.inputIndex, src)
		} else {
			r.inputIndex[src] = refs
		}
	}
	for _, p := range c.Structure {
		if r.structureIndex[p] == c.ID {
			delete(r.structureIndex, p)
		}
	}
	for _, k := range c.Topology.Chunks() {
		if set := r.chunkIndex[k]; set != nil {
			delete(set, c.ID)
			if len(set) == 0 {
				delete(r.chunkIndex, k)
			}
		}
	}
}

func (r *Registry) sortedIDs() []int {
	ids := make([]int, 0, len(r.circuits))
	for id := range r.circuits {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (r *Registry) recordEvent(event string, c *Circuit, detail string) {
	if r.journal == nil {
		return
	}
	r.journal.RecordEvent(LifecycleEvent{
		Tick:      r.world.Tick(),
		Event:     event,
		CircuitID: c.ID,
		Kind:      c.Kind,
		Pos:       c.Activation,
		Detail:    detail,
	})
}

func (r *Registry) message(sender Sender, msg string) {
	if sender != nil {
		sender.SendMessage(msg)
		return
	}
	r.log.Info(msg)
}

// parseSign splits activation sign text: the first token of the first line
// is the logic-kind name, everything after it are args.
func parseSign(text string) (kind string, args []string) {
	lines := strings.Split(text, "\n")
	first := strings.Fields(lines[0])
	if len(first) == 0 {
		return "", nil
	}
	kind = first[0]
	args = append(args, first[1:]...)
	for _, line := range lines[1:] {
		args = append(args, strings.Fields(line)...)
	}
	return kind, args
}
