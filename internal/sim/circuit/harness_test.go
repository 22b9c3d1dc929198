package circuit

import (
	"io"

	"github.com/sirupsen/logrus"

	"redchips.ai/internal/sim/world"
)

// chipSpec describes a straight test chip: the sign at origin, the body run
// extending along dir, input markers on the left laterals and output markers
// (with wire jacks) on the right.
type chipSpec struct {
	sign    world.Vec3i
	dir     world.Direction
	bodyLen int
	inputs  int // markers on body blocks 0..inputs-1
	outputs int // markers on body blocks 0..outputs-1
	text    string
}

// place builds the spec's blocks and returns the input source and output
// jack locations in pin order.
func (cs chipSpec) place(w *world.World, m Materials) (sources, jacks []world.Vec3i) {
	w.SetBlock(cs.sign, m.Sign)
	if cs.text != "" {
		w.SetSignText(cs.sign, cs.text)
	}
	left := cs.dir.Left()
	right := cs.dir.Right()
	for i := 0; i < cs.bodyLen; i++ {
		body := cs.sign
		for j := 0; j <= i; j++ {
			body = body.Add(cs.dir.Vec())
		}
		w.SetBlock(body, m.Body)
		if i < cs.inputs {
			marker := body.Add(left)
			w.SetBlock(marker, m.Input)
			sources = append(sources, marker.Add(left))
		}
		if i < cs.outputs {
			marker := body.Add(right)
			w.SetBlock(marker, m.Output)
			jack := marker.Add(right)
			w.SetBlock(jack, m.Wire)
			jacks = append(jacks, jack)
		}
	}
	return sources, jacks
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testWorld() *world.World {
	return world.New(quietLogger(), 8, 0)
}

// fakeLogic is a scriptable Logic for engine tests.
type fakeLogic struct {
	stateless bool
	initErr   error

	changes []pinEvent
	onInit  func(c *Circuit, args []string)
	onInput func(c *Circuit, idx int, state bool)
}

type pinEvent struct {
	idx   int
	state bool
}

func (l *fakeLogic) Stateless() bool { return l.stateless }

func (l *fakeLogic) Init(c *Circuit, args []string) error {
	if l.onInit != nil {
		l.onInit(c, args)
	}
	return l.initErr
}

func (l *fakeLogic) InputChange(c *Circuit, idx int, state bool) {
	l.changes = append(l.changes, pinEvent{idx: idx, state: state})
	if l.onInput != nil {
		l.onInput(c, idx, state)
	}
}

// fakeTable resolves every kind name to the same fakeLogic factory.
type fakeTable struct {
	logics map[string]func() Logic
}

func (t *fakeTable) Create(name string) (Logic, bool) {
	f, ok := t.logics[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

func (t *fakeTable) Names() []string {
	out := make([]string, 0, len(t.logics))
	for name := range t.logics {
		out = append(out, name)
	}
	return out
}

func singleKindTable(name string, f func() Logic) *fakeTable {
	return &fakeTable{logics: map[string]func() Logic{name: f}}
}

// memStore is an in-memory circuit.Store for persistence tests.
type memStore struct {
	recs    []Record
	saves   int
	saveErr error
	loadErr error
}

func (s *memStore) SaveAll(recs []Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.recs = append([]Record(nil), recs...)
	s.saves++
	return nil
}

func (s *memStore) LoadAll() ([]Record, error) {
	return append([]Record(nil), s.recs...), s.loadErr
}

// chanObserver collects trace messages for debug-channel tests.
type chanObserver struct {
	id   string
	msgs []string
}

func (o *chanObserver) ID() string      { return o.id }
func (o *chanObserver) Send(msg string) { o.msgs = append(o.msgs, msg) }

// msgSender collects registry feedback messages.
type msgSender struct{ msgs []string }

func (s *msgSender) SendMessage(msg string) { s.msgs = append(s.msgs, msg) }
