// Package kinds holds the concrete chip logic kinds and the name→factory
// table the registry resolves activation signs against.
package kinds

import (
	"fmt"
	"sort"

	"redchips.ai/internal/sim/circuit"
)

type Factory func() circuit.Logic

type Table struct {
	factories map[string]Factory
}

func NewTable() *Table {
	return &Table{factories: map[string]Factory{}}
}

// Register adds a kind under name. Duplicate names are a startup
// configuration error.
func (t *Table) Register(name string, f Factory) error {
	if _, ok := t.factories[name]; ok {
		return fmt.Errorf("kind %q registered twice", name)
	}
	t.factories[name] = f
	return nil
}

func (t *Table) Create(name string) (circuit.Logic, bool) {
	f, ok := t.factories[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

func (t *Table) Names() []string {
	out := make([]string, 0, len(t.factories))
	for name := range t.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default builds the table of built-in kinds.
func Default() *Table {
	t := NewTable()
	must(t.Register("and", func() circuit.Logic { return &And{} }))
	must(t.Register("or", func() circuit.Logic { return &Or{} }))
	must(t.Register("xor", func() circuit.Logic { return &Xor{} }))
	must(t.Register("not", func() circuit.Logic { return &Not{} }))
	must(t.Register("clock", func() circuit.Logic { return &Clock{} }))
	must(t.Register("counter", func() circuit.Logic { return &Counter{} }))
	must(t.Register("transmitter", func() circuit.Logic { return &Transmitter{} }))
	must(t.Register("receiver", func() circuit.Logic { return &Receiver{} }))
	return t
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
