package circuit

import "github.com/pkg/errors"

// Observer receives human-readable trace messages from one circuit.
type Observer interface {
	ID() string
	Send(msg string)
}

// TraceEntry is the structured form of a trace message, written to the
// durable trace sink when one is configured.
type TraceEntry struct {
	Tick      uint64 `json:"tick"`
	CircuitID int    `json:"circuit_id"`
	Channel   string `json:"channel"` // "debug" or "iodebug"
	Text      string `json:"text"`
}

type TraceSink interface {
	WriteTrace(e TraceEntry) error
}

var ErrDuplicateObserver = errors.New("observer already subscribed")

func (c *Circuit) AddDebugger(o Observer) error {
	return addObserver(&c.debuggers, o)
}

func (c *Circuit) RemoveDebugger(o Observer) bool {
	return removeObserver(&c.debuggers, o)
}

func (c *Circuit) HasDebuggers() bool {
	return len(c.debuggers) > 0 || (c.reg != nil && c.reg.traceSink != nil)
}

func (c *Circuit) AddIODebugger(o Observer) error {
	return addObserver(&c.iodebuggers, o)
}

func (c *Circuit) RemoveIODebugger(o Observer) bool {
	return removeObserver(&c.iodebuggers, o)
}

func (c *Circuit) HasIODebuggers() bool {
	return len(c.iodebuggers) > 0 || (c.reg != nil && c.reg.traceSink != nil)
}

// Debug fans msg out to the plain-trace observers. Callers should guard
// with HasDebuggers before building expensive messages.
func (c *Circuit) Debug(msg string) {
	c.deliver(c.debuggers, "debug", msg)
}

// IODebug fans msg out to the I/O-value observers.
func (c *Circuit) IODebug(msg string) {
	c.deliver(c.iodebuggers, "iodebug", msg)
}

func (c *Circuit) deliver(obs []Observer, channel, msg string) {
	line := c.ChipString() + ": " + msg
	for _, o := range obs {
		if c.reg != nil && c.reg.DebuggerPaused(o.ID()) {
			continue
		}
		o.Send(line)
	}
	if c.reg != nil && c.reg.traceSink != nil {
		_ = c.reg.traceSink.WriteTrace(TraceEntry{
			Tick:      c.sub.Tick(),
			CircuitID: c.ID,
			Channel:   channel,
			Text:      msg,
		})
	}
}

func addObserver(list *[]Observer, o Observer) error {
	for _, e := range *list {
		if e.ID() == o.ID() {
			return errors.Wrap(ErrDuplicateObserver, o.ID())
		}
	}
	*list = append(*list, o)
	return nil
}

func removeObserver(list *[]Observer, o Observer) bool {
	for i, e := range *list {
		if e.ID() == o.ID() {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}
