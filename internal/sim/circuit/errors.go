package circuit

import (
	"fmt"

	"github.com/pkg/errors"
)

// Detection failures. Reported to the activating actor; nothing is created
// or persisted when any of these occur.
var (
	ErrNoBodyBlocks   = errors.New("no chip body blocks found")
	ErrOutputNotWired = errors.New("output pin is not connected to wire")
	ErrNoPins         = errors.New("chip has no input or output pins")
	ErrUnknownKind    = errors.New("unknown logic kind")
	ErrAlreadyClaimed = errors.New("activation sign already belongs to a circuit")
	ErrNotActivation  = errors.New("not an activation sign")
)

// InitError is an initialization failure: the logic kind rejected its
// arguments. The instance is discarded and nothing is persisted.
type InitError struct {
	Kind   string
	Reason string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s: init failed: %s", e.Kind, e.Reason)
}

func Initf(kind, format string, args ...any) error {
	return &InitError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
