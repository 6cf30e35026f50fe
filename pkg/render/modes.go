package render

import "fmt"

// Mode selects the delivery strategy for a streamed render.
type Mode int

const (
	// OutOfOrder streams the shell immediately with fallbacks in place,
	// then one chunk per boundary as it settles, in settlement order.
	OutOfOrder Mode = iota

	// InOrder streams document-order segments, pausing the stream at
	// each boundary until its data settles.
	InOrder

	// Async emits a single complete document once everything settles,
	// or nothing at all if a failure escapes every error boundary.
	Async

	// PartiallyBlocked is OutOfOrder except that boundaries reading a
	// blocking resource resolve inline before the shell is flushed.
	PartiallyBlocked
)

// String returns the mode's route-facing name.
func (m Mode) String() string {
	switch m {
	case OutOfOrder:
		return "out-of-order"
	case InOrder:
		return "in-order"
	case Async:
		return "async"
	case PartiallyBlocked:
		return "partially-blocked"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name back to its Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "out-of-order":
		return OutOfOrder, nil
	case "in-order":
		return InOrder, nil
	case "async":
		return Async, nil
	case "partially-blocked":
		return PartiallyBlocked, nil
	default:
		return 0, fmt.Errorf("unknown render mode %q", s)
	}
}

// Streams reports whether the mode can emit more than one chunk.
func (m Mode) Streams() bool {
	return m != Async
}
