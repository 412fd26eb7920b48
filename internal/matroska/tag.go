package matroska

import "errors"

// MasterForm distinguishes how a Master element was observed: opened
// (Start), closed (End), or read whole in one shot because the iterator was
// told to buffer it (Full). Leaf (non-Master) elements are always reported
// as Full since they carry a scalar or binary payload, never children.
type MasterForm int

const (
	// FormFull marks a leaf element's payload, or a Master element the
	// iterator buffered completely instead of streaming Start/.../End.
	FormFull MasterForm = iota
	FormStart
	FormEnd
)

// Tag is one decoded EBML element. For FormStart/FormEnd, Data is nil; for
// FormFull it holds the element's raw payload bytes (verbatim, including
// nested Master bytes when the element was captured as a breakAt target).
type Tag struct {
	ID     ElementID
	Form   MasterForm
	Data   []byte
	Offset int64 // byte offset, relative to this Iterator's own source, where the tag's header began
}

var (
	// ErrUnexpectedEOF means the underlying reader did not have enough
	// bytes to complete the tag currently being read. It is recoverable:
	// the Iterator rewinds to the start of that tag so a later Next call
	// re-attempts the same read from scratch, which is what lets a
	// follower retry after a writer catches up.
	ErrUnexpectedEOF = errors.New("matroska: unexpected eof mid-tag")

	// ErrCorruptTag means the bytes read do not form a well-formed EBML
	// tag (a malformed vint, or an element ID that isn't a valid width).
	// It is not recoverable by retrying.
	ErrCorruptTag = errors.New("matroska: corrupt tag")

	// ErrUnexpectedPrelude is returned by header capture when a Cluster
	// is seen before a Tracks element has been observed.
	ErrUnexpectedPrelude = errors.New("matroska: cluster seen before tracks")
)
