package matroska

import (
	"errors"
	"io"
)

// ReadSeeker is the minimal source an Iterator needs. A Handle (see
// internal/sharedfile) satisfies it, and so does any *os.File.
type ReadSeeker interface {
	io.Reader
	io.Seeker
}

type openMaster struct {
	id          ElementID
	knownSize   bool
	remaining   uint64
}

// Iterator decodes a flat stream of Tags from src. It understands exactly
// the subset of EBML structure this project needs:
//
//   - IDs listed in breakAt are never streamed as Start/.../End; the whole
//     element is read in one shot and reported as a single FormFull Tag.
//     This is how header capture gets EBML/Info/Tracks as atomic snapshots.
//   - Any other Master element is opened with FormStart. If its declared
//     size is known, the Iterator closes it automatically (FormEnd) once
//     that many bytes of children have been consumed.
//   - An unknown-size Master (Segment, and in practice Cluster, since
//     neither can declare its final size while still being written) is
//     closed only when the Iterator sees a sibling element carrying the
//     *same* ID one level up. That header is buffered rather than
//     discarded, so the very next Next call replays it as a fresh Start —
//     this is what lets a follower "peek" the next cluster boundary.
//
// On ErrUnexpectedEOF the Iterator rewinds src to the start of the tag it
// was attempting to read, so the caller can sleep and call Next again
// without skipping or duplicating bytes.
type Iterator struct {
	src      ReadSeeker
	breakAt  map[ElementID]bool
	basePos  int64
	pos      int64
	lastOff  int64
	stack    []openMaster
	pending  *pendingHeader
}

type pendingHeader struct {
	id      ElementID
	size    uint64
	unknown bool
	offset  int64
}

// NewIterator constructs an Iterator over src starting at its current
// position. breakAt lists Master IDs that should be read whole as FormFull
// tags instead of streamed as Start/.../End; pass nil for the per-cluster
// loop, which wants to see Cluster as an explicit Start/children/End
// sequence.
func NewIterator(src ReadSeeker, breakAt []ElementID) (*Iterator, error) {
	base, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	m := make(map[ElementID]bool, len(breakAt))
	for _, id := range breakAt {
		m[id] = true
	}
	return &Iterator{src: src, breakAt: m, basePos: base}, nil
}

// LastEmittedTagOffset returns the offset, relative to this Iterator's own
// source (i.e. relative to wherever it started, not the file's absolute
// offset), at which the most recently returned tag's header began.
func (it *Iterator) LastEmittedTagOffset() int64 {
	return it.lastOff
}

func (it *Iterator) topOfStack() *openMaster {
	if len(it.stack) == 0 {
		return nil
	}
	return &it.stack[len(it.stack)-1]
}

// Next decodes and returns the next Tag. It returns ErrUnexpectedEOF when
// the source does not yet contain enough bytes (recoverable: retry later)
// and ErrCorruptTag when the bytes are not valid EBML (not recoverable).
func (it *Iterator) Next() (Tag, error) {
	for {
		// Auto-close a known-size Master whose children are exhausted.
		if top := it.topOfStack(); top != nil && top.knownSize && top.remaining == 0 {
			closed := it.stack[len(it.stack)-1]
			it.stack = it.stack[:len(it.stack)-1]
			it.lastOff = it.pos
			return Tag{ID: closed.id, Form: FormEnd}, nil
		}

		var hdr pendingHeader
		if it.pending != nil {
			hdr = *it.pending
			it.pending = nil
		} else {
			h, err := it.readHeader()
			if err != nil {
				return Tag{}, err
			}
			hdr = h
		}

		if top := it.topOfStack(); top != nil && !top.knownSize && hdr.id == top.id {
			// Sibling boundary: the element we just read starts a new
			// occurrence of the currently open unknown-size Master.
			// Synthesize the End for the one that's open and replay hdr
			// on the next call.
			it.pending = &hdr
			closed := it.stack[len(it.stack)-1]
			it.stack = it.stack[:len(it.stack)-1]
			it.lastOff = hdr.offset
			return Tag{ID: closed.id, Form: FormEnd}, nil
		}

		switch {
		case it.breakAt[hdr.id]:
			if hdr.unknown {
				return Tag{}, ErrCorruptTag
			}
			data := make([]byte, hdr.size)
			if err := it.readFull(hdr.offset, data); err != nil {
				return Tag{}, err
			}
			it.deduct(hdr)
			it.lastOff = hdr.offset
			return Tag{ID: hdr.id, Form: FormFull, Data: data, Offset: hdr.offset}, nil

		case hdr.id.IsMaster():
			it.stack = append(it.stack, openMaster{
				id:        hdr.id,
				knownSize: !hdr.unknown,
				remaining: hdr.size,
			})
			it.lastOff = hdr.offset
			return Tag{ID: hdr.id, Form: FormStart, Offset: hdr.offset}, nil

		default:
			if hdr.unknown {
				return Tag{}, ErrCorruptTag
			}
			data := make([]byte, hdr.size)
			if err := it.readFull(hdr.offset, data); err != nil {
				return Tag{}, err
			}
			it.deduct(hdr)
			it.lastOff = hdr.offset
			return Tag{ID: hdr.id, Form: FormFull, Data: data, Offset: hdr.offset}, nil
		}
	}
}

// deduct subtracts the bytes a just-consumed element occupied from the
// currently open known-size Master, if any.
func (it *Iterator) deduct(hdr pendingHeader) {
	top := it.topOfStack()
	if top == nil || !top.knownSize {
		return
	}
	consumed := uint64(it.pos - hdr.offset)
	if consumed > top.remaining {
		top.remaining = 0
		return
	}
	top.remaining -= consumed
}

// readHeader decodes an element ID + size vint pair starting at the
// Iterator's current position. On EOF it rewinds to where the header
// attempt started so a retry re-reads cleanly.
func (it *Iterator) readHeader() (pendingHeader, error) {
	start := it.pos
	cr := &countingReader{r: it.src, n: &it.pos}
	id, _, err := DecodeID(cr)
	if err != nil {
		it.rewindTo(start)
		return pendingHeader{}, classifyErr(err)
	}
	size, _, unknown, err := DecodeSize(cr)
	if err != nil {
		it.rewindTo(start)
		return pendingHeader{}, classifyErr(err)
	}
	return pendingHeader{id: id, size: size, unknown: unknown, offset: start}, nil
}

// readFull reads an element's payload, starting right after its header
// (offset + header length, tracked implicitly via it.pos), rewinding on
// EOF so a retry re-reads the whole tag including its header.
func (it *Iterator) readFull(tagStart int64, data []byte) error {
	cr := &countingReader{r: it.src, n: &it.pos}
	if _, err := io.ReadFull(cr, data); err != nil {
		it.rewindTo(tagStart)
		return classifyErr(err)
	}
	return nil
}

func (it *Iterator) rewindTo(relPos int64) {
	if _, err := it.src.Seek(it.basePos+relPos, io.SeekStart); err == nil {
		it.pos = relPos
	}
}

func classifyErr(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ErrUnexpectedEOF
	}
	if errors.Is(err, ErrCorruptVint) {
		return ErrCorruptTag
	}
	return err
}

// countingReader tracks exactly how many bytes were read through it, so the
// Iterator can know precisely where each tag begins without assuming
// anything about src's own buffering.
type countingReader struct {
	r io.Reader
	n *int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	*c.n += int64(n)
	return n, err
}
