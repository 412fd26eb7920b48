// Package subscriber implements the per-consumer side of fanning a
// Follower's Clusters out to many readers: rewriting each subscriber's
// timestamps onto its own origin and re-encoding Clusters as ordinary
// known-size Matroska elements before handing the bytes to a bounded,
// per-subscriber ByteChannel.
package subscriber

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/matroska"
)

// Subscriber is one consumer attached to a Follower. It owns a ByteChannel
// and rewrites every tag it forwards so that, read from the start, the
// byte stream it produces is itself a valid, self-contained WebM file.
type Subscriber struct {
	ID string

	ch *ByteChannel

	timeOriginSet bool
	timeOrigin    uint64
}

// New creates a Subscriber with a freshly generated ID and a ByteChannel of
// the given chunk capacity.
func New(capacity int) *Subscriber {
	return &Subscriber{
		ID: uuid.NewString(),
		ch: NewByteChannel(capacity),
	}
}

// Reader returns an io.Reader a transport handler can pull bytes from.
func (s *Subscriber) Reader() *Reader {
	return NewReader(s.ch)
}

// Close disconnects the subscriber; any Follower still holding a reference
// to it will see its next Send fail with ErrClosed and drop it.
func (s *Subscriber) Close() {
	s.ch.Close()
}

// SendHeader writes a HeaderSnapshot as a single chunk: the EBML header,
// Segment(Start) with the unknown-size sentinel, Info, and Tracks, exactly
// as they were captured. Every subscriber receives the same snapshot
// regardless of when it attached.
func (s *Subscriber) SendHeader(snap *matroska.HeaderSnapshot) error {
	var buf bytes.Buffer
	w := matroska.NewWriter(&buf)
	for _, tag := range snap.Tags {
		if err := w.WriteTag(tag); err != nil {
			return err
		}
	}
	return s.ch.Send(buf.Bytes())
}

// SendCluster re-encodes one fully-accumulated cluster (the Cluster(Start)
// tag, its children, and the terminating Cluster(End) tag) as a single
// known-size Cluster element and forwards it as one chunk.
//
// The Timestamp child is rewritten relative to this subscriber's own
// origin: the first Timestamp value it ever sees becomes that origin
// (saturating-subtraction baseline), and every later Timestamp is
// saturating_sub(t, origin). The origin is captured once, as a plain field
// on this Subscriber, which is owned exclusively by the Follower's single
// publishing goroutine — there is no concurrent writer to race with, unlike
// the atomic-based original which re-stored the origin on every tag and
// could, under contention, clobber it back to a stale value.
func (s *Subscriber) SendCluster(tags []matroska.Tag) error {
	var body bytes.Buffer
	bw := matroska.NewWriter(&body)

	for _, tag := range tags {
		switch {
		case tag.ID == matroska.IDCluster:
			// Start/End bracket the cluster itself; swallowed here since
			// the whole thing is re-wrapped as one FormFull element below.
			continue
		case tag.ID == matroska.IDTimestamp:
			rebased := s.rebaseTimestamp(tag)
			if err := bw.WriteTag(rebased); err != nil {
				return err
			}
		default:
			if err := bw.WriteTag(tag); err != nil {
				return err
			}
		}
	}

	var out bytes.Buffer
	ow := matroska.NewWriter(&out)
	clusterTag := matroska.Tag{ID: matroska.IDCluster, Form: matroska.FormFull, Data: body.Bytes()}
	if err := ow.WriteTag(clusterTag); err != nil {
		return err
	}
	return s.ch.Send(out.Bytes())
}

func (s *Subscriber) rebaseTimestamp(tag matroska.Tag) matroska.Tag {
	v := matroska.DecodeUint(tag.Data)
	if !s.timeOriginSet {
		s.timeOrigin = v
		s.timeOriginSet = true
	}
	var rebased uint64
	if v > s.timeOrigin {
		rebased = v - s.timeOrigin
	}
	return matroska.Tag{ID: tag.ID, Form: matroska.FormFull, Data: matroska.EncodeUint(rebased)}
}
