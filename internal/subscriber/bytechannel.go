package subscriber

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by Send once the ByteChannel's reading side has
// gone away, so the producer (a Follower) knows to drop this subscriber
// instead of blocking on it forever.
var ErrClosed = errors.New("subscriber: byte channel closed")

// ByteChannel is a bounded, single-producer/single-consumer FIFO of byte
// chunks. Capacity is measured in chunks, not bytes, matching the original
// design's "bound the queue depth, accept that a chunk can be arbitrarily
// sized" tradeoff. A Send on a full channel blocks: this is what gives the
// follower loop backpressure against one slow subscriber without touching
// any other subscriber.
type ByteChannel struct {
	ch     chan []byte
	closed chan struct{}
	once   sync.Once
}

// NewByteChannel creates a ByteChannel that can hold up to capacity
// unread chunks before Send starts blocking.
func NewByteChannel(capacity int) *ByteChannel {
	return &ByteChannel{
		ch:     make(chan []byte, capacity),
		closed: make(chan struct{}),
	}
}

// Send enqueues data, blocking if the channel is full. It returns
// ErrClosed if the channel has been closed (by the consumer disconnecting)
// either before or while the send was blocked.
func (c *ByteChannel) Send(data []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.ch <- data:
		return nil
	case <-c.closed:
		return ErrClosed
	}
}

// Close marks the channel closed. Safe to call more than once and safe to
// call concurrently with Send; any Send blocked on a full buffer wakes up
// with ErrClosed.
func (c *ByteChannel) Close() {
	c.once.Do(func() { close(c.closed) })
}

// Reader adapts the ByteChannel to io.Reader for the consumer side (an
// HTTP/WebSocket handler pulling bytes to forward downstream), buffering
// the tail of a chunk that didn't fit in a single Read call.
type Reader struct {
	c   *ByteChannel
	buf bytes.Buffer
}

// NewReader wraps c for sequential reading.
func NewReader(c *ByteChannel) *Reader {
	return &Reader{c: c}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.buf.Len() > 0 {
		return r.buf.Read(p)
	}
	select {
	case chunk, ok := <-r.c.ch:
		if !ok {
			return 0, io.EOF
		}
		r.buf.Write(chunk)
		return r.buf.Read(p)
	case <-r.c.closed:
		// Drain any chunks already queued before honoring the close.
		select {
		case chunk := <-r.c.ch:
			r.buf.Write(chunk)
			return r.buf.Read(p)
		default:
			return 0, io.EOF
		}
	}
}
