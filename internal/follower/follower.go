// Package follower tails a single growing WebM recording and fans its
// Clusters out to any number of Subscribers, each receiving the same
// HeaderSnapshot followed by every Cluster published from the point it
// attached onward.
package follower

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	logging "github.com/ipfs/go-log/v2"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/matroska"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/registry"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/sharedfile"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/subscriber"
)

var log = logging.Logger("follower")

// activityChecker is the one thing a Follower needs from a Registry; kept
// as a narrow interface so tests can fake it without constructing a real
// Registry.
type activityChecker interface {
	IsActive(path string) bool
}

// Follower owns one recording file's read side. Construct it via New, which
// blocks just long enough to capture the header snapshot synchronously
// (so a caller can report a capture failure immediately), then runs its
// cluster loop on a dedicated goroutine for the rest of its life.
type Follower struct {
	path         string
	reg          activityChecker
	pollInterval time.Duration

	header *matroska.HeaderSnapshot

	mu   sync.Mutex
	subs map[*subscriber.Subscriber]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// Option configures a Follower at construction time.
type Option func(*Follower)

// WithPollInterval overrides the fallback poll interval used when fsnotify
// doesn't fire a prompt wakeup (or isn't available on the platform).
func WithPollInterval(d time.Duration) Option {
	return func(f *Follower) { f.pollInterval = d }
}

// New opens path, captures its header snapshot, and starts tailing it in
// the background. reg is consulted to decide whether a read-side EOF means
// "wait, the writer just hasn't flushed yet" or "the writer is done".
func New(path string, reg *registry.Registry, opts ...Option) (*Follower, error) {
	h, err := sharedfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("follower: open %s: %w", path, err)
	}

	snap, clusterOffset, err := matroska.CaptureHeader(h)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("follower: capture header for %s: %w", path, err)
	}

	f := &Follower{
		path:         path,
		reg:          reg,
		pollInterval: 250 * time.Millisecond,
		header:       snap,
		subs:         make(map[*subscriber.Subscriber]struct{}),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	go f.run(h, clusterOffset)
	return f, nil
}

// Header returns the snapshot captured when this Follower started.
func (f *Follower) Header() *matroska.HeaderSnapshot {
	return f.header
}

// Done is closed once the follower's loop has exited, whether because the
// recording finished gracefully, it hit a fatal decode error, or Close was
// called. Every subscriber still attached when the loop exits is closed, so
// its reader returns EOF after the chunks already queued.
func (f *Follower) Done() <-chan struct{} {
	return f.done
}

// Close stops the follower's loop at its next wait point.
func (f *Follower) Close() {
	f.stopOnce.Do(func() { close(f.stopCh) })
}

// Attach sends sub the current header snapshot and registers it to receive
// every Cluster published after this call returns. A subscriber that
// attaches mid-stream never receives Clusters published before it attached.
func (f *Follower) Attach(sub *subscriber.Subscriber) error {
	if err := sub.SendHeader(f.header); err != nil {
		return fmt.Errorf("follower: send header: %w", err)
	}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return nil
}

// Detach removes sub from the fan-out set.
func (f *Follower) Detach(sub *subscriber.Subscriber) {
	f.mu.Lock()
	delete(f.subs, sub)
	f.mu.Unlock()
}

func (f *Follower) run(h *sharedfile.Handle, startOffset int64) {
	defer h.Close()
	defer close(f.done)
	defer func() {
		f.mu.Lock()
		for s := range f.subs {
			s.Close()
		}
		f.mu.Unlock()
	}()

	watcher, werr := fsnotify.NewWatcher()
	if werr == nil {
		if err := watcher.Add(filepath.Dir(f.path)); err != nil {
			log.Warnw("fsnotify watch failed, falling back to polling", "path", f.path, "err", err)
		}
		defer watcher.Close()
	} else {
		log.Warnw("fsnotify unavailable, falling back to polling", "err", werr)
	}

	cur := cursor{abs: startOffset}

	for {
		if err := h.ReopenAt(cur.value()); err != nil {
			log.Errorw("reopen failed", "path", f.path, "err", err)
			return
		}
		it, err := matroska.NewIterator(h, nil)
		if err != nil {
			log.Errorw("iterator construction failed", "path", f.path, "err", err)
			return
		}

		tags, peekOffset, terminal, err := f.consumeCluster(it, watcher)
		if err != nil {
			if !errors.Is(err, errStopped) {
				log.Errorw("fatal decode error", "path", f.path, "err", err)
			}
			return
		}
		if len(tags) > 0 {
			f.publish(tags)
		}
		if terminal {
			log.Infow("recording finished, follower stopping", "path", f.path)
			return
		}

		cur.advance(peekOffset)

		select {
		case <-f.stopCh:
			return
		default:
		}
	}
}

// consumeCluster reads one Cluster's Start through its synthesized End,
// then peeks at what follows to decide whether that boundary is real (the
// next Cluster has started) or just the tail of a file still being
// written. peekOffset is the relative offset, within it's own source, of
// the peeked-at next Cluster(Start) — the value the caller should fold
// into its absolute cursor before reseeking. terminal is true when the
// writer has stopped and this was the last cluster in the file.
//
// A recording's very last Cluster never gets a sibling to trigger the
// synthetic End the way every earlier Cluster does, so there is nothing to
// peek past. When the registry reports the recording inactive while this
// loop is still waiting on more children, this function finalizes
// whatever was accumulated as the terminal cluster rather than waiting
// forever for an End that will never come.
func (f *Follower) consumeCluster(it *matroska.Iterator, watcher *fsnotify.Watcher) (tags []matroska.Tag, peekOffset int64, terminal bool, err error) {
	for {
		tag, nerr := it.Next()
		if nerr != nil {
			if errors.Is(nerr, matroska.ErrUnexpectedEOF) {
				if !f.reg.IsActive(f.path) {
					tags = append(tags, matroska.Tag{ID: matroska.IDCluster, Form: matroska.FormEnd})
					return tags, 0, true, nil
				}
				if !f.wait(watcher) {
					return nil, 0, false, errStopped
				}
				continue
			}
			return nil, 0, false, nerr
		}
		tags = append(tags, tag)
		if tag.ID == matroska.IDCluster && tag.Form == matroska.FormEnd {
			break
		}
	}

	for {
		tag, nerr := it.Next()
		if nerr == nil {
			if tag.ID == matroska.IDCluster && tag.Form == matroska.FormStart {
				return tags, tag.Offset, false, nil
			}
			return nil, 0, false, matroska.ErrCorruptTag
		}
		if !errors.Is(nerr, matroska.ErrUnexpectedEOF) {
			return nil, 0, false, nerr
		}
		if f.reg.IsActive(f.path) {
			if !f.wait(watcher) {
				return nil, 0, false, errStopped
			}
			continue
		}
		return tags, 0, true, nil
	}
}

var errStopped = errors.New("follower: stopped")

// wait blocks until a write is observed (via fsnotify, if available), the
// poll interval elapses, or Close is called. It returns false only in the
// Close case, telling the caller to give up.
func (f *Follower) wait(watcher *fsnotify.Watcher) bool {
	var events <-chan fsnotify.Event
	if watcher != nil {
		events = watcher.Events
	}
	select {
	case <-events:
		return true
	case <-time.After(f.pollInterval):
		return true
	case <-f.stopCh:
		return false
	}
}

// publish forwards one fully-accumulated cluster to every attached
// subscriber. Each subscriber's Send is a blocking call on its own
// ByteChannel and publish runs on the follower's own goroutine, so a
// subscriber with a full channel holds up delivery to the subscribers after
// it and the parsing of the next cluster until it drains; a full channel
// never causes data loss the way a drop-on-full broadcast would.
func (f *Follower) publish(tags []matroska.Tag) {
	f.mu.Lock()
	targets := make([]*subscriber.Subscriber, 0, len(f.subs))
	for s := range f.subs {
		targets = append(targets, s)
	}
	f.mu.Unlock()

	for _, s := range targets {
		if err := s.SendCluster(tags); err != nil {
			log.Debugw("dropping subscriber", "path", f.path, "subscriber", s.ID, "err", err)
			f.Detach(s)
			s.Close()
		}
	}
}
