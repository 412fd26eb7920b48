// Package registry tracks which recording files currently have an active
// writer, and lets at most one Follower attach to a given file regardless of
// how many consumers subscribe to it.
//
// It intentionally knows nothing about internal/follower's concrete type:
// the Follower it stores is supplied by the caller as an opaque value (see
// AttachOrCreateFollower), which keeps registry and follower from importing
// each other even though the original design ("Registry owns an optional
// Follower reference; Follower polls Registry for activity") is naturally
// a two-way relationship.
package registry

import (
	"errors"
	"path/filepath"
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("registry")

// ErrAlreadyRecording is returned by Start when path already has an active
// writer registered.
var ErrAlreadyRecording = errors.New("registry: recording already active for path")

// ErrNotRecording reports that path has no active entry. Stop does not
// return it: Stop on a path with no entry does nothing.
var ErrNotRecording = errors.New("registry: no active recording for path")

// entry is one recording's bookkeeping: whether a writer currently owns it,
// and the Follower (if any) attached to it.
type entry struct {
	mu       sync.Mutex
	active   bool
	follower any
}

// Registry is a process-wide, mutex-guarded map from canonical recording
// path to its entry. The mutex is only ever held across map lookups/inserts,
// never across file or network I/O.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func (r *Registry) entryFor(path string, create bool) (*entry, error) {
	key, err := canonical(path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		if !create {
			return nil, nil
		}
		e = &entry{}
		r.entries[key] = e
	}
	return e, nil
}

// StopHandle releases a recording's active status exactly once, whether
// released explicitly via Close or (idiomatically) via defer. It plays the
// role the original implementation gave a Drop-triggered guard.
type StopHandle struct {
	path string
	reg  *Registry
	once sync.Once
}

// Close marks the recording at StopHandle's path inactive. Safe to call
// more than once; only the first call has any effect.
func (h *StopHandle) Close() error {
	h.once.Do(func() {
		h.reg.Stop(h.path)
	})
	return nil
}

// Start registers path as actively being written and returns a StopHandle
// the writer should Close (directly or via defer) when it finishes. It
// fails with ErrAlreadyRecording if another writer already holds path.
func (r *Registry) Start(path string) (*StopHandle, error) {
	e, err := r.entryFor(path, true)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return nil, ErrAlreadyRecording
	}
	e.active = true
	log.Infow("recording started", "path", path)
	return &StopHandle{path: path, reg: r}, nil
}

// Stop marks path inactive and removes its entry from the registry. A
// Follower polling IsActive for this path will see it become inactive on
// its very next check; it does not notify the Follower directly. Removing
// the entry here (rather than just flipping active to false and leaving it
// in the map forever) keeps a long-running daemon's registry bounded by the
// number of *currently relevant* recordings instead of every recording it
// has ever seen.
func (r *Registry) Stop(path string) {
	key, err := canonical(path)
	if err != nil {
		return
	}
	r.mu.Lock()
	e, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.active = false
	e.mu.Unlock()
	log.Infow("recording stopped", "path", path)
}

// IsActive reports whether path currently has a live writer registered.
func (r *Registry) IsActive(path string) bool {
	e, err := r.entryFor(path, false)
	if err != nil || e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// AttachOrCreateFollower returns the Follower already attached to path, or
// calls create to build one and attaches it if none exists yet. create's
// result is opaque to Registry; follower.Follower satisfies this by being
// any concrete type the caller chooses to store here.
//
// created reports whether create was invoked (true) or an existing
// attachment was reused (false).
func (r *Registry) AttachOrCreateFollower(path string, create func() (any, error)) (f any, created bool, err error) {
	e, err := r.entryFor(path, true)
	if err != nil {
		return nil, false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.follower != nil {
		return e.follower, false, nil
	}
	f, err = create()
	if err != nil {
		return nil, false, err
	}
	e.follower = f
	return f, true, nil
}

// DetachFollower clears path's attached Follower, if it matches f, so a
// later AttachOrCreateFollower creates a fresh one instead of reusing the
// old attachment. A Follower that shuts down does not call it; its
// attachment goes away when Stop removes the path's entry.
func (r *Registry) DetachFollower(path string, f any) {
	e, err := r.entryFor(path, false)
	if err != nil || e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.follower == f {
		e.follower = nil
	}
}
