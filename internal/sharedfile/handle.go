// Package sharedfile opens a recording file the way a tailing reader needs
// to: concurrently with whatever process is still appending to it, and
// reopenable at an arbitrary offset when the platform's notion of EOF on an
// already-open handle doesn't reliably track a writer's progress.
package sharedfile

import (
	"io"
	"os"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("sharedfile")

// Handle is a read-only view of a file that can be reopened at a new
// absolute offset without the caller needing to care whether that requires
// closing and reopening the underlying descriptor.
//
// Go's os.Open already requests sharing flags permissive enough to read a
// file a writer still has open (on POSIX this is implicit; on Windows the
// runtime opens with FILE_SHARE_READ|FILE_SHARE_WRITE|FILE_SHARE_DELETE by
// default), so no platform-specific open flags are needed here the way the
// original implementation needed them.
type Handle struct {
	path string
	f    *os.File
}

// Open opens path for reading from its start.
func Open(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Handle{path: path, f: f}, nil
}

// Path returns the path this Handle was opened against.
func (h *Handle) Path() string { return h.path }

func (h *Handle) Read(p []byte) (int, error) {
	return h.f.Read(p)
}

func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	return h.f.Seek(offset, whence)
}

// Size returns the file's current size according to stat, independent of
// how far the Handle has read.
func (h *Handle) Size() (int64, error) {
	fi, err := h.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// ReopenAt closes the current descriptor and opens a fresh one at offset.
// This is the primitive every reseek in the follower loop is built on: a
// brand new os.File whose read position starts exactly at offset, so a
// fresh matroska.Iterator constructed over it has simple, origin-zero
// offset accounting.
func (h *Handle) ReopenAt(offset int64) error {
	if err := h.f.Close(); err != nil {
		log.Warnw("closing handle before reopen", "path", h.path, "err", err)
	}
	f, err := os.Open(h.path)
	if err != nil {
		return err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return err
	}
	h.f = f
	return nil
}

// Close releases the underlying descriptor.
func (h *Handle) Close() error {
	return h.f.Close()
}
