package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	logging "github.com/ipfs/go-log/v2"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/follower"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/matroska"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/registry"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/subscriber"
)

var streamLog = logging.Logger("transport")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamDeps are the collaborators the downstream streaming handler needs.
type StreamDeps struct {
	Registry        *registry.Registry
	RecordingPath   func(name string) string
	ChannelCapacity int

	// Fallback serves a recording that has no active writer (finished, or
	// never tracked by this process's registry) as a plain ranged file,
	// per spec.md §4.6: "if no entry exists ... the caller falls back to
	// serving the static file from disk."
	Fallback http.HandlerFunc
}

// HandleStream upgrades the request to a WebSocket and attaches a fresh
// Subscriber to the named recording's Follower (creating the Follower if
// this is the first consumer), then services Pull/Stop requests until the
// client disconnects or the recording finishes. Recordings with no active
// writer are handed to Fallback instead of spinning up a Follower that
// would just observe graceful EOF immediately; so are recordings whose
// header capture fails with matroska.ErrUnexpectedPrelude.
func (d StreamDeps) HandleStream(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}
	path := d.RecordingPath(name)

	if !d.Registry.IsActive(path) {
		if d.Fallback != nil {
			d.Fallback(w, r)
			return
		}
		http.Error(w, "recording unavailable", http.StatusNotFound)
		return
	}

	raw, _, err := d.Registry.AttachOrCreateFollower(path, func() (any, error) {
		return follower.New(path, d.Registry)
	})
	if err != nil {
		if errors.Is(err, matroska.ErrUnexpectedPrelude) && d.Fallback != nil {
			d.Fallback(w, r)
			return
		}
		http.Error(w, "recording unavailable: "+err.Error(), http.StatusNotFound)
		return
	}
	fl, ok := raw.(*follower.Follower)
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		streamLog.Warnw("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sub := subscriber.New(d.ChannelCapacity)
	if err := fl.Attach(sub); err != nil {
		streamLog.Errorw("attach failed", "name", name, "err", err)
		return
	}
	defer fl.Detach(sub)
	defer sub.Close()

	reader := sub.Reader()
	var offset int64

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		size, stop, err := parseClientRequest(raw)
		if err != nil {
			streamLog.Debugw("bad client request", "err", err)
			continue
		}
		if stop {
			return
		}

		buf := make([]byte, size)
		n, rerr := reader.Read(buf)
		if n > 0 {
			var frame bytes.Buffer
			meta := chunkMetadata{ChunkSize: int64(n), Offset: offset, TotalSize: 0}
			if err := WriteChunk(&frame, meta, buf[:n]); err != nil {
				streamLog.Errorw("frame encode failed", "err", err)
				return
			}
			offset += int64(n)
			if err := conn.WriteMessage(websocket.BinaryMessage, frame.Bytes()); err != nil {
				return
			}
		}
		if rerr != nil {
			var eof bytes.Buffer
			WriteEOF(&eof)
			conn.WriteMessage(websocket.BinaryMessage, eof.Bytes())
			return
		}
	}
}

// marshalErr is a tiny helper used by handlers that need to report a
// structured error to a client instead of a bare http.Error string.
func marshalErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
