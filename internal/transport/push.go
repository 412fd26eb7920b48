package transport

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/registry"
)

// PushDeps are the collaborators the upstream ingest handler needs.
type PushDeps struct {
	Registry      *registry.Registry
	RecordingsDir string
}

// recordingFileName formats a filename the way recordings have always been
// named: DD_HH_MM_SS.webm in local time.
func recordingFileName(now time.Time) string {
	return fmt.Sprintf("%02d_%02d_%02d_%02d.webm", now.Day(), now.Hour(), now.Minute(), now.Second())
}

// HandlePush upgrades the request to a WebSocket, creates a new recording
// file, registers it with the registry as active for the duration of the
// connection, and copies every binary message it receives straight to
// disk. The registry's StopHandle is released (making the recording
// eligible for a follower's graceful EOF) as soon as the client
// disconnects, regardless of why.
func (d PushDeps) HandlePush(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		streamLog.Warnw("push upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	if err := os.MkdirAll(d.RecordingsDir, 0o755); err != nil {
		streamLog.Errorw("mkdir recordings dir failed", "err", err)
		return
	}

	name := recordingFileName(time.Now())
	path := filepath.Join(d.RecordingsDir, name)

	f, err := os.Create(path)
	if err != nil {
		streamLog.Errorw("create recording file failed", "path", path, "err", err)
		return
	}
	defer f.Close()

	stopHandle, err := d.Registry.Start(path)
	if err != nil {
		streamLog.Errorw("registry.Start failed", "path", path, "err", err)
		return
	}
	defer stopHandle.Close()

	streamLog.Infow("recording started", "name", name, "path", path)

	// Diagnostic line only: tells the client which filename the server
	// chose. Not part of the recording itself.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(name)); err != nil {
		streamLog.Warnw("failed to write filename diagnostic", "name", name, "err", err)
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			streamLog.Infow("push connection closed", "name", name, "err", err)
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if _, err := f.Write(data); err != nil {
			streamLog.Errorw("write to recording file failed", "name", name, "err", err)
			return
		}
	}
}
