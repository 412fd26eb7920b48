package transport

import (
	"net/http"
	"path/filepath"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/diagnostics"
	"github.com/irvingoujAtDevolution/webm-streamer/internal/registry"
)

// Deps bundles everything Register needs to wire the daemon's HTTP surface,
// mirroring the teacher's own routes.Deps dependency-injection struct.
type Deps struct {
	Registry                  *registry.Registry
	RecordingsDir             string
	SubscriberChannelCapacity int
	Logs                      *diagnostics.LogBuffer
}

func (d Deps) recordingPath(name string) string {
	return filepath.Join(d.RecordingsDir, filepath.Base(name))
}

// Register wires every route this project's wire contract defines onto mux.
func Register(mux *http.ServeMux, d Deps) {
	push := PushDeps{Registry: d.Registry, RecordingsDir: d.RecordingsDir}
	list := ListDeps{RecordingsDir: d.RecordingsDir}
	stream := StreamDeps{
		Registry:        d.Registry,
		RecordingPath:   d.recordingPath,
		ChannelCapacity: d.SubscriberChannelCapacity,
		Fallback:        list.HandleFile,
	}

	mux.HandleFunc("/jrec/push", push.HandlePush)
	mux.HandleFunc("/jrec/stream", noCache(stream.HandleStream))
	mux.HandleFunc("/jrec/list", noCache(list.HandleList))
	mux.HandleFunc("/jrec/file", list.HandleFile)

	if d.Logs != nil {
		mux.HandleFunc("/jrec/logs", d.Logs.ServeJSON)
		mux.HandleFunc("/jrec/logs/stream", d.Logs.ServeSSE)
	}
}
