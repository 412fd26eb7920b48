package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/registry"
)

func TestHandleStreamFallsBackWhenRecordingInactive(t *testing.T) {
	called := false
	d := StreamDeps{
		Registry:      registry.New(),
		RecordingPath: func(name string) string { return name },
		Fallback: func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/jrec/stream?name=finished.webm", nil)
	rec := httptest.NewRecorder()
	d.HandleStream(rec, req)

	if !called {
		t.Fatal("expected Fallback to be invoked for an inactive recording")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleStreamRequiresNameParameter(t *testing.T) {
	d := StreamDeps{Registry: registry.New()}
	req := httptest.NewRequest(http.MethodGet, "/jrec/stream", nil)
	rec := httptest.NewRecorder()
	d.HandleStream(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
