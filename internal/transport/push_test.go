package transport

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/registry"
)

func TestHandlePushWritesDiagnosticFilenameThenCopiesBytes(t *testing.T) {
	dir := t.TempDir()
	d := PushDeps{Registry: registry.New(), RecordingsDir: dir}

	srv := httptest.NewServer(http.HandlerFunc(d.HandlePush))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, name, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read diagnostic message: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("diagnostic message type = %d, want TextMessage", msgType)
	}
	if !strings.HasSuffix(string(name), ".webm") {
		t.Fatalf("diagnostic name = %q, want *.webm", name)
	}

	payload := []byte("fake-webm-bytes")
	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	conn.Close()

	time.Sleep(100 * time.Millisecond)

	got, err := os.ReadFile(filepath.Join(dir, string(name)))
	if err != nil {
		t.Fatalf("read recorded file: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("recorded bytes = %q, want %q", got, payload)
	}
}
