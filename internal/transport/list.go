package transport

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListDeps are the collaborators the directory-listing and file-serving
// handlers need.
type ListDeps struct {
	RecordingsDir string
}

type recordingInfo struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Created string `json:"created"`
}

// HandleList responds with every *.webm file under RecordingsDir, sorted by
// last-modification time descending (most recent first). File creation time
// is not read: the "created" field also carries the modification time.
func (d ListDeps) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(d.RecordingsDir)
	if err != nil {
		marshalErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	var recs []recordingInfo
	var modTimes []int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".webm") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		recs = append(recs, recordingInfo{
			Name:    e.Name(),
			Size:    info.Size(),
			Created: info.ModTime().Format("2006-01-02T15:04:05Z07:00"),
		})
		modTimes = append(modTimes, info.ModTime().UnixNano())
	}

	order := make([]int, len(recs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return modTimes[order[i]] > modTimes[order[j]] })
	sorted := make([]recordingInfo, len(recs))
	for i, k := range order {
		sorted[i] = recs[k]
	}
	recs = sorted

	writeJSON(w, http.StatusOK, recs)
}

// HandleFile serves a finished recording as a ranged static file. Range
// support is handled by the standard library's ServeContent rather than a
// bespoke responder: the streaming core of this project is the live
// follower/subscriber path, and ranged access to an already-complete file
// is exactly the kind of request net/http already answers correctly.
func (d ListDeps) HandleFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		http.Error(w, "invalid name parameter", http.StatusBadRequest)
		return
	}
	path := filepath.Join(d.RecordingsDir, name)

	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeForPath(name))
	http.ServeContent(w, r, name, fi.ModTime(), f)
}
