package transport

import (
	"mime"
	"path"
	"strings"
)

// contentTypeForPath returns a browser-safe Content-Type for a recording
// file, overriding sniffing for the extensions that matter to this daemon.
func contentTypeForPath(rel string) string {
	switch strings.ToLower(path.Ext(rel)) {
	case ".webm":
		return "video/webm"
	case ".json":
		return "application/json; charset=utf-8"
	}
	if mt := mime.TypeByExtension(path.Ext(rel)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
