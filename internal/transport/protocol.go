// Package transport implements the thin HTTP/WebSocket surface in front of
// the registry and follower: upstream recording ingest, downstream
// streaming with the wire framing below, a directory listing, and a ranged
// static-file fallback for finished recordings.
package transport

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
)

// responseType is the single leading byte of every server→client message on
// the downstream streaming socket.
type responseType byte

const (
	respChunk responseType = 0
	respEOF   responseType = 1
)

// chunkMetadata is the JSON object written immediately after the type byte
// and its 4-byte big-endian length for a Chunk message.
type chunkMetadata struct {
	ChunkSize int64 `json:"chunk_size"`
	Offset    int64 `json:"offset"`
	TotalSize int64 `json:"total_size"`
}

// WriteChunk frames one Chunk message: 1 byte type (0), a 4-byte
// big-endian metadata length, the JSON metadata, then the raw payload.
func WriteChunk(w io.Writer, meta chunkMetadata, payload []byte) error {
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(respChunk)}); err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(metaBytes)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(metaBytes); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// WriteEOF frames the single-byte EOF message.
func WriteEOF(w io.Writer) error {
	_, err := w.Write([]byte{byte(respEOF)})
	return err
}

// clientRequest is the inbound JSON shape sent by a downstream consumer:
// either {"type":"pull","size":N} or {"type":"stop"}.
type clientRequest struct {
	Type string `json:"type"`
	Size *int   `json:"size,omitempty"`
}

const defaultPullSize = 1 << 20 // 1 MiB, per the streaming contract's documented default

var errUnknownRequestType = errors.New("transport: unknown client request type")

// parseClientRequest decodes one inbound JSON message, returning the
// requested pull size (falling back to defaultPullSize) or reporting a
// stop request.
func parseClientRequest(raw []byte) (pullSize int, stop bool, err error) {
	var req clientRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return 0, false, err
	}
	switch req.Type {
	case "pull":
		if req.Size != nil && *req.Size > 0 {
			return *req.Size, false, nil
		}
		return defaultPullSize, false, nil
	case "stop":
		return 0, true, nil
	default:
		return 0, false, errUnknownRequestType
	}
}
