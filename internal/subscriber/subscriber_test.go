package subscriber

import (
	"io"
	"testing"

	"github.com/irvingoujAtDevolution/webm-streamer/internal/matroska"
)

func TestSendHeaderThenClusterProducesValidPrelude(t *testing.T) {
	s := New(4)
	snap := &matroska.HeaderSnapshot{Tags: []matroska.Tag{
		{ID: matroska.IDEBML, Form: matroska.FormFull, Data: []byte{0x01}},
		{ID: matroska.IDSegment, Form: matroska.FormStart},
		{ID: matroska.IDInfo, Form: matroska.FormFull, Data: []byte{0x02}},
		{ID: matroska.IDTracks, Form: matroska.FormFull, Data: []byte{0x03}},
	}}
	if err := s.SendHeader(snap); err != nil {
		t.Fatalf("SendHeader: %v", err)
	}

	cluster := []matroska.Tag{
		{ID: matroska.IDCluster, Form: matroska.FormStart},
		{ID: matroska.IDTimestamp, Form: matroska.FormFull, Data: matroska.EncodeUint(5000)},
		{ID: matroska.IDSimpleBlock, Form: matroska.FormFull, Data: []byte{0xAA}},
		{ID: matroska.IDCluster, Form: matroska.FormEnd},
	}
	if err := s.SendCluster(cluster); err != nil {
		t.Fatalf("SendCluster: %v", err)
	}

	headerChunk := <-s.ch.ch
	clusterChunk := <-s.ch.ch

	it, err := matroska.NewIterator(&seekableBytes{data: headerChunk}, []matroska.ElementID{matroska.IDInfo, matroska.IDTracks})
	if err != nil {
		t.Fatalf("NewIterator(header): %v", err)
	}
	first, err := it.Next()
	if err != nil || first.ID != matroska.IDEBML {
		t.Fatalf("header chunk does not start with EBML: %+v %v", first, err)
	}

	ts := decodeClusterTimestamp(t, clusterChunk)
	if ts != 0 {
		t.Fatalf("single cluster's rebased timestamp = %d, want 0", ts)
	}
}

func TestSendClusterRebasesTimestampToFirstValueSeen(t *testing.T) {
	s := New(4)
	first := []matroska.Tag{
		{ID: matroska.IDCluster, Form: matroska.FormStart},
		{ID: matroska.IDTimestamp, Form: matroska.FormFull, Data: matroska.EncodeUint(10000)},
		{ID: matroska.IDCluster, Form: matroska.FormEnd},
	}
	second := []matroska.Tag{
		{ID: matroska.IDCluster, Form: matroska.FormStart},
		{ID: matroska.IDTimestamp, Form: matroska.FormFull, Data: matroska.EncodeUint(10040)},
		{ID: matroska.IDCluster, Form: matroska.FormEnd},
	}
	if err := s.SendCluster(first); err != nil {
		t.Fatalf("SendCluster #1: %v", err)
	}
	if err := s.SendCluster(second); err != nil {
		t.Fatalf("SendCluster #2: %v", err)
	}

	chunk1 := <-s.ch.ch
	chunk2 := <-s.ch.ch

	ts1 := decodeClusterTimestamp(t, chunk1)
	ts2 := decodeClusterTimestamp(t, chunk2)
	if ts1 != 0 {
		t.Fatalf("first cluster's rebased timestamp = %d, want 0", ts1)
	}
	if ts2 != 40 {
		t.Fatalf("second cluster's rebased timestamp = %d, want 40", ts2)
	}
}

func decodeClusterTimestamp(t *testing.T, data []byte) uint64 {
	t.Helper()
	it, err := matroska.NewIterator(&seekableBytes{data: data}, []matroska.ElementID{matroska.IDCluster})
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	tag, err := it.Next() // Cluster(Full)
	if err != nil {
		t.Fatalf("Next cluster: %v", err)
	}
	if tag.ID != matroska.IDCluster || tag.Form != matroska.FormFull {
		t.Fatalf("got %+v, want Cluster Full", tag)
	}
	inner, err := matroska.NewIterator(&seekableBytes{data: tag.Data}, nil)
	if err != nil {
		t.Fatalf("NewIterator(inner): %v", err)
	}
	child, err := inner.Next()
	if err != nil {
		t.Fatalf("Next timestamp: %v", err)
	}
	if child.ID != matroska.IDTimestamp {
		t.Fatalf("got %+v, want Timestamp", child)
	}
	return matroska.DecodeUint(child.Data)
}

// seekableBytes is a tiny io.ReadSeeker over an in-memory slice, used
// instead of bytes.Reader only to keep this test file import-light.
type seekableBytes struct {
	data []byte
	pos  int64
}

func (s *seekableBytes) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *seekableBytes) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.data)) + offset
	}
	return s.pos, nil
}
