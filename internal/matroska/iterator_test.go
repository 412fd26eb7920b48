package matroska

import (
	"bytes"
	"testing"
)

// buildStream writes a minimal EBML/Segment/Info/Tracks prelude followed by
// two Clusters, each holding a Timestamp and a SimpleBlock, matching the
// shape a real WebM writer produces while still streaming (Segment and
// Cluster both unknown-sized).
func buildStream(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	must(w.WriteTag(Tag{ID: IDEBML, Form: FormFull, Data: []byte{0x01}}))
	must(w.WriteTag(Tag{ID: IDSegment, Form: FormStart}))
	must(w.WriteTag(Tag{ID: IDInfo, Form: FormFull, Data: []byte{0x02}}))
	must(w.WriteTag(Tag{ID: IDTracks, Form: FormFull, Data: []byte{0x03}}))

	writeCluster := func(ts uint64, block []byte) {
		must(w.WriteTag(Tag{ID: IDCluster, Form: FormStart}))
		must(w.WriteTag(Tag{ID: IDTimestamp, Form: FormFull, Data: EncodeUint(ts)}))
		must(w.WriteTag(Tag{ID: IDSimpleBlock, Form: FormFull, Data: block}))
	}
	writeCluster(1000, []byte{0xAA, 0xBB})
	writeCluster(1040, []byte{0xCC, 0xDD})

	return buf.Bytes()
}

func TestCaptureHeaderStopsBeforeFirstCluster(t *testing.T) {
	data := buildStream(t)
	snap, offset, err := CaptureHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("CaptureHeader: %v", err)
	}
	if len(snap.Tags) != 4 {
		t.Fatalf("got %d header tags, want 4: %+v", len(snap.Tags), snap.Tags)
	}
	if snap.Tags[0].ID != IDEBML || snap.Tags[0].Form != FormFull {
		t.Fatalf("tag 0 = %+v, want EBML Full", snap.Tags[0])
	}
	if snap.Tags[1].ID != IDSegment || snap.Tags[1].Form != FormStart {
		t.Fatalf("tag 1 = %+v, want Segment Start", snap.Tags[1])
	}
	if snap.Tags[3].ID != IDTracks || snap.Tags[3].Form != FormFull {
		t.Fatalf("tag 3 = %+v, want Tracks Full", snap.Tags[3])
	}

	// offset should point exactly at the first Cluster header.
	r := bytes.NewReader(data)
	if _, err := r.Seek(offset, 0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	id, _, err := DecodeID(r)
	if err != nil {
		t.Fatalf("DecodeID at offset: %v", err)
	}
	if id != IDCluster {
		t.Fatalf("byte at captured offset is %v, want Cluster", id)
	}
}

func TestClusterLoopSiblingBoundary(t *testing.T) {
	data := buildStream(t)
	_, offset, err := CaptureHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("CaptureHeader: %v", err)
	}

	src := bytes.NewReader(data)
	if _, err := src.Seek(offset, 0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	it, err := NewIterator(src, nil)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}

	want := []struct {
		id   ElementID
		form MasterForm
	}{
		{IDCluster, FormStart},
		{IDTimestamp, FormFull},
		{IDSimpleBlock, FormFull},
		{IDCluster, FormEnd},
		{IDCluster, FormStart}, // the peek into the second cluster
	}
	for i, w := range want {
		tag, err := it.Next()
		if err != nil {
			t.Fatalf("Next() #%d: %v", i, err)
		}
		if tag.ID != w.id || tag.Form != w.form {
			t.Fatalf("Next() #%d = {%v %v}, want {%v %v}", i, tag.ID, tag.Form, w.id, w.form)
		}
	}
}

func buildTruncatedStream(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	must(w.WriteTag(Tag{ID: IDEBML, Form: FormFull, Data: []byte{0x01}}))
	must(w.WriteTag(Tag{ID: IDSegment, Form: FormStart}))
	must(w.WriteTag(Tag{ID: IDInfo, Form: FormFull, Data: []byte{0x02}}))
	must(w.WriteTag(Tag{ID: IDTracks, Form: FormFull, Data: []byte{0x03}}))
	must(w.WriteTag(Tag{ID: IDCluster, Form: FormStart}))
	must(w.WriteTag(Tag{ID: IDTimestamp, Form: FormFull, Data: EncodeUint(1000)}))

	// Write a SimpleBlock header declaring 5 bytes of payload, but only
	// actually write 2 of them, as if the writer flushed mid-element.
	buf.Write(EncodeID(IDSimpleBlock))
	buf.Write(EncodeSize(5))
	buf.Write([]byte{0xAA, 0xBB})

	return buf.Bytes()
}

func TestClusterLoopUnexpectedEOFIsRetryable(t *testing.T) {
	data := buildTruncatedStream(t)
	_, offset, err := CaptureHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("CaptureHeader: %v", err)
	}

	src := bytes.NewReader(data)
	if _, err := src.Seek(offset, 0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	it, err := NewIterator(src, nil)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	if _, err := it.Next(); err != nil { // Cluster(Start)
		t.Fatalf("Next() Cluster(Start): %v", err)
	}
	if _, err := it.Next(); err != nil { // Timestamp
		t.Fatalf("Next() Timestamp: %v", err)
	}
	if _, err := it.Next(); err != ErrUnexpectedEOF { // SimpleBlock, truncated
		t.Fatalf("Next() on truncated tag = %v, want ErrUnexpectedEOF", err)
	}
	// Retrying against the same truncated source must keep failing the
	// same way, not corrupt state or advance past the truncation point.
	if _, err := it.Next(); err != ErrUnexpectedEOF {
		t.Fatalf("retry Next() = %v, want ErrUnexpectedEOF", err)
	}
}
