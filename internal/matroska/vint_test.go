package matroska

import (
	"bytes"
	"io"
	"testing"
)

func TestEncodeDecodeSizeRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 126, 127, 128, 16383, 16384, 2097150, 268435454, 1 << 40}
	for _, v := range cases {
		enc := EncodeSize(v)
		got, _, unknown, err := DecodeSize(bytes.NewReader(enc))
		if err != nil {
			t.Fatalf("DecodeSize(%d): %v", v, err)
		}
		if unknown {
			t.Fatalf("EncodeSize(%d) round-tripped as unknown", v)
		}
		if got != v {
			t.Fatalf("EncodeSize(%d) round-tripped as %d", v, got)
		}
	}
}

func TestEncodeUnknownSize(t *testing.T) {
	enc := EncodeUnknownSize()
	if len(enc) != 8 || enc[0] != 0x01 {
		t.Fatalf("unexpected unknown-size encoding: % x", enc)
	}
	_, width, unknown, err := DecodeSize(bytes.NewReader(enc))
	if err != nil {
		t.Fatalf("DecodeSize: %v", err)
	}
	if !unknown || width != 8 {
		t.Fatalf("DecodeSize(unknown sentinel) = width %d unknown %v, want 8 true", width, unknown)
	}
}

func TestEncodeDecodeIDRoundTrip(t *testing.T) {
	ids := []ElementID{IDEBML, IDSegment, IDCluster, IDSimpleBlock, IDTimestamp, IDTrackEntry}
	for _, id := range ids {
		enc := EncodeID(id)
		got, _, err := DecodeID(bytes.NewReader(enc))
		if err != nil {
			t.Fatalf("DecodeID(%v): %v", id, err)
		}
		if got != id {
			t.Fatalf("EncodeID(%v) round-tripped as %v", id, got)
		}
	}
}

func TestEncodeDecodeUint(t *testing.T) {
	cases := []uint64{0, 1, 255, 256, 65535, 1 << 32}
	for _, v := range cases {
		enc := EncodeUint(v)
		got := DecodeUint(enc)
		if got != v {
			t.Fatalf("EncodeUint(%d) round-tripped as %d (% x)", v, got, enc)
		}
	}
}

func TestDecodeSizeShortRead(t *testing.T) {
	_, _, _, err := DecodeSize(bytes.NewReader(nil))
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("DecodeSize(empty) = %v, want io.ErrUnexpectedEOF", err)
	}
}
