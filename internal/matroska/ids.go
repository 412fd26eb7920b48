// Package matroska implements just enough of EBML/Matroska to tail-parse a
// growing WebM file and re-encode the tags it yields. It is not a general
// purpose demuxer: the element table below only carries the IDs this project
// actually touches (header elements, clusters, simple blocks).
package matroska

import "fmt"

// ElementID is a raw EBML element ID, marker bit included. EBML IDs keep
// their VINT marker bit as part of the identity of the element, unlike size
// fields where the marker bit is stripped during decode.
type ElementID uint32

const (
	IDEBML         ElementID = 0x1A45DFA3
	IDEBMLVersion  ElementID = 0x4286
	IDEBMLReadVer  ElementID = 0x42F7
	IDEBMLMaxIDLen ElementID = 0x42F2
	IDEBMLMaxSzLen ElementID = 0x42F3
	IDDocType      ElementID = 0x4282
	IDDocTypeVer   ElementID = 0x4287
	IDDocTypeRdVer ElementID = 0x4285

	IDSegment ElementID = 0x18538067

	IDInfo           ElementID = 0x1549A966
	IDTimestampScale ElementID = 0x2AD7B1
	IDMuxingApp      ElementID = 0x4D80
	IDWritingApp     ElementID = 0x5741
	IDDuration       ElementID = 0x4489

	IDTracks        ElementID = 0x1654AE6B
	IDTrackEntry    ElementID = 0xAE
	IDTrackNumber   ElementID = 0xD7
	IDTrackUID      ElementID = 0x73C5
	IDTrackType     ElementID = 0x83
	IDCodecID       ElementID = 0x86
	IDCodecPrivate  ElementID = 0x63A2
	IDVideo         ElementID = 0xE0
	IDPixelWidth    ElementID = 0xB0
	IDPixelHeight   ElementID = 0xBA
	IDAudio         ElementID = 0xE1
	IDSamplingFreq  ElementID = 0xB5
	IDChannels      ElementID = 0x9F

	IDCluster     ElementID = 0x1F43B675
	IDTimestamp   ElementID = 0xE7
	IDSimpleBlock ElementID = 0xA3
	IDBlockGroup  ElementID = 0xA0
	IDBlock       ElementID = 0xA1
)

var elementNames = map[ElementID]string{
	IDEBML:         "EBML",
	IDEBMLVersion:  "EBMLVersion",
	IDEBMLReadVer:  "EBMLReadVersion",
	IDEBMLMaxIDLen: "EBMLMaxIDLength",
	IDEBMLMaxSzLen: "EBMLMaxSizeLength",
	IDDocType:      "DocType",
	IDDocTypeVer:   "DocTypeVersion",
	IDDocTypeRdVer: "DocTypeReadVersion",
	IDSegment:      "Segment",
	IDInfo:         "Info",
	IDTimestampScale: "TimestampScale",
	IDMuxingApp:    "MuxingApp",
	IDWritingApp:   "WritingApp",
	IDDuration:     "Duration",
	IDTracks:       "Tracks",
	IDTrackEntry:   "TrackEntry",
	IDTrackNumber:  "TrackNumber",
	IDTrackUID:     "TrackUID",
	IDTrackType:    "TrackType",
	IDCodecID:      "CodecID",
	IDCodecPrivate: "CodecPrivate",
	IDVideo:        "Video",
	IDPixelWidth:   "PixelWidth",
	IDPixelHeight:  "PixelHeight",
	IDAudio:        "Audio",
	IDSamplingFreq: "SamplingFrequency",
	IDChannels:     "Channels",
	IDCluster:      "Cluster",
	IDTimestamp:    "Timestamp",
	IDSimpleBlock:  "SimpleBlock",
	IDBlockGroup:   "BlockGroup",
	IDBlock:        "Block",
}

// masterElements lists every ID this package treats as a Master element
// (one that contains child elements rather than a scalar payload).
var masterElements = map[ElementID]bool{
	IDEBML:       true,
	IDSegment:    true,
	IDInfo:       true,
	IDTracks:     true,
	IDTrackEntry: true,
	IDVideo:      true,
	IDAudio:      true,
	IDCluster:    true,
	IDBlockGroup: true,
}

// Name returns a human-readable name for logging, or a hex fallback for
// elements this package does not specifically track.
func (id ElementID) Name() string {
	if n, ok := elementNames[id]; ok {
		return n
	}
	return fmt.Sprintf("0x%X", uint32(id))
}

// IsMaster reports whether id is treated as a Master element.
func (id ElementID) IsMaster() bool {
	return masterElements[id]
}
