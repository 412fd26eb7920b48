package matroska

// HeaderSnapshot is the self-contained prelude every subscriber must
// receive before any Cluster bytes: the EBML header, Segment(Start), Info,
// and Tracks, captured as they stood the moment a recording's Follower
// attached to the file. A WebM consumer that starts reading from this
// snapshot followed by live Clusters sees a structurally valid file.
type HeaderSnapshot struct {
	Tags []Tag
}

// CaptureHeader reads the mandatory prelude of a Matroska/WebM stream from
// src (starting at its current position), using breakAtIDs to read
// EBML/Info/Tracks whole. It stops the instant it sees Cluster(Start),
// without consuming it, and returns the byte offset (relative to src's
// starting position) at which that Cluster begins.
//
// It is a fatal error for Cluster to appear before Tracks(Full) has been
// observed: a recording file is only ever produced by a writer that
// finishes the prelude before emitting media, so seeing Cluster first means
// the file is not what this project expects to tail.
func CaptureHeader(src ReadSeeker) (*HeaderSnapshot, int64, error) {
	it, err := NewIterator(src, []ElementID{IDEBML, IDInfo, IDTracks})
	if err != nil {
		return nil, 0, err
	}

	snap := &HeaderSnapshot{}
	sawTracks := false

	for {
		tag, err := it.Next()
		if err != nil {
			return nil, 0, err
		}

		if tag.ID == IDCluster && tag.Form == FormStart {
			if !sawTracks {
				return nil, 0, ErrUnexpectedPrelude
			}
			return snap, tag.Offset, nil
		}

		switch tag.Form {
		case FormFull:
			if tag.ID == IDTracks {
				sawTracks = true
			}
			snap.Tags = append(snap.Tags, tag)
		case FormStart:
			if tag.ID == IDSegment {
				snap.Tags = append(snap.Tags, tag)
			}
			// Other Starts (shouldn't occur ahead of Cluster in a
			// well-formed file) are otherwise ignored.
		case FormEnd:
			// Segment never closes while streaming; nothing else should
			// emit an End this early.
		}
	}
}
