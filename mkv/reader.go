package mkv

import (
	"bytes"
	"fmt"
	"io"
)

// Reader demuxes a container written by Writer. It never seeks: Load
// (trajectory package) opens a fresh Reader per pass instead of rewinding
// one.
type Reader struct {
	r       io.Reader
	streams []Stream
}

// NewReader parses the EBML header, Segment, Info and Tracks off r and
// returns a Reader positioned at the first Cluster.
func NewReader(r io.Reader) (*Reader, error) {
	if _, _, err := readElement(r); err != nil { // EBML header, discarded
		return nil, fmt.Errorf("mkv: reading EBML header: %w", err)
	}

	segID, err := readID(r)
	if err != nil {
		return nil, fmt.Errorf("mkv: reading segment id: %w", err)
	}
	if segID != idSegment {
		return nil, fmt.Errorf("mkv: expected Segment, got element 0x%X", segID)
	}
	if _, err := readSize(r); err != nil { // always the unknown-size sentinel
		return nil, fmt.Errorf("mkv: reading segment size: %w", err)
	}

	mr := &Reader{r: r}
	for {
		id, body, err := readElement(r)
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("mkv: no Tracks element before EOF")
			}
			return nil, err
		}
		switch id {
		case idInfo:
			// nothing required from Info beyond TimecodeScale, which this
			// format fixes at 1ms; kept for forward compatibility only.
		case idTracks:
			streams, err := parseTracks(body)
			if err != nil {
				return nil, err
			}
			mr.streams = streams
			return mr, nil
		case idCluster:
			return nil, fmt.Errorf("mkv: Cluster encountered before Tracks")
		default:
			// unknown top-level element: ignore.
		}
	}
}

// Streams returns the stream table parsed from Tracks.
func (mr *Reader) Streams() []Stream {
	out := make([]Stream, len(mr.streams))
	copy(out, mr.streams)
	return out
}

// ReadPacket returns the next packet, or io.EOF once the container is
// exhausted.
func (mr *Reader) ReadPacket() (*Packet, error) {
	for {
		id, body, err := readElement(mr.r)
		if err != nil {
			return nil, err
		}
		if id != idCluster {
			continue
		}
		return parseCluster(body)
	}
}

func parseTracks(body []byte) ([]Stream, error) {
	elems, err := splitElements(body)
	if err != nil {
		return nil, err
	}
	var streams []Stream
	for _, e := range elems {
		if e.id != idTrackEntry {
			continue
		}
		s, err := parseTrackEntry(e.body)
		if err != nil {
			return nil, err
		}
		streams = append(streams, s)
	}
	return streams, nil
}

func parseTrackEntry(body []byte) (Stream, error) {
	elems, err := splitElements(body)
	if err != nil {
		return Stream{}, err
	}
	var s Stream
	for _, e := range elems {
		switch e.id {
		case idTrackNumber:
			s.Index = int(decodeUint(e.body)) - 1
		case idCodecID:
			s.Codec = string(e.body)
		case idFeatureName:
			s.Name = string(e.body)
		case idFeatureType:
			s.TypeString = string(e.body)
		case idVideo:
			videoElems, err := splitElements(e.body)
			if err != nil {
				return Stream{}, err
			}
			for _, v := range videoElems {
				switch v.id {
				case idPixelWidth:
					s.Width = int(decodeUint(v.body))
				case idPixelHeight:
					s.Height = int(decodeUint(v.body))
				}
			}
		}
	}
	return s, nil
}

func parseCluster(body []byte) (*Packet, error) {
	elems, err := splitElements(body)
	if err != nil {
		return nil, err
	}
	var ts int64
	var haveTS bool
	for _, e := range elems {
		switch e.id {
		case idTimecode:
			ts = int64(decodeUint(e.body))
			haveTS = true
		case idSimpleBlock:
			if !haveTS {
				return nil, fmt.Errorf("mkv: SimpleBlock before Timecode in cluster")
			}
			pkt, err := parseSimpleBlock(e.body, ts)
			if err != nil {
				return nil, err
			}
			return pkt, nil
		}
	}
	return nil, fmt.Errorf("mkv: cluster without a SimpleBlock")
}

func parseSimpleBlock(body []byte, ts int64) (*Packet, error) {
	r := bytes.NewReader(body)
	trackNum, err := readSize(r)
	if err != nil {
		return nil, fmt.Errorf("mkv: reading SimpleBlock track number: %w", err)
	}
	var rest [3]byte // relative timecode (2 bytes) + flags (1 byte)
	if _, err := io.ReadFull(r, rest[:]); err != nil {
		return nil, fmt.Errorf("mkv: reading SimpleBlock header: %w", err)
	}
	data := make([]byte, r.Len())
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return &Packet{
		StreamIndex: int(trackNum) - 1,
		PTS:         ts,
		DTS:         ts,
		Data:        data,
	}, nil
}
