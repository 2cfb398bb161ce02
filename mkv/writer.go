package mkv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrHeaderCommitted is returned by AddStream once the first packet has
// been written: Matroska (and this format) forbids adding tracks to an
// already-muxed header. Callers that need to add a stream mid-session
// must use the remux protocol instead (see trajectory.onNewStream).
var ErrHeaderCommitted = errors.New("mkv: cannot add a stream after the header has been committed")

// Writer muxes packets for a fixed set of streams into a single Matroska-
// flavored container. It performs no remuxing itself; AddStream must be
// called for every stream before the first WritePacket.
type Writer struct {
	w       *bufio.Writer
	streams []Stream
	started bool
	closed  bool
}

// NewWriter wraps w. Streams must be added with AddStream before the first
// WritePacket call.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 64*1024)}
}

// ResumeWriter wraps w, which must already contain a committed header (EBML
// header, Segment, Info, Tracks) for the given streams, positioned so that
// further writes append new Clusters after whatever was already written.
// Used by the remux protocol to continue writing to a rebuilt file without
// re-emitting its header or replayed packets.
func ResumeWriter(w io.Writer, streams []Stream) *Writer {
	cp := make([]Stream, len(streams))
	copy(cp, streams)
	return &Writer{w: bufio.NewWriterSize(w, 64*1024), streams: cp, started: true}
}

// Streams returns the streams registered so far, in index order.
func (mw *Writer) Streams() []Stream {
	out := make([]Stream, len(mw.streams))
	copy(out, mw.streams)
	return out
}

// AddStream registers a new track and returns its index. It fails once the
// header has already been committed by a prior WritePacket.
func (mw *Writer) AddStream(name, typeString, codec string, width, height int) (int, error) {
	if mw.started {
		return 0, ErrHeaderCommitted
	}
	idx := len(mw.streams)
	mw.streams = append(mw.streams, Stream{
		Index: idx, Name: name, TypeString: typeString, Codec: codec,
		Width: width, Height: height,
	})
	return idx, nil
}

// WritePacket commits the header on the first call (freezing the stream
// table), then muxes pkt as its own single-packet Cluster.
func (mw *Writer) WritePacket(pkt Packet) error {
	if mw.closed {
		return errors.New("mkv: write to closed writer")
	}
	if pkt.StreamIndex < 0 || pkt.StreamIndex >= len(mw.streams) {
		return fmt.Errorf("mkv: packet references unknown stream %d", pkt.StreamIndex)
	}
	if !mw.started {
		if err := mw.writeHeader(); err != nil {
			return err
		}
		mw.started = true
	}
	return mw.writeCluster(pkt)
}

// Flush flushes buffered bytes without closing the underlying writer.
func (mw *Writer) Flush() error {
	return mw.w.Flush()
}

// Close flushes any buffered bytes. It does not close the underlying
// io.Writer; callers that passed an *os.File are responsible for that.
func (mw *Writer) Close() error {
	if mw.closed {
		return nil
	}
	mw.closed = true
	return mw.w.Flush()
}

func (mw *Writer) writeHeader() error {
	if err := mw.writeEBMLHeader(); err != nil {
		return err
	}
	// Segment uses the conventional "unknown size" marker: it is written
	// exactly once, never reopened, and always runs to EOF.
	if _, err := mw.w.Write(append(idEncode(idSegment), 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)); err != nil {
		return err
	}
	if err := mw.writeInfo(); err != nil {
		return err
	}
	return mw.writeTracks()
}

func (mw *Writer) writeEBMLHeader() error {
	body := new(bytes.Buffer)
	mustWrite(body, 0x4286, encodeUint(1))        // EBMLVersion
	mustWrite(body, 0x42F7, encodeUint(1))        // EBMLReadVersion
	mustWrite(body, 0x42F2, encodeUint(4))        // EBMLMaxIDLength
	mustWrite(body, 0x42F3, encodeUint(8))        // EBMLMaxSizeLength
	mustWrite(body, 0x4282, []byte("matroska"))   // DocType
	mustWrite(body, 0x4287, encodeUint(4))        // DocTypeVersion
	mustWrite(body, 0x4285, encodeUint(2))        // DocTypeReadVersion
	return writeElement(mw.w, idEBMLHeader, body.Bytes())
}

func (mw *Writer) writeInfo() error {
	body := new(bytes.Buffer)
	mustWrite(body, idTimecodeScale, encodeUint(1000000)) // 1 tick == 1ms
	mustWrite(body, 0x4D80, []byte("robotraj"))           // MuxingApp
	mustWrite(body, 0x5741, []byte("robotraj"))           // WritingApp
	return writeElement(mw.w, idInfo, body.Bytes())
}

func (mw *Writer) writeTracks() error {
	body := new(bytes.Buffer)
	for _, s := range mw.streams {
		entry := new(bytes.Buffer)
		mustWrite(entry, idTrackNumber, encodeUint(uint64(s.Index+1)))
		mustWrite(entry, idTrackUID, encodeUint(uint64(s.Index+1)))
		mustWrite(entry, idTrackType, []byte{trackTypeVideo})
		mustWrite(entry, idCodecID, []byte(s.Codec))
		mustWrite(entry, idFeatureName, []byte(s.Name))
		mustWrite(entry, idFeatureType, []byte(s.TypeString))
		if s.Width > 0 || s.Height > 0 {
			video := new(bytes.Buffer)
			mustWrite(video, idPixelWidth, encodeUint(uint64(s.Width)))
			mustWrite(video, idPixelHeight, encodeUint(uint64(s.Height)))
			mustWrite(entry, idVideo, video.Bytes())
		}
		if err := writeElement(body, idTrackEntry, entry.Bytes()); err != nil {
			return err
		}
	}
	return writeElement(mw.w, idTracks, body.Bytes())
}

// writeCluster wraps a single packet in its own Cluster: Timecode equal to
// the packet's absolute pts, one SimpleBlock with a zero relative
// timecode. Real muxers batch many blocks per cluster; this format never
// needs to since nothing outside this package reads its clusters.
func (mw *Writer) writeCluster(pkt Packet) error {
	block := new(bytes.Buffer)
	if _, err := block.Write(vintEncode(uint64(pkt.StreamIndex + 1))); err != nil {
		return err
	}
	block.Write([]byte{0x00, 0x00}) // relative timecode, always 0
	block.WriteByte(0x80)           // flags: keyframe
	block.Write(pkt.Data)

	body := new(bytes.Buffer)
	mustWrite(body, idTimecode, encodeUint(uint64(pkt.PTS)))
	if err := writeElement(body, idSimpleBlock, block.Bytes()); err != nil {
		return err
	}
	if err := writeElement(mw.w, idCluster, body.Bytes()); err != nil {
		return err
	}
	return nil
}

func mustWrite(buf *bytes.Buffer, id uint32, data []byte) {
	if err := writeElement(buf, id, data); err != nil {
		// buf is an in-memory bytes.Buffer; Write never fails.
		panic(err)
	}
}
