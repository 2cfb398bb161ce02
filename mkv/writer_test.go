package mkv

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf)

	img, err := w.AddStream("arm_view", "uint8[480,640,3]", "rawvideo", 0, 0)
	require.NoError(t, err)
	pose, err := w.AddStream("gripper_pose", "float32[4,4]", "rawvideo", 0, 0)
	require.NoError(t, err)

	require.NoError(t, w.WritePacket(Packet{StreamIndex: img, PTS: 0, DTS: 0, Data: []byte("frame-0")}))
	require.NoError(t, w.WritePacket(Packet{StreamIndex: pose, PTS: 0, DTS: 0, Data: []byte("pose-0")}))
	require.NoError(t, w.WritePacket(Packet{StreamIndex: img, PTS: 33, DTS: 33, Data: []byte("frame-1")}))

	// Adding a stream after the first packet must fail.
	_, err = w.AddStream("late", "uint8[]", "rawvideo", 0, 0)
	require.ErrorIs(t, err, ErrHeaderCommitted)

	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	streams := r.Streams()
	require.Len(t, streams, 2)
	require.Equal(t, "arm_view", streams[0].Name)
	require.Equal(t, "uint8[480,640,3]", streams[0].TypeString)
	require.Equal(t, "gripper_pose", streams[1].Name)

	var packets []*Packet
	for {
		pkt, err := r.ReadPacket()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		packets = append(packets, pkt)
	}
	require.Len(t, packets, 3)
	require.Equal(t, 0, packets[0].StreamIndex)
	require.Equal(t, []byte("frame-0"), packets[0].Data)
	require.Equal(t, int64(0), packets[0].PTS)
	require.Equal(t, 1, packets[1].StreamIndex)
	require.Equal(t, []byte("pose-0"), packets[1].Data)
	require.Equal(t, 0, packets[2].StreamIndex)
	require.Equal(t, []byte("frame-1"), packets[2].Data)
	require.Equal(t, int64(33), packets[2].PTS)
}

func TestWriterTracksVideoDimensions(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewWriter(buf)
	idx, err := w.AddStream("cam", "uint8[100,100,3]", "ffv1", 100, 100)
	require.NoError(t, err)
	require.NoError(t, w.WritePacket(Packet{StreamIndex: idx, Data: []byte{1, 2, 3}}))
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	s := r.Streams()[0]
	require.Equal(t, 100, s.Width)
	require.Equal(t, 100, s.Height)
	require.Equal(t, "ffv1", s.Codec)
}
