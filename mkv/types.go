package mkv

// Stream describes one track inside a container: its assigned index,
// its two mandatory metadata keys, the codec it was muxed with, and (for
// video codecs) its pixel dimensions.
type Stream struct {
	Index      int
	Name       string // FEATURE_NAME
	TypeString string // FEATURE_TYPE, the feature.Type.String() form
	Codec      string // "rawvideo", "ffv1", or "av1"
	Width      int    // 0 for rawvideo
	Height     int    // 0 for rawvideo
}

// Packet carries one feature value at one timestamp. PTS and DTS are
// always equal in this format (spec: "stored as the integer pts=dts of
// every packet"), in container time-base ticks (TimeBase per second).
type Packet struct {
	StreamIndex int
	PTS         int64
	DTS         int64
	Data        []byte
}
