package feature

// CodecName is one of the three encodings a stream may use.
type CodecName string

const (
	Rawvideo CodecName = "rawvideo"
	FFV1     CodecName = "ffv1"
	AV1      CodecName = "av1"
)

// imageLikeMinDim is the boundary (inclusive) both of a shape's first two
// dimensions must meet before the feature is treated as image-like.
const imageLikeMinDim = 100

// SelectCodec maps a feature type and the trajectory's lossy flag to the
// codec used to mux it. The test keys on shape alone (H>=100, W>=100), not
// dtype: float32 image-like streams are still video-encoded.
func SelectCodec(t Type, lossy bool) CodecName {
	if len(t.Shape) >= 2 && t.Shape[0] >= imageLikeMinDim && t.Shape[1] >= imageLikeMinDim {
		if lossy {
			return AV1
		}
		return FFV1
	}
	return Rawvideo
}
