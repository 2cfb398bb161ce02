package trajectory

import "errors"

// Sentinel errors, one per error kind. Callers compare with errors.Is; the
// sentinel is attached with %w, while an underlying cause (I/O error, codec
// error) is formatted into the message with %v and is not itself matchable.
var (
	ErrInvalidMode      = errors.New("trajectory: unknown open mode")
	ErrFileMissing      = errors.New("trajectory: file does not exist")
	ErrFileCreateFailed = errors.New("trajectory: failed to create container file")
	ErrInvalidValue     = errors.New("trajectory: invalid value for this call")
	ErrShapeMismatch    = errors.New("trajectory: sequences have unequal length")
	ErrDoubleClose      = errors.New("trajectory: already closed")
	ErrCacheWriteFailed = errors.New("trajectory: decoded cache write failed")
	ErrCacheReadFailed  = errors.New("trajectory: decoded cache read failed")
	ErrDecodeFailed     = errors.New("trajectory: container open or demux failed")
)
