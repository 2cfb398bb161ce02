// Package trajectory implements the container-level write and read
// pipelines on top of mkv, framecodec and cache: feature discovery,
// codec selection, in-place stream addition via remux, close-time
// transcoding, and per-stream length-probed reads into dense arrays.
package trajectory

import (
	"fmt"
	"os"
	"sync"

	"github.com/eluv-io/log-go"

	"github.com/n0remac/robotraj/config"
	"github.com/n0remac/robotraj/feature"
	"github.com/n0remac/robotraj/framecodec"
	"github.com/n0remac/robotraj/mkv"
	"github.com/n0remac/robotraj/ndarray"
)

type mode int

const (
	modeWrite mode = iota
	modeRead
)

// Trajectory is one robot episode: a single container file plus the
// bookkeeping needed to add streams mid-session and decode them back.
type Trajectory struct {
	mu   sync.Mutex
	path string
	cfg  config.Config
	mode mode

	file   *os.File
	writer *mkv.Writer

	streamIndex map[string]int
	types       map[string]feature.Type
	lastTS      map[string]int64
	nextAutoTS  int64

	closed bool

	// populated by Load; a second Load reuses loadedArrays without
	// touching the container or the decoded cache again.
	loadedOnce   bool
	loadedArrays map[string]*ndarray.Array
}

// OpenWrite creates path for writing. An existing file at path is
// truncated, matching the teacher's os.Create-based file handling.
func OpenWrite(path string, cfg config.Config) (*Trajectory, error) {
	cfg = cfg.WithDefaults()
	f, err := os.Create(path)
	if err != nil {
		log.Error("trajectory: create failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrFileCreateFailed, err)
	}
	return &Trajectory{
		path:        path,
		cfg:         cfg,
		mode:        modeWrite,
		file:        f,
		writer:      mkv.NewWriter(f),
		streamIndex: make(map[string]int),
		types:       make(map[string]feature.Type),
		lastTS:      make(map[string]int64),
	}, nil
}

// OpenRead opens an existing container file for reading. The container
// itself is only actually opened and demuxed on the first Load call.
func OpenRead(path string, cfg config.Config) (*Trajectory, error) {
	cfg = cfg.WithDefaults()
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileMissing, path)
	}
	return &Trajectory{
		path:        path,
		cfg:         cfg,
		mode:        modeRead,
		streamIndex: make(map[string]int),
		types:       make(map[string]feature.Type),
		lastTS:      make(map[string]int64),
	}, nil
}

// Add records one feature value at timestamp ts (milliseconds since the
// start of the episode). If ts is omitted, the trajectory assigns the next
// tick of its internal monotonic clock.
func (t *Trajectory) Add(name string, value any, ts ...int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addLocked(name, value, t.resolveTS(ts))
}

// AddByDict records every entry of mapping at the same timestamp, so a
// "step" of several features lands on one pts. Values may themselves be
// map[string]any, which is flattened using cfg.Separator ("pose": {"pos":
// ..., "rot": ...} becomes "pose/pos", "pose/rot").
func (t *Trajectory) AddByDict(mapping map[string]any, ts ...int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	flat := make(map[string]any)
	flattenDict(mapping, "", t.cfg.Separator, flat)

	step := t.resolveTS(ts)
	for name, value := range flat {
		if err := t.addLocked(name, value, step); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trajectory) resolveTS(ts []int64) int64 {
	if len(ts) > 0 {
		return ts[0]
	}
	v := t.nextAutoTS
	t.nextAutoTS++
	return v
}

func flattenDict(m map[string]any, prefix, separator string, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + separator + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenDict(nested, key, separator, out)
			continue
		}
		out[key] = v
	}
}

func (t *Trajectory) addLocked(name string, value any, ts int64) error {
	if t.mode != modeWrite {
		return fmt.Errorf("%w: Add requires a trajectory opened with OpenWrite", ErrInvalidMode)
	}
	if t.closed {
		return fmt.Errorf("%w: Add on a closed trajectory", ErrDoubleClose)
	}
	if _, ok := value.(map[string]any); ok {
		return fmt.Errorf("%w: Add does not accept a map value, use AddByDict", ErrInvalidValue)
	}

	idx, ft, err := t.streamFor(name, value)
	if err != nil {
		return err
	}

	// Deferred encoding (design note): everything is written rawvideo at
	// capture time; the Transcoder re-encodes image-like streams to
	// ffv1/av1 once at Close.
	payload, err := framecodec.Encode(value, feature.Rawvideo, ft)
	if err != nil {
		return fmt.Errorf("trajectory: encoding %q: %w", name, err)
	}

	if err := t.writer.WritePacket(mkv.Packet{StreamIndex: idx, PTS: ts, DTS: ts, Data: payload}); err != nil {
		return fmt.Errorf("trajectory: writing packet for %q: %w", name, err)
	}
	t.lastTS[name] = ts
	return nil
}

// streamFor returns the stream index for name, deriving and registering
// its FeatureType from value on first use. Registering a stream after the
// first packet has already been written goes through the remux protocol.
func (t *Trajectory) streamFor(name string, value any) (int, feature.Type, error) {
	if idx, ok := t.streamIndex[name]; ok {
		return idx, t.types[name], nil
	}

	ft, err := feature.FromValue(value)
	if err != nil {
		return 0, feature.Type{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	idx, err := t.registerStream(name, ft)
	if err != nil {
		return 0, feature.Type{}, err
	}
	t.streamIndex[name] = idx
	t.types[name] = ft
	return idx, ft, nil
}

// registerStream adds name as a new rawvideo stream, via AddStream when the
// header is still open, or via the remux protocol (onNewStream) once it
// has already been committed by an earlier packet.
func (t *Trajectory) registerStream(name string, ft feature.Type) (int, error) {
	idx, err := t.writer.AddStream(name, ft.String(), string(feature.Rawvideo), 0, 0)
	if err == nil {
		return idx, nil
	}
	if err != mkv.ErrHeaderCommitted {
		return 0, fmt.Errorf("trajectory: adding stream %q: %w", name, err)
	}

	log.Info("trajectory: remuxing to add stream", "feature", name, "path", t.path)
	return t.onNewStream(name, ft)
}

// Close flushes all streams, then hands the file off to the Transcoder to
// rewrite rawvideo-but-image-like streams into ffv1/av1. Close is
// idempotent only in the sense that a second call returns ErrDoubleClose;
// it does not silently succeed.
func (t *Trajectory) Close(compact bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode != modeWrite {
		return nil
	}
	if t.closed {
		return ErrDoubleClose
	}
	t.closed = true

	if err := t.writer.Close(); err != nil {
		return fmt.Errorf("trajectory: flushing on close: %w", err)
	}
	if err := t.file.Close(); err != nil {
		return fmt.Errorf("trajectory: closing file: %w", err)
	}

	if !compact {
		return nil
	}
	if err := transcode(t.path, t.cfg.Lossy); err != nil {
		return fmt.Errorf("trajectory: transcoding on close: %w", err)
	}
	return nil
}
