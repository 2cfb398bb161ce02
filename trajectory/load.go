package trajectory

import (
	"fmt"
	"io"
	"os"

	"github.com/eluv-io/log-go"

	"github.com/n0remac/robotraj/cache"
	"github.com/n0remac/robotraj/feature"
	"github.com/n0remac/robotraj/framecodec"
	"github.com/n0remac/robotraj/mkv"
	"github.com/n0remac/robotraj/ndarray"
)

// Load returns one dense array per feature name. The first call decodes
// the container (or the decoded cache, when present); every later call on
// the same Trajectory returns the already-decoded result without touching
// either again — observable by deleting the container file between calls.
func (t *Trajectory) Load() (map[string]*ndarray.Array, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.loadedOnce {
		return t.loadedArrays, nil
	}

	if t.cfg.CacheDir != "" && cache.Exists(t.cfg.CacheDir, t.path) {
		arrays, err := t.loadFromCache()
		if err == nil {
			t.loadedArrays = arrays
			t.loadedOnce = true
			return arrays, nil
		}
		log.Warn("trajectory: decoded cache unreadable, falling back to container decode", "path", t.path, "error", err)
	}

	arrays, err := t.decodeContainer()
	if err != nil {
		return nil, err
	}
	t.loadedArrays = arrays
	t.loadedOnce = true

	if t.cfg.CacheDir != "" {
		if err := t.saveToCache(arrays); err != nil {
			log.Warn("trajectory: decoded cache write failed", "path", t.path, "error", err)
		}
	}
	return arrays, nil
}

// Get returns the decoded array for a single feature name, loading the
// trajectory first if necessary.
func (t *Trajectory) Get(name string) (*ndarray.Array, error) {
	arrays, err := t.Load()
	if err != nil {
		return nil, err
	}
	arr, ok := arrays[name]
	if !ok {
		return nil, fmt.Errorf("trajectory: no such feature %q", name)
	}
	return arr, nil
}

func (t *Trajectory) loadFromCache() (map[string]*ndarray.Array, error) {
	c, err := cache.Open(t.cfg.CacheDir, t.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheReadFailed, err)
	}
	defer c.Close()
	arrays, err := c.Read(t.cfg.Separator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheReadFailed, err)
	}
	return arrays, nil
}

func (t *Trajectory) saveToCache(arrays map[string]*ndarray.Array) error {
	c, err := cache.Open(t.cfg.CacheDir, t.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWriteFailed, err)
	}
	defer c.Close()
	if err := c.Write(arrays, t.cfg.Separator); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWriteFailed, err)
	}
	return nil
}

// decodeContainer probes each stream's packet count in a first pass, then
// preallocates and fills one dense array per feature in a second pass.
// Length is probed per stream rather than assumed uniform across the
// trajectory, since on_new_stream lets later features start with fewer
// packets than earlier ones (see Trajectory.onNewStream, which adds a
// stream mid-session).
func (t *Trajectory) decodeContainer() (map[string]*ndarray.Array, error) {
	streams, counts, err := t.probeLengths()
	if err != nil {
		return nil, err
	}

	types := make([]feature.Type, len(streams))
	arrays := make(map[string]*ndarray.Array, len(streams))
	for _, s := range streams {
		ft, err := feature.ParseType(s.TypeString)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing feature type for %q: %v", ErrDecodeFailed, s.Name, err)
		}
		types[s.Index] = ft
		arr, err := ndarray.New(ft.Dtype, counts[s.Index], ft.Shape)
		if err != nil {
			return nil, fmt.Errorf("%w: preallocating %q: %v", ErrDecodeFailed, s.Name, err)
		}
		arrays[s.Name] = arr
	}

	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileMissing, err)
	}
	defer f.Close()
	reader, err := mkv.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	cursors := make([]int, len(streams))
	for {
		pkt, err := reader.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		if pkt.StreamIndex < 0 || pkt.StreamIndex >= len(streams) {
			continue // packet references metadata absent from Tracks; skip
		}
		s := streams[pkt.StreamIndex]
		ft := types[s.Index]
		codec := feature.CodecName(s.Codec)

		decoded, err := framecodec.Decode(codec, ft, pkt.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding %q: %v", ErrDecodeFailed, s.Name, err)
		}

		arr := arrays[s.Name]
		cursor := cursors[s.Index]
		if codec == feature.Rawvideo {
			err = arr.SetElem(cursor, decoded)
		} else {
			err = arr.SetElemMagnitudes(cursor, decoded.([]byte), ft.Shape)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: filling %q: %v", ErrDecodeFailed, s.Name, err)
		}
		cursors[s.Index]++
	}

	return arrays, nil
}

// probeLengths opens the container once just to count packets per stream.
func (t *Trajectory) probeLengths() ([]mkv.Stream, []int, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFileMissing, err)
	}
	defer f.Close()

	reader, err := mkv.NewReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	streams := reader.Streams()
	counts := make([]int, len(streams))

	for {
		pkt, err := reader.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		if pkt.StreamIndex >= 0 && pkt.StreamIndex < len(counts) {
			counts[pkt.StreamIndex]++
		}
	}
	return streams, counts, nil
}
