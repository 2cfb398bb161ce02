package trajectory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/n0remac/robotraj/feature"
	"github.com/n0remac/robotraj/mkv"
)

// onNewStream implements the remux protocol: rename the in-progress file
// aside, rebuild a fresh container with the existing stream table plus the
// new stream, replay every already-written packet into it unchanged (their
// indices do not shift since the new stream is only ever appended at the
// end), then resume writing to the rebuilt file in place. It returns the
// new stream's index.
func (t *Trajectory) onNewStream(name string, ft feature.Type) (int, error) {
	if err := t.writer.Close(); err != nil {
		return 0, fmt.Errorf("trajectory: flushing before remux: %w", err)
	}
	if err := t.file.Close(); err != nil {
		return 0, fmt.Errorf("trajectory: closing before remux: %w", err)
	}

	oldPath := t.path
	asidePath := filepath.Join(filepath.Dir(oldPath), "."+filepath.Base(oldPath)+"."+uuid.NewString()+".remux-src")
	if err := os.Rename(oldPath, asidePath); err != nil {
		return 0, fmt.Errorf("trajectory: renaming aside for remux: %w", err)
	}
	defer os.Remove(asidePath)

	src, err := os.Open(asidePath)
	if err != nil {
		return 0, fmt.Errorf("trajectory: reopening renamed-aside source: %w", err)
	}
	defer src.Close()

	reader, err := mkv.NewReader(src)
	if err != nil {
		return 0, fmt.Errorf("trajectory: reading source container for remux: %w", err)
	}

	dst, err := os.Create(oldPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFileCreateFailed, err)
	}

	writer := mkv.NewWriter(dst)
	oldStreams := reader.Streams()
	for _, s := range oldStreams {
		if _, err := writer.AddStream(s.Name, s.TypeString, s.Codec, s.Width, s.Height); err != nil {
			dst.Close()
			return 0, fmt.Errorf("trajectory: replaying stream table during remux: %w", err)
		}
	}
	newIdx, err := writer.AddStream(name, ft.String(), string(feature.Rawvideo), 0, 0)
	if err != nil {
		dst.Close()
		return 0, fmt.Errorf("trajectory: adding new stream during remux: %w", err)
	}

	for {
		pkt, err := reader.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			dst.Close()
			return 0, fmt.Errorf("trajectory: replaying packets during remux: %w", err)
		}
		if err := writer.WritePacket(*pkt); err != nil {
			dst.Close()
			return 0, fmt.Errorf("trajectory: rewriting packet during remux: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		dst.Close()
		return 0, fmt.Errorf("trajectory: flushing rebuilt container: %w", err)
	}

	finalStreams := writer.Streams()
	t.writer = mkv.ResumeWriter(dst, finalStreams)
	t.file = dst

	// Existing features keep their stream indices: the rebuild only ever
	// appends the new stream at the end.
	for _, s := range oldStreams {
		t.streamIndex[s.Name] = s.Index
	}

	return newIdx, nil
}
