package trajectory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/eluv-io/log-go"

	"github.com/n0remac/robotraj/feature"
	"github.com/n0remac/robotraj/framecodec"
	"github.com/n0remac/robotraj/mkv"
)

// transcode runs once at Close: every stream was written rawvideo during
// capture (the two-phase write strategy), so this pass decodes each packet
// back to its value and re-encodes it through the Codec Selector's actual
// choice, turning image-like streams into ffv1/av1 in a single rebuild
// pass instead of re-muxing on every packet.
func transcode(path string, lossy bool) error {
	asidePath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".transcode-src")
	if err := os.Rename(path, asidePath); err != nil {
		return fmt.Errorf("trajectory: renaming aside for transcode: %w", err)
	}
	defer os.Remove(asidePath)

	src, err := os.Open(asidePath)
	if err != nil {
		return fmt.Errorf("trajectory: reopening source for transcode: %w", err)
	}
	defer src.Close()

	reader, err := mkv.NewReader(src)
	if err != nil {
		return fmt.Errorf("trajectory: reading source container for transcode: %w", err)
	}
	streams := reader.Streams()

	types := make([]feature.Type, len(streams))
	codecs := make([]feature.CodecName, len(streams))
	for _, s := range streams {
		ft, err := feature.ParseType(s.TypeString)
		if err != nil {
			return fmt.Errorf("trajectory: parsing feature type for stream %q: %w", s.Name, err)
		}
		types[s.Index] = ft
		codecs[s.Index] = feature.SelectCodec(ft, lossy)
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileCreateFailed, err)
	}
	defer dst.Close()

	writer := mkv.NewWriter(dst)
	for _, s := range streams {
		ft := types[s.Index]
		width, height := 0, 0
		if codecs[s.Index] != feature.Rawvideo {
			height, width = ft.Shape[0], ft.Shape[1]
		}
		if _, err := writer.AddStream(s.Name, s.TypeString, string(codecs[s.Index]), width, height); err != nil {
			return fmt.Errorf("trajectory: rebuilding stream table for transcode: %w", err)
		}
	}

	for {
		pkt, err := reader.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}

		ft := types[pkt.StreamIndex]
		value, err := framecodec.Decode(feature.Rawvideo, ft, pkt.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		payload, err := framecodec.Encode(value, codecs[pkt.StreamIndex], ft)
		if err != nil {
			return fmt.Errorf("trajectory: re-encoding packet for %q: %w", streams[pkt.StreamIndex].Name, err)
		}
		pkt.Data = payload
		if err := writer.WritePacket(*pkt); err != nil {
			return fmt.Errorf("trajectory: writing transcoded packet: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("trajectory: closing transcoded container: %w", err)
	}
	log.Info("trajectory: transcode complete", "path", path, "streams", len(streams))
	return nil
}
