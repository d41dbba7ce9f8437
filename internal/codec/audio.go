package codec

import (
	"encoding/base64"
	"fmt"
)

// AssetSink persists one decoded audio asset under its server-supplied
// filename. The asset store implements it; tests substitute a fake.
type AssetSink interface {
	Put(filename string, data []byte) error
}

// DecodeAudioAssets decodes the parallel base64 audio entries and persists
// each through sink. It fails fast: a bad entry aborts before any further
// writes, and the caller must not apply the parsed response.
func DecodeAudioAssets(filenames, base64Data []string, sink AssetSink) error {
	if len(filenames) != len(base64Data) {
		return fmt.Errorf("%w: %d filenames for %d audio entries",
			ErrMalformedResponse, len(filenames), len(base64Data))
	}

	for i, encoded := range base64Data {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("%w: entry %d (%s): %v", ErrInvalidEncoding, i, filenames[i], err)
		}
		if err := sink.Put(filenames[i], data); err != nil {
			return fmt.Errorf("storing %s: %w", filenames[i], err)
		}
	}
	return nil
}
