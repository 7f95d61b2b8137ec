package fetcher

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the zstd frame header
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// DecodeBody decompresses a zstd response body. The underlying transport
// already handles gzip, deflate and brotli, but some registries serve raw
// zstd payloads (crates.io rustdoc JSON among them) that it passes
// through untouched.
//
// Detection goes by the frame magic rather than the Content-Encoding
// header, so a body the transport already decoded is never decoded
// twice. Non-zstd bodies are returned unchanged.
func DecodeBody(body []byte) ([]byte, error) {
	if !bytes.HasPrefix(body, zstdMagic) {
		return body, nil
	}

	reader, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer reader.Close()

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}

	return decoded, nil
}
