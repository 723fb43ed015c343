package zarr

import (
	"io"

	"github.com/qri-io/dataset/compression"
)

// CompressionMeta defines compression settings zarr-go understands
type CompressionMeta struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// numcodecs names zstandard "zstd"; the compression package calls it "zst".
func (m *CompressionMeta) format() string {
	if m.ID == "zstd" {
		return "zst"
	}
	return m.ID
}

// Decompressor wraps r in the configured codec. A nil compressor passes r
// through unchanged.
func (m *CompressionMeta) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	if m == nil {
		return r, nil
	}
	return compression.Decompressor(m.format(), r)
}

// Compressor wraps w in the configured codec. Callers must Close the returned
// writer to flush it; closing never closes w.
func (m *CompressionMeta) Compressor(w io.Writer) (io.WriteCloser, error) {
	if m == nil {
		return nopWriteCloser{w}, nil
	}
	return compression.Compressor(m.format(), w)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
