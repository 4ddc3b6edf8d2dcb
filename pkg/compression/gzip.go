// Package compression implements gzip content coding for SOAP transports
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

const (
	// EncodingGzip is the gzip content coding token
	EncodingGzip = "gzip"
	// EncodingXGzip is the legacy alias for gzip
	EncodingXGzip = "x-gzip"
)

// Compressor handles gzip compression of message bodies
type Compressor struct {
	compressionLevel int
}

// NewCompressor creates a new compressor with default compression level
func NewCompressor() *Compressor {
	return &Compressor{
		compressionLevel: gzip.DefaultCompression,
	}
}

// NewCompressorWithLevel creates a new compressor with specified compression level
func NewCompressorWithLevel(level int) *Compressor {
	return &Compressor{
		compressionLevel: level,
	}
}

// Compress compresses data using gzip
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	writer, err := gzip.NewWriterLevel(&buf, c.compressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

// IsGzip reports whether a Content-Encoding header value denotes gzip
func IsGzip(contentEncoding string) bool {
	enc := strings.ToLower(strings.TrimSpace(contentEncoding))
	return enc == EncodingGzip || enc == EncodingXGzip
}

// AcceptsGzip reports whether an Accept-Encoding header value allows gzip.
// A coding listed with q=0 is treated as refused.
func AcceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !IsGzip(coding) && strings.TrimSpace(coding) != "*" {
			continue
		}
		q := strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		if q == "q=0" || q == "q=0.0" || q == "q=0.00" || q == "q=0.000" {
			return false
		}
		return true
	}
	return false
}

// DecodeReader wraps r with a gzip reader when contentEncoding is gzip.
// The returned reader closes both the decoder and r.
func DecodeReader(r io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	if !IsGzip(contentEncoding) {
		return r, nil
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return &gzipReadCloser{Reader: zr, underlying: r}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	underlying io.Closer
}

func (g *gzipReadCloser) Close() error {
	zerr := g.Reader.Close()
	if err := g.underlying.Close(); err != nil {
		return err
	}
	return zerr
}
