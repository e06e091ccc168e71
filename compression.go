package grepkit

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// CompressionType represents the type of compression detected
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionGzip
	CompressionBzip2
	CompressionZstd
	CompressionXz
)

// String returns the string representation of the compression type
func (ct CompressionType) String() string {
	switch ct {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionZstd:
		return "zstd"
	case CompressionXz:
		return "xz"
	default:
		return "unknown"
	}
}

// Magic numbers, checked in order.
var magicBytes = []struct {
	typ   CompressionType
	magic []byte
}{
	{CompressionGzip, []byte{0x1f, 0x8b}},
	{CompressionBzip2, []byte{'B', 'Z', 'h'}},
	{CompressionZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{CompressionXz, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
}

const maxMagicLen = 6

// DetectCompression identifies a compression format from leading bytes.
func DetectCompression(data []byte) CompressionType {
	for _, m := range magicBytes {
		if bytes.HasPrefix(data, m.magic) {
			return m.typ
		}
	}
	return CompressionNone
}

// SupportedCompression lists the formats WithSearchZip can read.
func SupportedCompression() []CompressionType {
	return []CompressionType{CompressionGzip, CompressionBzip2, CompressionZstd, CompressionXz}
}

// decompress sniffs r and returns a reader over the decompressed stream. The
// close function releases decoder resources and never closes r itself.
func decompress(r io.Reader) (io.Reader, CompressionType, func(), error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(maxMagicLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, CompressionNone, nil, err
	}

	noop := func() {}
	ct := DetectCompression(head)
	switch ct {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, ct, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, ct, func() { _ = zr.Close() }, nil

	case CompressionBzip2:
		return bzip2.NewReader(br), ct, noop, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, ct, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, ct, dec.Close, nil

	case CompressionXz:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, ct, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, ct, noop, nil

	default:
		return br, CompressionNone, noop, nil
	}
}
