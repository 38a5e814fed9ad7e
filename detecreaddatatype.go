package darkcal

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
	DataTypeZstd
)

func (d DataType) String() string {
	switch d {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	case DataTypeZstd:
		return "zstd"
	}

	return "invalid"
}

// headerPeekSize covers the longest signature below as well as the largest
// zstd frame header (4 bytes magic + up to 14 bytes of frame header).
const headerPeekSize = 18

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
	DataTypeZstd:  {0x28, 0xb5, 0x2f, 0xfd},
}

// DetectDataType checks the leading bytes of a stream against a set of known
// compression signatures. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(header []byte) DataType {
Outer:
	for dt, sig := range byteCodeSigs {
		if len(header) < len(sig) {
			continue
		}
		for position := range sig {
			if header[position] != sig[position] {
				continue Outer
			}
		}
		return dt
	}

	return DataTypeNoCompression
}

// ContentSize reports the decompressed size recorded in a zstd frame header,
// if the header carries one.
func ContentSize(header []byte) (uint64, bool) {
	if DetectDataType(header) != DataTypeZstd {
		return 0, false
	}

	var h zstd.Header
	if err := h.Decode(header); err != nil {
		return 0, false
	}
	if h.Skippable || h.FrameContentSize == 0 {
		return 0, false
	}

	return h.FrameContentSize, true
}

// Stream is a decompressed view of an input stream.
type Stream struct {
	io.Reader
	Type DataType

	// ContentSize is the decompressed size announced by the container, or 0
	// if it is unknown.
	ContentSize uint64

	closer func() error
}

// Close releases the decompressor, if any. It does not close the underlying
// reader.
func (s *Stream) Close() error {
	if s.closer != nil {
		return s.closer()
	}

	return nil
}

// Decompress sniffs the compression format of r and wraps it in the matching
// decompressor. Streams without a known signature are passed through as-is.
// Nothing is consumed from r beyond what the decompressor reads.
func Decompress(r io.Reader) (*Stream, error) {
	br := bufio.NewReader(r)

	header, err := br.Peek(headerPeekSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading stream header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("reading stream header: %w", io.ErrUnexpectedEOF)
	}

	dt := DetectDataType(header)
	out := &Stream{Type: dt}

	switch dt {
	case DataTypeZstd:
		// The decoder is lazy, so a broken frame header would otherwise only
		// surface on the first read.
		var h zstd.Header
		if err := h.Decode(header); err != nil {
			return nil, fmt.Errorf("reading zstd frame header: %w", err)
		}
		if !h.Skippable {
			out.ContentSize = h.FrameContentSize
		}
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		out.Reader = dec
		out.closer = func() error { dec.Close(); return nil }
	case DataTypeGzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		out.Reader = gzr
		out.closer = gzr.Close
	case DataTypeZip:
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, err
		}
		out.Reader = zr
	case DataTypeBZip2:
		out.Reader = bzip2.NewReader(br)
	case DataTypeXZ:
		xzr, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, err
		}
		out.Reader = xzr
	case DataTypeZ:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, err
		}
		out.Reader = zr
		out.closer = zr.Close
	default:
		// No data type detected. For now, we assume this is uncompressed.
		out.Reader = br
	}

	return out, nil
}
