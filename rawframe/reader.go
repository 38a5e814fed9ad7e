package rawframe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/apertus-open-source-cinema/darkcal"
)

// Option configures a Reader.
type Option func(*Reader)

// WithResolutions replaces the candidate list used for geometry detection.
func WithResolutions(resolutions ...Resolution) Option {
	return func(r *Reader) {
		r.resolutions = resolutions
	}
}

// WithFallback replaces the resolution assumed when detection fails.
func WithFallback(fallback Resolution) Option {
	return func(r *Reader) {
		r.fallback = fallback
	}
}

// Reader decodes a forward-only stream of back-to-back packed frames.
type Reader struct {
	resolutions []Resolution
	fallback    Resolution

	stream   *darkcal.Stream
	src      io.Reader
	geometry Geometry
	packed   []byte
	frames   int
}

// NewReader sniffs the compression of r, reads a detection sample and
// establishes the frame geometry. The sample is replayed, so the first frame
// returned by Next is the first frame of the stream.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	out := &Reader{
		resolutions: DefaultResolutions,
		fallback:    FallbackResolution,
	}
	for _, opt := range opts {
		opt(out)
	}

	stream, err := darkcal.Decompress(r)
	if err != nil {
		return nil, &FormatError{Err: err}
	}
	out.stream = stream

	maxFrameBytes := 0
	for _, res := range out.resolutions {
		if size := res.PackedSize(); size > maxFrameBytes {
			maxFrameBytes = size
		}
	}

	sample := make([]byte, 2*maxFrameBytes)
	n, err := io.ReadFull(stream, sample)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		stream.Close()
		return nil, &StreamError{Err: err}
	}
	sample = sample[:n]

	geometry, ok := DetectGeometry(sample, out.resolutions)
	if !ok {
		geometry = Geometry{Resolution: out.fallback, Fallback: true}
		log.Printf("Could not find valid corner markers for any of %v, assuming %s\n", out.resolutions, out.fallback)
	}
	if geometry.Width <= 0 || geometry.Height <= 0 || geometry.Width%2 != 0 {
		stream.Close()
		return nil, &FormatError{Err: fmt.Errorf("unusable frame geometry %s", geometry.Resolution)}
	}

	out.geometry = geometry
	out.src = io.MultiReader(bytes.NewReader(sample), stream)
	out.packed = make([]byte, geometry.PackedSize())

	return out, nil
}

// Geometry returns the detected (or assumed) frame geometry.
func (r *Reader) Geometry() Geometry {
	return r.geometry
}

// DataType returns the compression format of the underlying stream.
func (r *Reader) DataType() darkcal.DataType {
	return r.stream.Type
}

// FrameCount estimates the number of frames in the stream from the
// decompressed size announced in the container header. It returns false if
// the container does not announce its size.
func (r *Reader) FrameCount() (int, bool) {
	if r.stream.ContentSize == 0 {
		return 0, false
	}

	return int(8 * r.stream.ContentSize / uint64(r.geometry.Height) / uint64(r.geometry.Width) / BitDepth), true
}

// NextPacked returns the packed bytes of the next frame. The returned slice is
// reused by subsequent calls. A stream that ends before a full frame has been
// read yields io.EOF.
func (r *Reader) NextPacked() ([]byte, error) {
	if _, err := io.ReadFull(r.src, r.packed); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, &StreamError{Frame: r.frames, Err: err}
	}
	r.frames++

	return r.packed, nil
}

// Next decodes the next frame. It returns io.EOF at the end of the stream,
// including when the stream ends in the middle of a frame.
func (r *Reader) Next() (Frame, error) {
	packed, err := r.NextPacked()
	if err != nil {
		return Frame{}, err
	}

	frame := NewFrame(r.geometry.Width, r.geometry.Height)
	Unpack12(frame.Pix, packed)

	return frame, nil
}

// Close releases the decompressor. It does not close the reader passed to
// NewReader.
func (r *Reader) Close() error {
	return r.stream.Close()
}

// ReadFrames decodes up to count frames from r. If count is not positive, the
// count is taken from the container header when available, and otherwise the
// whole stream is read.
func ReadFrames(r io.Reader, count int, opts ...Option) ([]Frame, Geometry, error) {
	rdr, err := NewReader(r, opts...)
	if err != nil {
		return nil, Geometry{}, err
	}
	defer rdr.Close()

	if count <= 0 {
		if n, ok := rdr.FrameCount(); ok {
			count = n
		}
	}

	frames := make([]Frame, 0, max(count, 0))
	for count <= 0 || len(frames) < count {
		frame, err := rdr.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, rdr.Geometry(), err
		}

		frames = append(frames, frame)
	}

	return frames, rdr.Geometry(), nil
}
