package rawframe

import "fmt"

// Resolution is a candidate frame size in pixels.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// PackedSize is the number of stream bytes per frame at this resolution.
func (r Resolution) PackedSize() int {
	return PackedSize(r.Width, r.Height)
}

// LineBytes is the number of stream bytes per sensor row.
func (r Resolution) LineBytes() int {
	return r.Width * BitDepth / 8
}

var (
	// DefaultResolutions are tried in order during geometry detection.
	DefaultResolutions = []Resolution{
		{Width: 3840, Height: 2160},
		{Width: 4096, Height: 2160},
	}

	// FallbackResolution is used when no candidate validates. This is a
	// pragmatic default for the current sensor readout, not a verified
	// result; streams from other geometries will decode as garbage.
	FallbackResolution = Resolution{Width: 4096, Height: 2160}
)

// Markers embedded in the last byte of each corner group. The even-line and
// odd-line halves of a frame always carry complementary markers.
const (
	MarkerA byte = 0x55
	MarkerB byte = 0xAA
)

var complementaryMarkers = map[byte]byte{
	MarkerA: MarkerB,
	MarkerB: MarkerA,
}

// ComplementaryMarker returns the marker the other half of a frame must carry
// if m is a registered marker.
func ComplementaryMarker(m byte) (byte, bool) {
	c, ok := complementaryMarkers[m]
	return c, ok
}

// CornerMarker is the 3-byte tag found in each corner of a frame half.
type CornerMarker struct {
	FrameNumber byte
	WriteSelect byte
	Marker      byte
}

func parseCornerMarker(b []byte) CornerMarker {
	return CornerMarker{FrameNumber: b[0], WriteSelect: b[1], Marker: b[2]}
}

// Geometry is the outcome of format detection.
type Geometry struct {
	Resolution

	// Offset is the byte offset into the detection sample at which the
	// validating frame was found. Decoding always starts at the beginning of
	// the stream.
	Offset int

	// Fallback is set if no candidate validated and FallbackResolution was
	// assumed.
	Fallback bool
}

// Corners holds the corner markers of the even-line and odd-line halves of a
// frame, in the order top-left, top-right, bottom-left, bottom-right.
type Corners struct {
	Even [4]CornerMarker
	Odd  [4]CornerMarker
}

// ReadCorners extracts the corner markers of the frame starting at packed[0]
// under resolution r. The even half consists of rows 0, 2, 4, ...; the odd
// half of rows 1, 3, 5, ...
func ReadCorners(packed []byte, r Resolution) (Corners, bool) {
	var out Corners

	lb := r.LineBytes()
	if r.Width < 2 || r.Height < 2 || r.Height%2 != 0 || len(packed) < lb*r.Height {
		return out, false
	}

	lastGroup := 3 * (r.Width/2 - 1)
	for half := 0; half < 2; half++ {
		top := half * lb
		bottom := (r.Height - 2 + half) * lb

		corners := [4]CornerMarker{
			parseCornerMarker(packed[top:]),
			parseCornerMarker(packed[top+lastGroup:]),
			parseCornerMarker(packed[bottom:]),
			parseCornerMarker(packed[bottom+lastGroup:]),
		}
		if half == 0 {
			out.Even = corners
		} else {
			out.Odd = corners
		}
	}

	return out, true
}

// consistentMarker reports whether all corners of one half agree on the frame
// number and the marker.
func consistentMarker(corners [4]CornerMarker) (byte, bool) {
	for _, c := range corners[1:] {
		if c.FrameNumber != corners[0].FrameNumber || c.Marker != corners[0].Marker {
			return 0, false
		}
	}

	return corners[0].Marker, true
}

// Valid reports whether both halves are internally consistent and carry a
// registered complementary marker pair.
func (c Corners) Valid() bool {
	even, ok := consistentMarker(c.Even)
	if !ok {
		return false
	}
	odd, ok := consistentMarker(c.Odd)
	if !ok {
		return false
	}

	want, ok := ComplementaryMarker(even)
	return ok && want == odd
}

// DetectGeometry searches the candidate resolutions, in order, for the first
// one whose corner markers validate. Each resolution is tried at offset 0 and
// at an offset of one frame, which tolerates a sample that starts with the
// second half of a doubled read.
func DetectGeometry(sample []byte, resolutions []Resolution) (Geometry, bool) {
	for _, r := range resolutions {
		for _, offset := range []int{0, r.PackedSize()} {
			if offset >= len(sample) {
				continue
			}

			corners, ok := ReadCorners(sample[offset:], r)
			if !ok || !corners.Valid() {
				continue
			}

			return Geometry{Resolution: r, Offset: offset}, true
		}
	}

	return Geometry{}, false
}
