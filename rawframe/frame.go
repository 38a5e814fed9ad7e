// Package rawframe decodes the packed 12-bit raw frame streams recorded by the
// camera, detects their geometry from the corner markers the sensor embeds in
// every frame, and reads and writes the flat float32 reference mean frames used
// during dark-frame calibration.
package rawframe

import "fmt"

// Frame is one decoded sensor frame. Pix holds Height rows of Width samples.
type Frame struct {
	Width  int
	Height int
	Pix    []int16
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height, Pix: make([]int16, width*height)}
}

// Row returns the samples of row y. The slice aliases the frame.
func (f Frame) Row(y int) []int16 {
	return f.Pix[y*f.Width : (y+1)*f.Width]
}

func (f Frame) At(x, y int) int16 {
	return f.Pix[y*f.Width+x]
}

// MeanFrame is a per-pixel reference mean, typically averaged over a large
// stack of dark frames.
type MeanFrame struct {
	Width  int
	Height int
	Pix    []float32
}

func (m MeanFrame) At(x, y int) float32 {
	return m.Pix[y*m.Width+x]
}

// CheckSize returns an error unless all frames share the mean's geometry.
func (m MeanFrame) CheckSize(frames []Frame) error {
	for i, f := range frames {
		if f.Width != m.Width || f.Height != m.Height {
			return fmt.Errorf("frame %d is %dx%d, but the mean frame is %dx%d", i, f.Width, f.Height, m.Width, m.Height)
		}
		if len(f.Pix) != f.Width*f.Height {
			return fmt.Errorf("frame %d has %d samples, expected %d", i, len(f.Pix), f.Width*f.Height)
		}
	}

	return nil
}
