package rawframe

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/carbocation/pfx"
)

// ReadMean reads a flat, row-major little-endian float32 mean frame.
func ReadMean(r io.Reader, width, height int) (MeanFrame, error) {
	out := MeanFrame{Width: width, Height: height, Pix: make([]float32, width*height)}

	if err := binary.Read(bufio.NewReader(r), binary.LittleEndian, out.Pix); err != nil {
		return MeanFrame{}, pfx.Err(fmt.Errorf("reading %dx%d mean frame: %w", width, height, err))
	}

	return out, nil
}

// WriteMean writes m in the layout expected by ReadMean.
func WriteMean(w io.Writer, m MeanFrame) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, m.Pix); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(bw.Flush())
}

// ComputeMean averages a stack of equally sized frames pixel by pixel.
func ComputeMean(frames []Frame) (MeanFrame, error) {
	if len(frames) < 1 {
		return MeanFrame{}, fmt.Errorf("No frames were provided")
	}

	acc := NewMeanAccumulator(frames[0].Width, frames[0].Height)
	for i, f := range frames {
		if err := acc.Add(f); err != nil {
			return MeanFrame{}, fmt.Errorf("frame %d: %w", i, err)
		}
	}

	return acc.Mean(), nil
}

// MeanAccumulator builds a mean frame one frame at a time, so that a long
// stream never has to be held in memory.
type MeanAccumulator struct {
	width, height int
	n             int
	sum           []float64
}

func NewMeanAccumulator(width, height int) *MeanAccumulator {
	return &MeanAccumulator{width: width, height: height, sum: make([]float64, width*height)}
}

func (m *MeanAccumulator) Add(f Frame) error {
	if f.Width != m.width || f.Height != m.height {
		return fmt.Errorf("frame is %dx%d, expected %dx%d", f.Width, f.Height, m.width, m.height)
	}

	for i, v := range f.Pix {
		m.sum[i] += float64(v)
	}
	m.n++

	return nil
}

func (m *MeanAccumulator) Count() int { return m.n }

func (m *MeanAccumulator) Mean() MeanFrame {
	out := MeanFrame{Width: m.width, Height: m.height, Pix: make([]float32, len(m.sum))}
	if m.n == 0 {
		for i := range out.Pix {
			out.Pix[i] = float32(math.NaN())
		}
		return out
	}

	for i, v := range m.sum {
		out.Pix[i] = float32(v / float64(m.n))
	}

	return out
}
