package rownoise

import (
	"math/rand"

	"github.com/apertus-open-source-cinema/darkcal/rawframe"
)

const (
	testWidth  = 32
	testHeight = 16
)

// rowFrames returns frames whose rows are flat at BlackLevel plus rowValue.
func rowFrames(n int, rowValue func(frame, row int) int16) []rawframe.Frame {
	out := make([]rawframe.Frame, n)
	for i := range out {
		out[i] = rawframe.NewFrame(testWidth, testHeight)
		for row := 0; row < testHeight; row++ {
			samples := out[i].Row(row)
			v := BlackLevel + rowValue(i, row)
			for x := range samples {
				samples[x] = v
			}
		}
	}
	return out
}

// bayerFrames returns frames whose green samples (even columns of even rows,
// odd columns of odd rows) are BlackLevel plus green(row) and whose other
// samples are BlackLevel plus other(row).
func bayerFrames(n int, green, other func(row int) int16) []rawframe.Frame {
	out := make([]rawframe.Frame, n)
	for i := range out {
		out[i] = rawframe.NewFrame(testWidth, testHeight)
		for row := 0; row < testHeight; row++ {
			samples := out[i].Row(row)
			for x := range samples {
				if x%2 == row%2 {
					samples[x] = BlackLevel + green(row)
				} else {
					samples[x] = BlackLevel + other(row)
				}
			}
		}
	}
	return out
}

// flatMean is a reference mean at the black level, so that mean subtraction
// leaves frames unchanged.
func flatMean() *rawframe.MeanFrame {
	m := &rawframe.MeanFrame{Width: testWidth, Height: testHeight, Pix: make([]float32, testWidth*testHeight)}
	for i := range m.Pix {
		m.Pix[i] = BlackLevel
	}
	return m
}

func randomRowNoise(seed int64) func(frame, row int) int16 {
	rng := rand.New(rand.NewSource(seed))
	cache := map[[2]int]int16{}
	return func(frame, row int) int16 {
		key := [2]int{frame, row}
		if v, ok := cache[key]; ok {
			return v
		}
		v := int16(rng.Intn(21) - 10)
		cache[key] = v
		return v
	}
}
