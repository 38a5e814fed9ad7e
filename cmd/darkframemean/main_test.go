package main

import (
	"bytes"
	"testing"

	"github.com/apertus-open-source-cinema/darkcal/rawframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tiny = rawframe.Resolution{Width: 16, Height: 8}

// flatFrame packs a frame of constant samples whose corner groups carry
// valid markers. The marker bytes change the decoded corner samples, so only
// the interior is compared below.
func flatFrame(number byte, fill int16) []byte {
	samples := make([]int16, tiny.Width*tiny.Height)
	for i := range samples {
		samples[i] = fill
	}
	packed := make([]byte, tiny.PackedSize())
	rawframe.Pack12(packed, samples)

	lb := tiny.LineBytes()
	lastGroup := 3 * (tiny.Width/2 - 1)
	for _, line := range []int{0, 1, tiny.Height - 2, tiny.Height - 1} {
		marker := byte(rawframe.MarkerA)
		if line%2 == 1 {
			marker = rawframe.MarkerB
		}
		for _, group := range []int{0, lastGroup} {
			copy(packed[line*lb+group:], []byte{number, 1, marker})
		}
	}

	return packed
}

func TestStreamMean(t *testing.T) {
	var stream []byte
	for i, fill := range []int16{100, 110, 120, 130} {
		stream = append(stream, flatFrame(byte(i), fill)...)
	}

	mean, err := streamMean(bytes.NewReader(stream), 0, rawframe.WithResolutions(tiny))
	require.NoError(t, err)
	assert.Equal(t, tiny.Width, mean.Width)
	assert.Equal(t, tiny.Height, mean.Height)
	assert.InDelta(t, 115, mean.At(5, 3), 1e-6)

	mean, err = streamMean(bytes.NewReader(stream), 2, rawframe.WithResolutions(tiny))
	require.NoError(t, err)
	assert.InDelta(t, 105, mean.At(5, 3), 1e-6)
}
