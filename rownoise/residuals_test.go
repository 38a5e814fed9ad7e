package rownoise

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestWriteResiduals(t *testing.T) {
	params := ModelParameters{NumGreenLags: 1, NumDarkColRows: 1}
	ds, err := BuildDataset(rowFrames(2, randomRowNoise(11)), flatMean(), params, BuildOptions{})
	require.NoError(t, err)

	weights, _, err := Fit(ds, SplitParity)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteResiduals(&buf, ds, weights))

	r := csv.NewReader(&buf)
	r.Comma = '\t'
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, ds.Len()+1)
	assert.Equal(t, []string{"frame", "row", "parity", "correctable", "target", "fitted", "residual"}, records[0])
	assert.Equal(t, []string{"0", "0", "even", "false"}, records[1][:4])
	assert.Equal(t, []string{"1", "3", "odd", "true"}, records[testHeight+4][:4])
}

