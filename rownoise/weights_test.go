package rownoise

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) + 0.25
	}
	return out
}

func TestPackUnpack(t *testing.T) {
	params := ModelParameters{NumGreenLags: 2, NumDarkColRows: 2, HasDarkColumn: true}
	packed := sequence(params.NParams())

	half, err := params.Unpack(packed)
	require.NoError(t, err)

	assert.Equal(t, [2]float64{0.25, 1.25}, half.GreenDiffWeights[0])
	assert.Equal(t, [2]float64{2.25, 3.25}, half.GreenDiffWeights[1])
	require.Len(t, half.DarkColRowWeights, 3)
	assert.Equal(t, 4.25, half.DarkColRowWeights[0][0][0])
	assert.Equal(t, 4.25+darkColBlock, half.DarkColRowWeights[0][1][0])
	assert.Equal(t, 4.25+2*darkColBlock, half.DarkColRowWeights[1][0][0])
	require.Len(t, half.DarkColMeanWeights, darkColBlock)
	assert.Equal(t, 4.25+6*darkColBlock, half.DarkColMeanWeights[0])
	assert.Equal(t, packed[len(packed)-1], half.Offset)

	assert.Equal(t, packed, half.Pack())
	assert.Equal(t, params, half.Parameters())
}

func TestUnpackLength(t *testing.T) {
	params := ModelParameters{NumGreenLags: 1}

	_, err := params.Unpack(make([]float64, 2))
	assert.Error(t, err)
	_, err = params.Unpack(make([]float64, 4))
	assert.Error(t, err)

	half, err := ModelParameters{HasDarkColumn: true}.Unpack(sequence(17))
	require.NoError(t, err)
	assert.Nil(t, half.GreenDiffWeights)
	assert.Nil(t, half.DarkColRowWeights)
}

func TestSerializeNullArrays(t *testing.T) {
	half, err := ModelParameters{NumDarkColRows: 1}.Unpack(sequence(33))
	require.NoError(t, err)
	model := ModelWeights{WeightsEven: half, WeightsOdd: half}

	var buf bytes.Buffer
	require.NoError(t, model.Serialize(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "weights_even:\n"), out)
	assert.Contains(t, out, "\nweights_odd:\n")
	assert.Contains(t, out, "green_diff_weights: null")
	assert.Contains(t, out, "dark_col_mean_weights: null")
	assert.Contains(t, out, "offset: 32.25")
	assert.Less(t, strings.Index(out, "green_diff_weights"), strings.Index(out, "dark_col_row_weights"))
	assert.Less(t, strings.Index(out, "dark_col_row_weights"), strings.Index(out, "dark_col_mean_weights"))
	assert.Less(t, strings.Index(out, "dark_col_mean_weights"), strings.Index(out, "offset"))
}

func TestSerializeRoundTrip(t *testing.T) {
	params := ModelParameters{NumGreenLags: 3, NumDarkColRows: 2, HasDarkColumn: true}
	even, err := params.Unpack(sequence(params.NParams()))
	require.NoError(t, err)
	odd := even
	odd.Offset = -3

	model := ModelWeights{WeightsEven: even, WeightsOdd: odd}

	parsed, gotParams, err := ParseModelWeights(strings.NewReader(model.String()))
	require.NoError(t, err)
	assert.Equal(t, params, gotParams)
	assert.Equal(t, model, parsed)
}

func TestParseModelWeightsErrors(t *testing.T) {
	_, _, err := ParseModelWeights(strings.NewReader(`
weights_even:
  green_diff_weights: [[1.0, 2.0, 3.0]]
  offset: 1.0
weights_odd:
  offset: 1.0
`))
	assert.Error(t, err)

	_, _, err = ParseModelWeights(strings.NewReader(`
weights_even:
  green_diff_weights: [[1.0, 2.0]]
  offset: 1.0
weights_odd:
  green_diff_weights: null
  offset: 1.0
`))
	assert.Error(t, err)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.0", formatFloat(1))
	assert.Equal(t, "-0.5", formatFloat(-0.5))
	assert.Equal(t, "1e-07", formatFloat(1e-7))
	assert.Equal(t, ".nan", formatFloat(nan()))
}
