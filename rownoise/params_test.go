package rownoise

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNParams(t *testing.T) {
	cases := []struct {
		params ModelParameters
		want   int
	}{
		{ModelParameters{NumGreenLags: 1}, 3},
		{ModelParameters{NumDarkColRows: 1}, 33},
		{ModelParameters{HasDarkColumn: true}, 17},
		{ModelParameters{NumGreenLags: 2, NumDarkColRows: 2, HasDarkColumn: true}, 4 + 3*32 + 16 + 1},
		{ModelParameters{NumGreenLags: 3, NumDarkColRows: 2}, 6 + 96 + 1},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, c.params.NParams(), "%+v", c.params)
		assert.Equal(t, c.want-1, c.params.NumFeatures(), "%+v", c.params)
	}
}

func TestNumUncorrectable(t *testing.T) {
	assert.Equal(t, 3, ModelParameters{NumGreenLags: 3, NumDarkColRows: 2}.NumUncorrectable())
	assert.Equal(t, 4, ModelParameters{NumGreenLags: 1, NumDarkColRows: 3}.NumUncorrectable())
	assert.Equal(t, 0, ModelParameters{NumDarkColRows: 1}.NumUncorrectable())
	assert.Equal(t, 0, ModelParameters{HasDarkColumn: true}.NumUncorrectable())
}

func TestValidate(t *testing.T) {
	require.NoError(t, ModelParameters{HasDarkColumn: true}.Validate())

	var cfgErr *ConfigError
	err := ModelParameters{}.Validate()
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, ModelParameters{}, cfgErr.Params)

	err = ModelParameters{NumGreenLags: -1, NumDarkColRows: 1}.Validate()
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
}
