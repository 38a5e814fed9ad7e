package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/apertus-open-source-cinema/darkcal/rawframe"
	"github.com/apertus-open-source-cinema/darkcal/rownoise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrames(t *testing.T, dir string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		img := image.NewGray16(image.Rect(0, 0, 32, 16))
		for y := 0; y < 16; y++ {
			for x := 0; x < 32; x++ {
				img.SetGray16(x, y, color.Gray16{Y: uint16(128 + (y*7+i*3)%11)})
			}
		}

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("frame%03d.png", i)), buf.Bytes(), 0o644))
	}
}

func TestLoadFramesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, 3)

	frames, err := loadFrames(dir, 2)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, 32, frames[0].Width)
	assert.Equal(t, int16(128+7%11), frames[0].At(0, 1))
}

func TestLoadMeanAndResiduals(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, 4)

	frames, err := loadFrames(dir, 0)
	require.NoError(t, err)

	mean, err := rawframe.ComputeMean(frames)
	require.NoError(t, err)

	meanPath := filepath.Join(t.TempDir(), "mean.bin")
	f, err := os.Create(meanPath)
	require.NoError(t, err)
	require.NoError(t, rawframe.WriteMean(f, mean))
	require.NoError(t, f.Close())

	got, err := loadMean(meanPath, 32, 16)
	require.NoError(t, err)
	assert.Equal(t, mean, got)

	ds, err := rownoise.BuildDataset(frames, &got, rownoise.ModelParameters{NumGreenLags: 1, NumDarkColRows: 1}, rownoise.BuildOptions{})
	require.NoError(t, err)
	weights, _, err := rownoise.Fit(ds, rownoise.SplitParity)
	require.NoError(t, err)

	residualsPath := filepath.Join(t.TempDir(), "residuals.tsv")
	require.NoError(t, writeResiduals(residualsPath, ds, weights))

	b, err := os.ReadFile(residualsPath)
	require.NoError(t, err)
	assert.Equal(t, ds.Len()+1, bytes.Count(b, []byte("\n")))
}

func TestFlagDefaults(t *testing.T) {
	var cfg config
	fs := newFlagSet("rownoisemodel", &cfg)
	var buf bytes.Buffer
	fs.SetOutput(&buf)

	require.NoError(t, fs.Parse([]string{"stack"}))
	assert.Equal(t, "stack", fs.Arg(0))
	assert.Equal(t, rownoise.ModelParameters{NumGreenLags: 3, NumDarkColRows: 2}, cfg.params())
	require.NoError(t, cfg.params().Validate())

	fs.Usage()
	assert.Contains(t, buf.String(), "Without model flags, 3 green difference lags and 2 dark column row lags are fitted.")
}

func TestFlagsWithoutFeatures(t *testing.T) {
	var cfg config
	fs := newFlagSet("rownoisemodel", &cfg)

	require.NoError(t, fs.Parse([]string{"-green-diff-lags=0", "-dark-column-rows=0", "stack"}))

	var cfgErr *rownoise.ConfigError
	assert.True(t, errors.As(cfg.params().Validate(), &cfgErr))
}
