package compileinfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.23.0",
		Path:      "github.com/apertus-open-source-cinema/darkcal/cmd/rownoisemodel",
		Main:      debug.Module{Path: "github.com/apertus-open-source-cinema/darkcal", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2024-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	got := fromBuildInfo(bi)
	assert.Equal(t, "abc123", got.Revision)
	assert.True(t, got.Modified)
	assert.Equal(t, "github.com/apertus-open-source-cinema/darkcal", got.Module)
	assert.Equal(t, "github.com/apertus-open-source-cinema/darkcal/cmd/rownoisemodel (devel) built with go1.23.0 from revision abc123 (with uncommitted changes) at 2024-01-02T03:04:05Z", got.String())
}

func TestEmpty(t *testing.T) {
	assert.Equal(t, "No build information is embedded in this binary.", CompileInfo{}.String())
}
