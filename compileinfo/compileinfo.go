// Package compileinfo reports the build metadata the Go toolchain embeds in
// every binary, so that a fitted model can be traced back to the code that
// produced it.
package compileinfo

import (
	"fmt"
	"log"
	"runtime/debug"
)

type CompileInfo struct {
	Binary     string
	Module     string
	Version    string
	GoVersion  string
	Revision   string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.Binary == "" {
		return "No build information is embedded in this binary."
	}

	dirty := ""
	if c.Modified {
		dirty = " (with uncommitted changes)"
	}

	rev := c.Revision
	if rev == "" {
		rev = "unknown"
	}

	return fmt.Sprintf("%s %s built with %s from revision %s%s at %s", c.Binary, c.Version, c.GoVersion, rev, dirty, c.CommitTime)
}

// Get reads the build information of the running binary. The zero value is
// returned if there is none, for example in tests.
func Get() CompileInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(bi)
}

func fromBuildInfo(bi *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		Binary:    bi.Path,
		Module:    bi.Main.Path,
		Version:   bi.Main.Version,
		GoVersion: bi.GoVersion,
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Revision = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// Log writes the build information through the standard logger.
func Log() {
	log.Println(Get())
}
