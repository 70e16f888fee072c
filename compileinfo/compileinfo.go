// Package compileinfo reports which build of a command produced a result, so
// that output tables can be traced back to a commit.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

type CompileInfo struct {
	Command    string
	Module     string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.Command == "" {
		return "zscore: no build information available"
	}

	version := c.Version
	if version == "" || version == "(devel)" {
		version = "a development build"
	}

	out := fmt.Sprintf("%s (%s, %s) built with %s", c.Command, c.Module, version, c.GoVersion)
	if c.Commit != "" {
		out += fmt.Sprintf(" at commit %s (%s)", c.Commit, c.CommitTime)
	}
	if c.Modified {
		out += " with uncommitted changes"
	}

	return out
}

func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		Command:   z.Path,
		Module:    z.Main.Path,
		Version:   z.Main.Version,
		GoVersion: z.GoVersion,
	}

	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func Fprint(w io.Writer) {
	fmt.Fprintln(w, Get())
}

func PrintToStdErr() {
	Fprint(os.Stderr)
}
