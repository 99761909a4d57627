package compileinfo

import (
	"fmt"
	"os"
	"runtime/debug"
)

type CompileInfo struct {
	Package    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	mod := ""
	if c.Modified {
		mod = " The working tree was dirty at build time."
	}

	return fmt.Sprintf("%s built with %s from commit %v (%v).%s", c.Package, c.GoVersion, c.Commit, c.CommitTime, mod)
}

// Short is a compact form suitable for HTTP Server headers and log prefixes.
func (c CompileInfo) Short() string {
	commit := c.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}

	return fmt.Sprintf("paleochron/%s", commit)
}

func Get() CompileInfo {
	out := CompileInfo{}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
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

func PrintToStdErr() {
	z := Get()
	fmt.Fprintf(os.Stderr, "%s\n", z)
}
