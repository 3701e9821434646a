// Package version carries build metadata stamped by the linker.
package version

import (
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line printed by `hark version`.
func String() string {
	return "hark " + Resolved() + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}

// Resolved returns Version, falling back to the module version recorded by
// `go install` when the linker did not stamp one.
func Resolved() string {
	if Version != "dev" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return Version
	}
	return info.Main.Version
}
