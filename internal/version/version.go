// Package version reports build metadata stamped with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders "vowelpro <version> (commit=..., date=..., go=...)". An
// unstamped build falls back to the module version `go install` records.
func String() string {
	v := Version
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("vowelpro %s (commit=%s, date=%s, go=%s)", v, Commit, Date, runtime.Version())
}
