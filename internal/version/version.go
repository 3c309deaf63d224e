// Package version carries build metadata stamped in at link time.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the one-line form printed by the version command.
func String() string {
	return fmt.Sprintf("voxcart %s (commit=%s, date=%s, go=%s)", Version, Commit, Date, runtime.Version())
}
