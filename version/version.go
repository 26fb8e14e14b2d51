package version

import "fmt"

// Set at link time with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "unknown"
)

func String() string {
	return fmt.Sprintf("nicinspect %s (commit %s)", Version, Commit)
}
