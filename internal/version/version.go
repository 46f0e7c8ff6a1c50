// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent identifies this build to upstream providers.
func UserAgent() string {
	return fmt.Sprintf("dinewise/%s (%s)", Version, Commit)
}
