// Package version carries build metadata set via ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/panorama/internal/version.Version=v1.2.0"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String is the one-line form printed by --version.
func String() string {
	return fmt.Sprintf("panorama %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
