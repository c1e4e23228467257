package version

import "fmt"

// set via ldflags
//
//nolint:gochecknoglobals // by design
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	FullVersion = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
)
