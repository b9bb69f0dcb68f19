// Package version holds build metadata injected at link time:
//
//	go build -ldflags "-X github.com/jeanpaul/alacrity/pkg/version.Version=v0.3.0 ..."
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
