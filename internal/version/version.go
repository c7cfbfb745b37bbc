// Package version holds the cardpanda build metadata, injected with
// -ldflags "-X github.com/MeKo-Tech/cardpanda/internal/version.Version=...".
package version

// Set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version, commit and build date printed by
// "cardpanda --version".
func Info() (version, commit, date string) {
	return Version, GitCommit, BuildDate
}
