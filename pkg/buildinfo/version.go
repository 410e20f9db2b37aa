// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/stackreqs/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/stackreqs/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/stackreqs/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the semantic version of the binary (e.g., "v0.3.0").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template string for cobra. The config schema
// version is reported alongside the binary version since it decides how
// .HA_VERSION files are judged.
func Template(schema string) string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\nconfig schema: %s\n", Version, Commit, Date, schema)
}
