package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionFileName records the version that last used the config directory.
const VersionFileName = ".HA_VERSION"

// SchemaVersion is the configuration schema this tool understands.
const SchemaVersion = "0.27.0"

// VersionStatus classifies the recorded version against SchemaVersion.
type VersionStatus int

const (
	VersionUnknown VersionStatus = iota // no version file
	VersionCurrent                      // same version
	VersionOlder                        // directory needs an upgrade
	VersionNewer                        // written by a newer release
)

func (s VersionStatus) String() string {
	switch s {
	case VersionCurrent:
		return "current"
	case VersionOlder:
		return "older"
	case VersionNewer:
		return "newer"
	default:
		return "unknown"
	}
}

// VersionCheck is the result of CheckVersion.
type VersionCheck struct {
	Recorded string
	Current  string
	Status   VersionStatus
}

// CheckVersion compares the version recorded in <dir>/.HA_VERSION with
// current. It never modifies the directory.
func CheckVersion(dir, current string) (VersionCheck, error) {
	check := VersionCheck{Current: current}

	want, err := semver.NewVersion(current)
	if err != nil {
		return check, fmt.Errorf("semver: parse version %q: %w", current, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, VersionFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return check, nil
	}
	if err != nil {
		return check, err
	}

	check.Recorded = strings.TrimSpace(string(data))
	got, err := semver.NewVersion(check.Recorded)
	if err != nil {
		return check, fmt.Errorf("semver: parse version %q: %w", check.Recorded, err)
	}

	switch got.Compare(want) {
	case -1:
		check.Status = VersionOlder
	case 1:
		check.Status = VersionNewer
	default:
		check.Status = VersionCurrent
	}
	return check, nil
}
