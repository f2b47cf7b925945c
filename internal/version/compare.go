package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// CheckVersionCompatibility checks whether a file written at storedVersion
// can be read by code at currentVersion.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major versions must match exactly
//   - The stored minor version must not be newer than the current one
//   - Patch versions can differ
//
// Examples:
//   - Current 1.2.0, Stored 1.2.0 -> OK (exact match)
//   - Current 1.2.1, Stored 1.2.0 -> OK (patch differs)
//   - Current 1.3.0, Stored 1.2.0 -> OK (older file, new fields take zero values)
//   - Current 1.2.0, Stored 1.3.0 -> ERROR (file written by newer code)
//   - Current 2.0.0, Stored 1.2.0 -> ERROR (major differs)
func CheckVersionCompatibility(currentVersion, storedVersion string) error {
	currentVersion = strings.TrimPrefix(currentVersion, "v")
	storedVersion = strings.TrimPrefix(storedVersion, "v")

	if currentVersion == "main" || storedVersion == "main" {
		return nil
	}

	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid current version '%s'", currentVersion)
	}

	stored, err := semver.NewVersion(storedVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid stored version '%s'", storedVersion)
	}

	if current.Major() != stored.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "major version mismatch: reader is %d.x.x but file is %d.x.x",
			current.Major(), stored.Major())
	}

	if stored.Minor() > current.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "file version %s is newer than reader version %s",
			stored.String(), current.String())
	}

	return nil
}
