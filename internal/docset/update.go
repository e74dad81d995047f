package docset

import "github.com/Masterminds/semver/v3"

// CheckUpdate compares the installed version with the latest published one
// and records whether an update is available. Versions are compared as
// semantic versions when both parse, otherwise any difference counts as
// newer. Equal versions fall back to the revision number.
func (d *Docset) CheckUpdate(latestVersion string, latestRevision int) bool {
	available := isNewer(d.version, d.revision, latestVersion, latestRevision)
	d.updateAvailable.Store(available)
	return available
}

func isNewer(version string, revision int, latestVersion string, latestRevision int) bool {
	if latestVersion == "" {
		return false
	}

	current, errCurrent := semver.NewVersion(version)
	latest, errLatest := semver.NewVersion(latestVersion)
	if errCurrent == nil && errLatest == nil {
		if !latest.Equal(current) {
			return latest.GreaterThan(current)
		}
	} else if version != latestVersion {
		return true
	}

	return latestRevision > revision
}
