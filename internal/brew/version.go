package brew

import version "github.com/hashicorp/go-version"

// VersionNewer reports whether candidate is a strictly newer version than
// base. Homebrew versions are not always semver (e.g. "9.0_1", "2024-01"),
// so when either side fails to parse the comparison falls back to plain
// inequality: a changed version string is treated as an upgrade.
func VersionNewer(candidate, base string) bool {
	if candidate == "" || candidate == VersionUnknown {
		return false
	}
	cv, errC := version.NewVersion(candidate)
	bv, errB := version.NewVersion(base)
	if errC != nil || errB != nil {
		return candidate != base
	}
	return cv.GreaterThan(bv)
}
