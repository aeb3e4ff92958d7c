// Package brew models Homebrew packages and taps and wraps the brew
// command-line tool behind typed fetch and action methods.
package brew

import "strings"

// SourceKind identifies where a package comes from.
type SourceKind string

const (
	SourceFormula SourceKind = "formula"
	SourceCask    SourceKind = "cask"
	SourceApp     SourceKind = "app"
)

// VersionUnknown is the sentinel recorded when a fetch did not report a
// version for a package.
const VersionUnknown = "unknown"

// PackageID builds the stable identifier for a package. Identity and
// equality are defined solely by this id, which lets partial records from
// different fetches be merged.
func PackageID(kind SourceKind, name string) string {
	return string(kind) + "-" + name
}

// Package is one unit of installable software. Records are constructed
// fresh on every fetch cycle and never mutated in place; merges produce new
// records.
type Package struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Version            string     `json:"version"`
	InstalledVersion   string     `json:"installed_version,omitempty"`
	LatestVersion      string     `json:"latest_version,omitempty"`
	Description        string     `json:"description"`
	Homepage           string     `json:"homepage"`
	Installed          bool       `json:"installed"`
	Outdated           bool       `json:"outdated"`
	Source             SourceKind `json:"source"`
	Pinned             bool       `json:"pinned"`
	InstalledOnRequest bool       `json:"installed_on_request"`
	// StoreID is the numeric App Store identifier, set only for app-kind
	// packages; mas addresses packages by this id.
	StoreID string `json:"store_id,omitempty"`
	// Dependencies lists direct dependencies by bare name, resolved
	// against packages of the same source kind.
	Dependencies []string `json:"dependencies,omitempty"`
}

// OutdatedPackage is one entry of an outdated query. It is authoritative
// only for the outdated flag and the newest version, never for metadata.
type OutdatedPackage struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	InstalledVersion string     `json:"installed_version"`
	CurrentVersion   string     `json:"current_version"`
	Source           SourceKind `json:"source"`
}

// Tap is a registered package repository. Identity is the name; records are
// replaced wholesale on each tap-list fetch.
type Tap struct {
	Name         string   `json:"name"`
	Remote       string   `json:"remote"`
	Official     bool     `json:"official"`
	FormulaNames []string `json:"formula_names,omitempty"`
	CaskTokens   []string `json:"cask_tokens,omitempty"`
}

// ConfigEntry is one "key: value" line of brew config output.
type ConfigEntry struct {
	Key   string
	Value string
}

// SearchResult is one hit of a name search, tagged with whether the package
// is already installed.
type SearchResult struct {
	Name        string
	Source      SourceKind
	IsInstalled bool
}

// normalizeRemote strips the VCS suffix from a repository URL so that
// remotes compare and display consistently.
func normalizeRemote(remote string) string {
	return strings.TrimSuffix(remote, ".git")
}
