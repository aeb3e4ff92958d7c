package brew

import (
	"encoding/json"
	"fmt"
	"strings"
)

// infoOutput mirrors `brew info --json=v2 --installed`.
type infoOutput struct {
	Formulae []formulaInfo `json:"formulae"`
	Casks    []caskInfo    `json:"casks"`
}

type formulaInfo struct {
	Name         string             `json:"name"`
	Desc         string             `json:"desc"`
	Homepage     string             `json:"homepage"`
	Versions     formulaVersions    `json:"versions"`
	Installed    []installedVersion `json:"installed"`
	Pinned       bool               `json:"pinned"`
	Dependencies []string           `json:"dependencies"`
}

type formulaVersions struct {
	Stable string `json:"stable"`
}

type installedVersion struct {
	Version               string `json:"version"`
	InstalledAsDependency bool   `json:"installed_as_dependency"`
	InstalledOnRequest    bool   `json:"installed_on_request"`
}

type caskInfo struct {
	Token     string `json:"token"`
	Desc      string `json:"desc"`
	Homepage  string `json:"homepage"`
	Version   string `json:"version"`
	Installed string `json:"installed"`
}

// ParseInstalled parses `brew info --json=v2 --installed` output into
// formula and cask package lists. Missing optional fields degrade to
// defaults; they never fail the parse.
func ParseInstalled(data []byte) (formulae, casks []Package, err error) {
	var out infoOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, nil, fmt.Errorf("failed to parse installed packages: %w", err)
	}

	formulae = make([]Package, 0, len(out.Formulae))
	for _, f := range out.Formulae {
		pkg := Package{
			ID:           PackageID(SourceFormula, f.Name),
			Name:         f.Name,
			Version:      orUnknown(f.Versions.Stable),
			Description:  f.Desc,
			Homepage:     f.Homepage,
			Installed:    true,
			Source:       SourceFormula,
			Pinned:       f.Pinned,
			Dependencies: f.Dependencies,
		}
		if pkg.Dependencies == nil {
			pkg.Dependencies = []string{}
		}
		if len(f.Installed) > 0 {
			pkg.InstalledVersion = orUnknown(f.Installed[0].Version)
			pkg.InstalledOnRequest = f.Installed[0].InstalledOnRequest
		} else {
			pkg.InstalledVersion = VersionUnknown
		}
		formulae = append(formulae, pkg)
	}

	casks = make([]Package, 0, len(out.Casks))
	for _, c := range out.Casks {
		pkg := Package{
			ID:                 PackageID(SourceCask, c.Token),
			Name:               c.Token,
			Version:            orUnknown(c.Version),
			InstalledVersion:   orUnknown(c.Installed),
			Description:        c.Desc,
			Homepage:           c.Homepage,
			Installed:          true,
			Source:             SourceCask,
			InstalledOnRequest: true,
			Dependencies:       []string{},
		}
		casks = append(casks, pkg)
	}

	return formulae, casks, nil
}

// outdatedOutput mirrors `brew outdated --json=v2`.
type outdatedOutput struct {
	Formulae []outdatedEntry `json:"formulae"`
	Casks    []outdatedEntry `json:"casks"`
}

type outdatedEntry struct {
	Name              string   `json:"name"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
}

// ParseOutdated parses `brew outdated --json=v2` output. Entries lacking
// both an installed and a current version carry no usable information and
// are dropped; the rest of the set still parses.
func ParseOutdated(data []byte) ([]OutdatedPackage, error) {
	var out outdatedOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse outdated packages: %w", err)
	}

	var result []OutdatedPackage
	appendEntries := func(entries []outdatedEntry, kind SourceKind) {
		for _, e := range entries {
			if len(e.InstalledVersions) == 0 && e.CurrentVersion == "" {
				continue
			}
			od := OutdatedPackage{
				ID:             PackageID(kind, e.Name),
				Name:           e.Name,
				CurrentVersion: orUnknown(e.CurrentVersion),
				Source:         kind,
			}
			if len(e.InstalledVersions) > 0 {
				od.InstalledVersion = e.InstalledVersions[0]
			} else {
				od.InstalledVersion = VersionUnknown
			}
			result = append(result, od)
		}
	}
	appendEntries(out.Formulae, SourceFormula)
	appendEntries(out.Casks, SourceCask)

	return result, nil
}

// tapInfo mirrors one element of `brew tap-info --installed --json`.
type tapInfo struct {
	Name         string   `json:"name"`
	Remote       string   `json:"remote"`
	Official     bool     `json:"official"`
	FormulaNames []string `json:"formula_names"`
	CaskTokens   []string `json:"cask_tokens"`
}

// ParseTaps parses `brew tap-info --installed --json` output. Remote URLs
// have their ".git" suffix stripped.
func ParseTaps(data []byte) ([]Tap, error) {
	var infos []tapInfo
	if err := json.Unmarshal(data, &infos); err != nil {
		return nil, fmt.Errorf("failed to parse tap list: %w", err)
	}

	taps := make([]Tap, 0, len(infos))
	for _, t := range infos {
		if t.Name == "" {
			continue
		}
		taps = append(taps, Tap{
			Name:         t.Name,
			Remote:       normalizeRemote(t.Remote),
			Official:     t.Official,
			FormulaNames: t.FormulaNames,
			CaskTokens:   t.CaskTokens,
		})
	}
	return taps, nil
}

// ParseSearch tokenizes `brew search` output into package names. Section
// header lines ("==> Formulae") and blanks are skipped.
func ParseSearch(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "==>") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// ParseConfig parses `brew config` key: value lines, preserving order.
// Lines without a colon separator are skipped.
func ParseConfig(output string) []ConfigEntry {
	var entries []ConfigEntry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		entries = append(entries, ConfigEntry{
			Key:   strings.TrimSpace(line[:idx]),
			Value: strings.TrimSpace(line[idx+1:]),
		})
	}
	return entries
}

func orUnknown(version string) string {
	if version == "" {
		return VersionUnknown
	}
	return version
}
