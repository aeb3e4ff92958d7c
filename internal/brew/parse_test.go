package brew

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installedJSON = `{
  "formulae": [
    {
      "name": "wget",
      "desc": "Internet file retriever",
      "homepage": "https://www.gnu.org/software/wget/",
      "versions": {"stable": "1.24.5"},
      "installed": [{"version": "1.24.5", "installed_as_dependency": false, "installed_on_request": true}],
      "pinned": false,
      "dependencies": ["libidn2", "openssl@3"]
    },
    {
      "name": "mystery",
      "versions": {},
      "installed": []
    }
  ],
  "casks": [
    {
      "token": "firefox",
      "desc": "Web browser",
      "homepage": "https://www.mozilla.org/firefox/",
      "version": "126.0",
      "installed": "125.0"
    }
  ]
}`

func TestParseInstalled(t *testing.T) {
	formulae, casks, err := ParseInstalled([]byte(installedJSON))
	require.NoError(t, err)
	require.Len(t, formulae, 2)
	require.Len(t, casks, 1)

	wget := formulae[0]
	assert.Equal(t, "formula-wget", wget.ID)
	assert.Equal(t, "wget", wget.Name)
	assert.Equal(t, "1.24.5", wget.Version)
	assert.Equal(t, "1.24.5", wget.InstalledVersion)
	assert.Equal(t, "Internet file retriever", wget.Description)
	assert.True(t, wget.Installed)
	assert.True(t, wget.InstalledOnRequest)
	assert.Equal(t, SourceFormula, wget.Source)
	assert.Equal(t, []string{"libidn2", "openssl@3"}, wget.Dependencies)

	// Missing optional fields degrade to defaults instead of failing.
	mystery := formulae[1]
	assert.Equal(t, VersionUnknown, mystery.Version)
	assert.Equal(t, VersionUnknown, mystery.InstalledVersion)
	assert.Empty(t, mystery.Description)
	assert.Empty(t, mystery.Dependencies)
	assert.NotNil(t, mystery.Dependencies)

	firefox := casks[0]
	assert.Equal(t, "cask-firefox", firefox.ID)
	assert.Equal(t, "126.0", firefox.Version)
	assert.Equal(t, "125.0", firefox.InstalledVersion)
	assert.Equal(t, SourceCask, firefox.Source)
}

func TestParseInstalledRejectsGarbage(t *testing.T) {
	_, _, err := ParseInstalled([]byte("not json"))
	assert.Error(t, err)
}

func TestParseOutdated(t *testing.T) {
	data := `{
	  "formulae": [
	    {"name": "wget", "installed_versions": ["1.24.4"], "current_version": "1.24.5"},
	    {"name": "husk", "installed_versions": [], "current_version": ""}
	  ],
	  "casks": [
	    {"name": "firefox", "installed_versions": ["125.0"], "current_version": "126.0"}
	  ]
	}`

	out, err := ParseOutdated([]byte(data))
	require.NoError(t, err)

	// The husk entry has neither version: dropped, not padded with garbage.
	require.Len(t, out, 2)
	assert.Equal(t, "formula-wget", out[0].ID)
	assert.Equal(t, "1.24.4", out[0].InstalledVersion)
	assert.Equal(t, "1.24.5", out[0].CurrentVersion)
	assert.Equal(t, "cask-firefox", out[1].ID)
	assert.Equal(t, SourceCask, out[1].Source)
}

func TestParseTapsStripsVCSSuffix(t *testing.T) {
	data := `[
	  {
	    "name": "homebrew/core",
	    "remote": "https://github.com/Homebrew/homebrew-core.git",
	    "official": true,
	    "formula_names": ["wget", "curl"],
	    "cask_tokens": []
	  },
	  {"name": ""}
	]`

	taps, err := ParseTaps([]byte(data))
	require.NoError(t, err)
	require.Len(t, taps, 1)
	assert.Equal(t, "homebrew/core", taps[0].Name)
	assert.Equal(t, "https://github.com/Homebrew/homebrew-core", taps[0].Remote)
	assert.True(t, taps[0].Official)
	assert.Equal(t, []string{"wget", "curl"}, taps[0].FormulaNames)
}

func TestParseSearchSkipsHeaders(t *testing.T) {
	output := "==> Formulae\nwget\nwget2  \n\n==> Casks\nwgetter\n"
	assert.Equal(t, []string{"wget", "wget2", "wgetter"}, ParseSearch(output))
}

func TestParseConfig(t *testing.T) {
	output := "HOMEBREW_VERSION: 4.3.0\nORIGIN: https://github.com/Homebrew/brew\nbroken line\n"
	entries := ParseConfig(output)
	require.Len(t, entries, 2)
	assert.Equal(t, ConfigEntry{Key: "HOMEBREW_VERSION", Value: "4.3.0"}, entries[0])
	assert.Equal(t, ConfigEntry{Key: "ORIGIN", Value: "https://github.com/Homebrew/brew"}, entries[1])
}

func TestVersionNewer(t *testing.T) {
	assert.True(t, VersionNewer("1.2.1", "1.2.0"))
	assert.False(t, VersionNewer("1.2.0", "1.2.0"))
	assert.False(t, VersionNewer("1.1.9", "1.2.0"))
	// Non-semver versions fall back to inequality.
	assert.True(t, VersionNewer("9.0_2", "9.0_1"))
	assert.False(t, VersionNewer("", "1.0"))
	assert.False(t, VersionNewer(VersionUnknown, "1.0"))
}
