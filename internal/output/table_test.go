package output

import (
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/brewdeck/internal/brew"
	"github.com/blackwell-systems/brewdeck/internal/health"
)

func TestRenderPackageTableEmpty(t *testing.T) {
	got := RenderPackageTable(nil)
	if got != "No packages.\n" {
		t.Errorf("unexpected empty rendering: %q", got)
	}
}

func TestRenderPackageTableSortsAndFlags(t *testing.T) {
	pkgs := []brew.Package{
		{Name: "wget", Source: brew.SourceFormula, InstalledVersion: "1.24.4", LatestVersion: "1.24.5", Outdated: true, InstalledOnRequest: true},
		{Name: "openssl@3", Source: brew.SourceFormula, InstalledVersion: "3.3.0"},
		{Name: "firefox", Source: brew.SourceCask, InstalledVersion: "126.0", InstalledOnRequest: true},
	}

	got := RenderPackageTable(pkgs)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, separator and 3 rows, got %d lines", len(lines))
	}

	// Rows come back sorted by name.
	if !strings.HasPrefix(lines[2], "firefox") {
		t.Errorf("expected firefox first, got %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "openssl@3") {
		t.Errorf("expected openssl@3 second, got %q", lines[3])
	}

	if !strings.Contains(lines[4], "outdated") {
		t.Errorf("outdated flag missing from %q", lines[4])
	}
	if !strings.Contains(lines[3], "dependency") {
		t.Errorf("dependency flag missing for non-requested formula: %q", lines[3])
	}
	if strings.Contains(lines[2], "dependency") {
		t.Errorf("cask must not carry the dependency flag: %q", lines[2])
	}
	// A package without a known newer version shows a dash.
	if !strings.Contains(lines[2], " - ") && !strings.Contains(lines[2], " -") {
		t.Errorf("missing latest-version placeholder in %q", lines[2])
	}
}

func TestRenderTapTable(t *testing.T) {
	taps := []brew.Tap{
		{Name: "homebrew/core", Remote: "https://github.com/Homebrew/homebrew-core", Official: true, FormulaNames: []string{"wget", "curl"}},
	}

	got := RenderTapTable(taps)
	if !strings.Contains(got, "homebrew/core") {
		t.Errorf("tap name missing: %q", got)
	}
	if !strings.Contains(got, "true") {
		t.Errorf("official marker missing: %q", got)
	}

	if empty := RenderTapTable(nil); empty != "No taps installed.\n" {
		t.Errorf("unexpected empty rendering: %q", empty)
	}
}

func TestRenderTapHealthTable(t *testing.T) {
	taps := []brew.Tap{
		{Name: "user/tools"},
		{Name: "user/local"}, // no verdict, skipped
	}
	verdicts := map[string]health.TapHealth{
		"user/tools": {
			Status:      health.StatusMoved,
			MovedTo:     "https://github.com/newuser/homebrew-tools",
			LastChecked: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		},
	}

	got := RenderTapHealthTable(taps, verdicts)
	if !strings.Contains(got, "moved to https://github.com/newuser/homebrew-tools") {
		t.Errorf("moved note missing: %q", got)
	}
	if !strings.Contains(got, "tap migrate user/tools newuser/tools") {
		t.Errorf("migration hint missing: %q", got)
	}
	if strings.Contains(got, "user/local") {
		t.Errorf("tap without verdict must be skipped: %q", got)
	}

	if empty := RenderTapHealthTable(taps, nil); !strings.Contains(empty, "No tap health data") {
		t.Errorf("unexpected empty rendering: %q", empty)
	}
}

func TestRenderSearchTableMarksInstalled(t *testing.T) {
	results := []brew.SearchResult{
		{Name: "wget", Source: brew.SourceFormula, IsInstalled: true},
		{Name: "wget2", Source: brew.SourceFormula},
	}

	got := RenderSearchTable(results)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "*") {
		t.Errorf("installed hit should be marked: %q", lines[0])
	}
	if strings.HasPrefix(lines[1], "*") {
		t.Errorf("uninstalled hit must not be marked: %q", lines[1])
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-49 * time.Hour), "2d ago"},
	}
	for _, tc := range cases {
		if got := FormatRelativeTime(tc.at); got != tc.want {
			t.Errorf("FormatRelativeTime(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("short strings pass through, got %q", got)
	}
	if got := truncate("a-very-long-package-name", 10); got != "a-very-..." {
		t.Errorf("unexpected truncation: %q", got)
	}
}
