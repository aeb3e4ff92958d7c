// Package output renders terminal output for brewdeck: aligned tables for
// packages, taps and search results, plus a spinner for long-running
// external commands. Tables use plain ASCII with ANSI colors when stdout is
// a terminal.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/brewdeck/internal/brew"
	"github.com/blackwell-systems/brewdeck/internal/health"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderPackageTable renders a table of packages sorted by name.
func RenderPackageTable(packages []brew.Package) string {
	if len(packages) == 0 {
		return "No packages.\n"
	}

	sorted := make([]brew.Package, len(packages))
	copy(sorted, packages)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-28s %-8s %-14s %-14s %s\n",
		"Package", "Source", "Installed", "Latest", "Flags"))
	sb.WriteString(strings.Repeat("─", 76))
	sb.WriteString("\n")

	for _, pkg := range sorted {
		latest := pkg.LatestVersion
		if latest == "" {
			latest = "-"
		}
		sb.WriteString(fmt.Sprintf("%-28s %-8s %-14s %-14s %s\n",
			truncate(pkg.Name, 28),
			pkg.Source,
			truncate(pkg.InstalledVersion, 14),
			truncate(latest, 14),
			packageFlags(pkg)))
	}
	return sb.String()
}

// packageFlags summarizes a package's notable states in one cell. Outdated
// is highlighted; a formula installed only as a dependency is marked so that
// leaf listings read consistently.
func packageFlags(pkg brew.Package) string {
	var flags []string
	if pkg.Outdated {
		flags = append(flags, colorize(colorYellow, "outdated"))
	}
	if pkg.Pinned {
		flags = append(flags, "pinned")
	}
	if !pkg.InstalledOnRequest && pkg.Source == brew.SourceFormula {
		flags = append(flags, colorize(colorGray, "dependency"))
	}
	return strings.Join(flags, ",")
}

// RenderTapTable renders the registered taps.
func RenderTapTable(taps []brew.Tap) string {
	if len(taps) == 0 {
		return "No taps installed.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %-48s %-9s %-9s %s\n",
		"Tap", "Remote", "Official", "Formulae", "Casks"))
	sb.WriteString(strings.Repeat("─", 98))
	sb.WriteString("\n")

	for _, tap := range taps {
		sb.WriteString(fmt.Sprintf("%-24s %-48s %-9v %-9d %d\n",
			truncate(tap.Name, 24),
			truncate(tap.Remote, 48),
			tap.Official,
			len(tap.FormulaNames),
			len(tap.CaskTokens)))
	}
	return sb.String()
}

// RenderTapHealthTable renders the health verdict per tap. Taps without a
// verdict (not GitHub-hosted, or never checked) are skipped. Moved taps get
// a migration hint when a replacement tap name can be derived.
func RenderTapHealthTable(taps []brew.Tap, verdicts map[string]health.TapHealth) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-24s %-10s %-17s %s\n",
		"Tap", "Status", "Checked", "Note"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	rendered := 0
	for _, tap := range taps {
		v, ok := verdicts[tap.Name]
		if !ok {
			continue
		}
		rendered++
		sb.WriteString(fmt.Sprintf("%-24s %-10s %-17s %s\n",
			truncate(tap.Name, 24),
			colorizeStatus(v.Status),
			v.LastChecked.Format("2006-01-02 15:04"),
			tapHealthNote(tap.Name, v)))
	}
	if rendered == 0 {
		return "No tap health data (no taps, or none hosted on GitHub).\n"
	}
	return sb.String()
}

func colorizeStatus(status health.Status) string {
	switch status {
	case health.StatusHealthy:
		return colorize(colorGreen, string(status))
	case health.StatusArchived, health.StatusMoved:
		return colorize(colorYellow, string(status))
	case health.StatusNotFound:
		return colorize(colorRed, string(status))
	default:
		return colorize(colorGray, string(status))
	}
}

func tapHealthNote(tapName string, v health.TapHealth) string {
	if v.Status != health.StatusMoved || v.MovedTo == "" {
		return ""
	}
	note := "moved to " + v.MovedTo
	if repl := health.ReplacementTapName(v.MovedTo); repl != "" {
		note += fmt.Sprintf(" (try: brewdeck tap migrate %s %s)", tapName, repl)
	}
	return note
}

// RenderSearchTable renders search hits, marking already-installed packages.
func RenderSearchTable(results []brew.SearchResult) string {
	if len(results) == 0 {
		return "No matches.\n"
	}

	var sb strings.Builder
	for _, r := range results {
		mark := " "
		if r.IsInstalled {
			mark = colorize(colorGreen, "*")
		}
		sb.WriteString(fmt.Sprintf("%s %-40s %s\n", mark, truncate(r.Name, 40), r.Source))
	}
	return sb.String()
}

// RenderConfigTable renders the package manager's environment report.
func RenderConfigTable(entries []brew.ConfigEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%s: %s\n", e.Key, e.Value))
	}
	return sb.String()
}

// FormatRelativeTime renders a timestamp as a short "how long ago" phrase.
func FormatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	elapsed := time.Since(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	}
}

// truncate shortens a string to maxLen, appending "..." when it was cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
