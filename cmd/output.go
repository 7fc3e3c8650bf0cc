package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Movie-Song/sns-contents-tracker/internal/content"
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorWarn    = lipgloss.AdaptiveColor{Light: "#C48A00", Dark: "#F5C542"}
	colorGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	sourceStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	failedStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorWarn)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

const maxTitleWidth = 60

func renderSummary(w io.Writer, s content.Summary, dryRun bool) {
	title := "Ingestion summary"
	if dryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(w, headerStyle.Render(title))

	for _, src := range s.Sources {
		if src.Failed {
			fmt.Fprintf(w, "  %s %s\n", failedStyle.Render("✗ "+src.Name), dimStyle.Render(src.Reason))
			continue
		}
		line := fmt.Sprintf("  %s  fetched %d, created %d, skipped %d",
			sourceStyle.Render("✓ "+src.Name), src.Fetched, src.Created, src.Skipped)
		if src.Degraded > 0 {
			line += warnStyle.Render(fmt.Sprintf(", degraded %d", src.Degraded))
		}
		if src.Errored > 0 {
			line += failedStyle.Render(fmt.Sprintf(", errored %d", src.Errored))
		}
		fmt.Fprintln(w, line)
		if src.Endpoint != "" {
			fmt.Fprintf(w, "    %s\n", dimStyle.Render(src.Endpoint))
		}
	}

	fmt.Fprintf(w, "\nProcessed %d: created %d, skipped %d, degraded %d, errored %d\n",
		s.Processed(), s.Created, s.Skipped, s.Degraded, s.Errored)
	fmt.Fprintln(w, dimStyle.Render("run "+s.RunID))
}

func renderRecent(w io.Writer, items []content.StoredRecord) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Recent %d", len(items))))
	for _, it := range items {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			dimStyle.Render(it.Date()),
			truncateStr(strings.TrimSpace(it.Title), maxTitleWidth),
			sourceStyle.Render(it.Platform),
		)
		fmt.Fprintf(w, "      %s\n", dimStyle.Render(it.URL))
	}
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
