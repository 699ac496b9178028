package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/aharikum/forensicx/pkg/models"
)

// generateMarkdown generates a Markdown report
func (g *Generator) generateMarkdown(rep *Report, outputFile string) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# ForensicX Integrity Verification Report v%s\n\n", rep.Version))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Mount Path | `%s` |\n", rep.MountPath))
	sb.WriteString(fmt.Sprintf("| Baseline | `%s` |\n", rep.BaselineID))
	sb.WriteString(fmt.Sprintf("| Baseline Scan | %s |\n", rep.BaselineStart.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| Current Scan | %s |\n", rep.CurrentStart.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("| Added | %d |\n", len(rep.Diff.Added)))
	sb.WriteString(fmt.Sprintf("| Removed | %d |\n", len(rep.Diff.Removed)))
	sb.WriteString(fmt.Sprintf("| Content Modified | %d |\n", len(rep.Diff.ContentModified)))
	sb.WriteString(fmt.Sprintf("| Metadata Modified | %d |\n", len(rep.Diff.MetadataModified)))
	sb.WriteString(fmt.Sprintf("| Unreadable | %d |\n", len(rep.Diff.Unreadable)))
	sb.WriteString(fmt.Sprintf("| **Total Changes** | **%d** |\n", rep.Diff.Total()))
	sb.WriteString("\n")

	if rep.Diff.Empty() {
		sb.WriteString("> ✅ **No changes since baseline**\n")
		return os.WriteFile(outputFile, []byte(sb.String()), 0644)
	}

	// Counts by severity
	sb.WriteString("## Changes by Severity\n\n")
	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("|----------|-------|\n")
	counts := rep.BySeverity()
	for _, severity := range severityOrder {
		if counts[severity] > 0 {
			sb.WriteString(fmt.Sprintf("| %s %s | %d |\n",
				getSeverityEmoji(severity), strings.ToUpper(string(severity)), counts[severity]))
		}
	}
	sb.WriteString("\n")

	// Per-path details
	sb.WriteString("## Flagged Paths\n\n")
	for _, cl := range rep.Classifications {
		sb.WriteString(fmt.Sprintf("### %s `%s`\n\n", getSeverityEmoji(cl.Severity), cl.RelPath))
		sb.WriteString(fmt.Sprintf("- **Category:** %s\n", cl.Category))
		sb.WriteString(fmt.Sprintf("- **Severity:** %s\n", cl.Severity))
		sb.WriteString(fmt.Sprintf("- **Reason:** %s\n", cl.Reason))
		if len(cl.Evidence) > 0 {
			sb.WriteString("\n| Field | Before | After |\n")
			sb.WriteString("|-------|--------|-------|\n")
			for _, f := range cl.Evidence {
				sb.WriteString(fmt.Sprintf("| %s | `%s` | `%s` |\n", f.Field, orDash(f.Before), orDash(f.After)))
			}
		}
		sb.WriteString("\n")
	}

	return os.WriteFile(outputFile, []byte(sb.String()), 0644)
}

func getSeverityEmoji(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "🔴"
	case models.SeverityHigh:
		return "🟠"
	case models.SeverityMedium:
		return "🟡"
	case models.SeverityLow:
		return "🔵"
	default:
		return "⚪"
	}
}
