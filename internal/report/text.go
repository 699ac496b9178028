package report

import (
	"fmt"
	"os"
	"strings"
)

// generateText generates a text report
func (g *Generator) generateText(rep *Report, outputFile string) error {
	var sb strings.Builder

	// Header
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString(fmt.Sprintf("  FORENSICX INTEGRITY VERIFICATION REPORT v%s\n", rep.Version))
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n\n")

	// Summary
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	sb.WriteString(fmt.Sprintf("Mount Path:         %s\n", rep.MountPath))
	sb.WriteString(fmt.Sprintf("Baseline:           %s\n", rep.BaselineID))
	sb.WriteString(fmt.Sprintf("Baseline Scan:      %s\n", rep.BaselineStart.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Current Scan:       %s\n", rep.CurrentStart.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Generated:          %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Added:              %d\n", len(rep.Diff.Added)))
	sb.WriteString(fmt.Sprintf("Removed:            %d\n", len(rep.Diff.Removed)))
	sb.WriteString(fmt.Sprintf("Content Modified:   %d\n", len(rep.Diff.ContentModified)))
	sb.WriteString(fmt.Sprintf("Metadata Modified:  %d\n", len(rep.Diff.MetadataModified)))
	sb.WriteString(fmt.Sprintf("Unreadable:         %d\n", len(rep.Diff.Unreadable)))
	sb.WriteString(fmt.Sprintf("TOTAL CHANGES:      %d\n", rep.Diff.Total()))
	sb.WriteString("\n")

	if rep.Diff.Empty() {
		sb.WriteString("No changes since baseline.\n")
		return os.WriteFile(outputFile, []byte(sb.String()), 0644)
	}

	// Counts by severity
	sb.WriteString("CHANGES BY SEVERITY\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	counts := rep.BySeverity()
	for _, severity := range severityOrder {
		if counts[severity] > 0 {
			sb.WriteString(fmt.Sprintf("  %-10s: %d\n", strings.ToUpper(string(severity)), counts[severity]))
		}
	}
	sb.WriteString("\n")

	// Detailed findings, one block per classified path
	sb.WriteString("DETAILS\n")
	sb.WriteString(strings.Repeat("-", 79) + "\n")
	for _, cl := range rep.Classifications {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", strings.ToUpper(string(cl.Severity)), cl.RelPath))
		sb.WriteString(fmt.Sprintf("  Category: %s\n", cl.Category))
		sb.WriteString(fmt.Sprintf("  Reason:   %s\n", cl.Reason))
		for _, f := range cl.Evidence {
			sb.WriteString(fmt.Sprintf("  %-14s %s -> %s\n", f.Field+":", orDash(f.Before), orDash(f.After)))
		}
		sb.WriteString("\n")
	}

	return os.WriteFile(outputFile, []byte(sb.String()), 0644)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
