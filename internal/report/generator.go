package report

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/aharikum/forensicx/internal/config"
	"github.com/aharikum/forensicx/pkg/models"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorOrange = "\033[38;5;208m"
	colorGray   = "\033[38;5;245m"
)

// Report is the final artifact: the diff, its classifications and the scan
// context a reviewer needs to understand why each path was flagged without
// re-running the tool. Every changed entry appears; nothing is merged or
// dropped.
type Report struct {
	Version         string                   `json:"version"`
	MountPath       string                   `json:"mount_path"`
	BaselineID      string                   `json:"baseline_id"`
	BaselineStart   time.Time                `json:"baseline_start"`
	CurrentStart    time.Time                `json:"current_start"`
	GeneratedAt     time.Time                `json:"generated_at"`
	Diff            *models.DiffResult       `json:"diff"`
	Classifications []*models.Classification `json:"classifications"`
}

// BySeverity counts classifications per severity level.
func (r *Report) BySeverity() map[models.Severity]int {
	counts := make(map[models.Severity]int)
	for _, cl := range r.Classifications {
		counts[cl.Severity]++
	}
	return counts
}

// severityOrder is the rendering order, most severe first.
var severityOrder = []models.Severity{
	models.SeverityCritical,
	models.SeverityHigh,
	models.SeverityMedium,
	models.SeverityLow,
	models.SeverityInfo,
}

// Generator renders diff reports in various formats.
type Generator struct {
	config *config.Config
	logger *zap.Logger
}

// NewGenerator creates a new report generator.
func NewGenerator(cfg *config.Config, logger *zap.Logger) *Generator {
	return &Generator{config: cfg, logger: logger}
}

// Generate renders the report in the configured format. With no format it
// prints to the console and returns an empty path; otherwise it writes a
// file and returns its absolute path.
func (g *Generator) Generate(rep *Report) (string, error) {
	format := g.config.ReportFormat
	outputFile := g.config.OutputFile

	if format == "" {
		g.printConsole(rep)
		return "", nil
	}

	if outputFile == "" {
		timestamp := time.Now().Format("20060102-150405")
		switch format {
		case "json":
			outputFile = fmt.Sprintf("FORENSICX-REPORT-%s.json", timestamp)
		case "txt", "text":
			outputFile = fmt.Sprintf("FORENSICX-REPORT-%s.txt", timestamp)
		case "md", "markdown":
			outputFile = fmt.Sprintf("FORENSICX-REPORT-%s.md", timestamp)
		default:
			return "", fmt.Errorf("unknown report format: %s", format)
		}
	}

	g.logger.Info("Generating report",
		zap.String("format", format),
		zap.String("output", outputFile))

	var err error
	switch format {
	case "json":
		err = g.generateJSON(rep, outputFile)
	case "txt", "text":
		err = g.generateText(rep, outputFile)
	case "md", "markdown":
		err = g.generateMarkdown(rep, outputFile)
	default:
		return "", fmt.Errorf("unknown report format: %s", format)
	}

	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	absPath, _ := filepath.Abs(outputFile)
	return absPath, nil
}

// printConsole prints the report to stdout with colors.
func (g *Generator) printConsole(rep *Report) {
	fmt.Println()
	fmt.Printf("%s%sVERIFICATION COMPLETE%s\n", colorBold, colorOrange, colorReset)
	fmt.Println()

	fmt.Printf("  %sMount:%s     %s\n", colorGray, colorReset, rep.MountPath)
	fmt.Printf("  %sBaseline:%s  %s (%s)\n", colorGray, colorReset, rep.BaselineID,
		rep.BaselineStart.Format("2006-01-02 15:04:05"))
	fmt.Printf("  %sCurrent:%s   %s\n", colorGray, colorReset,
		rep.CurrentStart.Format("2006-01-02 15:04:05"))
	fmt.Println()

	if rep.Diff.Empty() {
		fmt.Printf("  %s%s✓ No changes since baseline%s\n", colorBold, colorGreen, colorReset)
		fmt.Println()
		return
	}

	fmt.Printf("  %sAdded:%s              %d\n", colorGray, colorReset, len(rep.Diff.Added))
	fmt.Printf("  %sRemoved:%s            %d\n", colorGray, colorReset, len(rep.Diff.Removed))
	fmt.Printf("  %sContent modified:%s   %d\n", colorGray, colorReset, len(rep.Diff.ContentModified))
	fmt.Printf("  %sMetadata modified:%s  %d\n", colorGray, colorReset, len(rep.Diff.MetadataModified))
	fmt.Printf("  %sUnreadable:%s         %d\n", colorGray, colorReset, len(rep.Diff.Unreadable))
	fmt.Println()

	counts := rep.BySeverity()
	for _, severity := range severityOrder {
		if counts[severity] == 0 {
			continue
		}
		fmt.Printf("  %s%-10s%s %d\n", severityColor(severity), severity, colorReset, counts[severity])
	}
	fmt.Println()

	for _, cl := range rep.Classifications {
		fmt.Printf("  %s[%s]%s %s%s%s\n", severityColor(cl.Severity), cl.Severity, colorReset,
			colorBold, cl.RelPath, colorReset)
		fmt.Printf("    %s%s: %s%s\n", colorGray, cl.Category, cl.Reason, colorReset)
		for _, f := range cl.Evidence {
			fmt.Printf("    %s%s:%s %s %s→%s %s\n", colorCyan, f.Field, colorReset,
				f.Before, colorGray, colorReset, f.After)
		}
	}
	fmt.Println()
}

func severityColor(s models.Severity) string {
	switch s {
	case models.SeverityCritical, models.SeverityHigh:
		return colorRed
	case models.SeverityMedium:
		return colorOrange
	case models.SeverityLow:
		return colorYellow
	default:
		return colorGray
	}
}

// FormatDuration formats duration to a human-readable string with max 2 decimal places.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1e6)
	} else if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	} else if d < time.Hour {
		mins := int(d.Minutes())
		secs := d.Seconds() - float64(mins*60)
		return fmt.Sprintf("%dm%.2fs", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) - hours*60
	secs := d.Seconds() - float64(hours*3600) - float64(mins*60)
	return fmt.Sprintf("%dh%dm%.2fs", hours, mins, secs)
}
