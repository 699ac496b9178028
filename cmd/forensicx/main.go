package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aharikum/forensicx/internal/classify"
	"github.com/aharikum/forensicx/internal/config"
	"github.com/aharikum/forensicx/internal/diff"
	"github.com/aharikum/forensicx/internal/report"
	"github.com/aharikum/forensicx/internal/snapshot"
	"github.com/aharikum/forensicx/internal/store"
	"github.com/aharikum/forensicx/pkg/models"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorOrange = "\033[38;5;208m"
	colorGray   = "\033[38;5;245m"
)

var (
	version = "1.0.0"
	logger  *zap.Logger
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "forensicx",
		Short: "ForensicX - Filesystem Integrity Verification Engine",
		Long: `Forensic integrity verification for mounted filesystems: capture a baseline
snapshot of a mount, re-scan it later, and get a classified report of every
added, removed, modified or unreadable entry.`,
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			printBanner()
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(baselineCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(snapshotsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printBanner prints the startup banner
func printBanner() {
	fmt.Println()
	fmt.Printf("%s", colorOrange)
	fmt.Println("████▀ ▄████▄ ████▄  ████▀ ███  ██ ▄████▄ ██ ▄████▄ ██  ██")
	fmt.Println("██▄▄  ██  ██ ██  ██ ██▄▄  ██ ▀▄██ ▀▄▄▄▄  ██ ██  ▀▀  ▀██▀ ")
	fmt.Println("██    ▀████▀ ██  ██ ████▄ ██   ██ ▀████▀ ██ ▀████▄ ██  ██")
	fmt.Printf("%s", colorReset)
	fmt.Println()
	fmt.Printf("%sIntegrity Verification Engine v%s%s\n", colorGray, version, colorReset)
	fmt.Println()
}

// initLogger sets up zap according to the verbose flag.
func initLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		// Silent logger - only errors
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
			Encoding:         "json",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
	}
	return err
}

// scanFlags holds the CLI overrides shared by baseline and verify.
type scanFlags struct {
	workers     int
	digests     string
	ignore      []string
	storeDir    string
	hashTimeout int
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Number of worker goroutines (default: CPU cores * 2)")
	cmd.Flags().StringVar(&f.digests, "digests", "", "Digest algorithm pair \"fast,strong\" (default: md5,sha256)")
	cmd.Flags().StringSliceVar(&f.ignore, "ignore", nil, "Glob patterns to exclude from scan and diff (comma-separated)")
	cmd.Flags().StringVar(&f.storeDir, "store-dir", "", "Snapshot store directory")
	cmd.Flags().IntVar(&f.hashTimeout, "hash-timeout", 0, "Per-file hash timeout in seconds")
}

func (f *scanFlags) apply(cfg *config.Config) {
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.digests != "" {
		cfg.DigestPair = f.digests
	}
	if len(f.ignore) > 0 {
		cfg.IgnorePaths = f.ignore
	}
	if f.storeDir != "" {
		cfg.StoreDir = f.storeDir
	}
	if f.hashTimeout > 0 {
		cfg.HashTimeout = f.hashTimeout
	}
}

// scanContext is cancelled on SIGINT/SIGTERM so a long walk can stop cleanly.
func scanContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildSnapshot runs a full scan of the mount with a console progress line.
func buildSnapshot(ctx context.Context, cfg *config.Config, pairStr string, mountPath string) (*models.Snapshot, error) {
	pair, err := config.ParseDigestPair(pairStr)
	if err != nil {
		return nil, err
	}

	builder := snapshot.NewBuilder(cfg, pair, logger)
	builder.SetProgressCallback(func(scanned int, path string) {
		if scanned%100 == 0 {
			fmt.Printf("\r\033[K  %sScanned:%s %d entries", colorGray, colorReset, scanned)
		}
	})

	snap, err := builder.Build(ctx, mountPath)
	fmt.Print("\r\033[K")
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// baselineCmd creates the baseline command
func baselineCmd() *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "baseline <mount>",
		Short: "Capture a baseline snapshot of a mounted filesystem",
		Long:  `Walk the mount, record metadata and content digests for every entry, and persist the snapshot to the store.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mountPath := args[0]

			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.LoadConfig()
			if err != nil {
				logger.Error("Failed to load config", zap.Error(err))
				return err
			}
			flags.apply(cfg)

			ctx, cancel := scanContext()
			defer cancel()

			printBanner()
			fmt.Printf("  %sBaselining:%s %s\n\n", colorGray, colorReset, mountPath)

			snap, err := buildSnapshot(ctx, cfg, cfg.DigestPair, mountPath)
			if err != nil {
				logger.Error("Baseline scan failed", zap.Error(err))
				return err
			}

			st := store.NewStore(cfg.StoreDir, logger)
			id, err := st.Save(snap)
			if err != nil {
				logger.Error("Failed to persist snapshot", zap.Error(err))
				return err
			}

			unreadable := snap.Unreadable()
			fmt.Printf("  %s%s✓ Baseline captured%s\n\n", colorBold, colorGreen, colorReset)
			fmt.Printf("  %sSnapshot:%s   %s\n", colorGray, colorReset, id)
			fmt.Printf("  %sEntries:%s    %d\n", colorGray, colorReset, len(snap.Files))
			if unreadable > 0 {
				fmt.Printf("  %sUnreadable:%s %s%d%s\n", colorGray, colorReset, colorRed, unreadable, colorReset)
			}
			fmt.Printf("  %sDigests:%s    %s\n", colorGray, colorReset, snap.DigestPair.String())
			fmt.Printf("  %sElapsed:%s    %s\n", colorGray, colorReset, report.FormatDuration(snap.EndTime.Sub(snap.StartTime)))
			fmt.Println()

			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// verifyCmd creates the verify command
func verifyCmd() *cobra.Command {
	var (
		flags        scanFlags
		baselineID   string
		policyPath   string
		reportFormat string
		outputFile   string
		saveCurrent  bool
	)

	cmd := &cobra.Command{
		Use:   "verify <mount>",
		Short: "Re-scan a mount and report every deviation from its baseline",
		Long: `Re-scan the mount with the baseline's digest algorithms, diff the two
snapshots, classify each change and render a report. Detected tampering is a
successful verification; the command fails only when it cannot produce a
report at all.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mountPath := args[0]

			if err := validateFormat(reportFormat); err != nil {
				fmt.Printf("\n  %s✗ Invalid parameter:%s %s\n\n", colorRed, colorReset, err.Error())
				return err
			}

			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.LoadConfig()
			if err != nil {
				logger.Error("Failed to load config", zap.Error(err))
				return err
			}
			flags.apply(cfg)
			if policyPath != "" {
				cfg.PolicyPath = policyPath
			}
			if reportFormat != "" {
				cfg.ReportFormat = reportFormat
			}
			if outputFile != "" {
				cfg.OutputFile = outputFile
			}

			policy := classify.DefaultPolicy()
			if cfg.PolicyPath != "" {
				policy, err = classify.LoadPolicy(cfg.PolicyPath)
				if err != nil {
					logger.Error("Failed to load policy", zap.Error(err))
					return err
				}
			}
			if policy.DigestAlgorithmPair != "" {
				cfg.DigestPair = policy.DigestAlgorithmPair
			}
			if len(policy.IgnorePaths) > 0 {
				cfg.IgnorePaths = append(cfg.IgnorePaths, policy.IgnorePaths...)
			}

			ctx, cancel := scanContext()
			defer cancel()

			printBanner()
			fmt.Printf("  %sVerifying:%s %s\n\n", colorGray, colorReset, mountPath)

			st := store.NewStore(cfg.StoreDir, logger)

			id := store.SnapshotID(baselineID)
			if id == "" {
				id, err = st.Latest(mountPath)
				if err != nil {
					if errors.Is(err, store.ErrNoSnapshot) {
						return fmt.Errorf("no baseline found for %s, run `forensicx baseline` first", mountPath)
					}
					logger.Error("Failed to locate baseline", zap.Error(err))
					return err
				}
			}

			baseline, err := st.Load(id)
			if err != nil {
				logger.Error("Failed to load baseline", zap.String("id", string(id)), zap.Error(err))
				return err
			}

			// Re-scan with the baseline's algorithms so the digests compare.
			current, err := buildSnapshot(ctx, cfg, baseline.DigestPair.String(), mountPath)
			if err != nil {
				logger.Error("Verification scan failed", zap.Error(err))
				return err
			}

			if saveCurrent {
				if _, err := st.Save(current); err != nil {
					logger.Warn("Failed to persist verification snapshot", zap.Error(err))
				}
			}

			diffResult, err := diff.Compare(baseline, current, cfg.IgnorePaths)
			if err != nil {
				logger.Error("Diff failed", zap.Error(err))
				return err
			}

			classifier := classify.NewClassifier(policy, logger)
			classifications := classifier.Classify(diffResult)

			rep := &report.Report{
				Version:         version,
				MountPath:       mountPath,
				BaselineID:      string(id),
				BaselineStart:   baseline.StartTime,
				CurrentStart:    current.StartTime,
				GeneratedAt:     time.Now(),
				Diff:            diffResult,
				Classifications: classifications,
			}

			generator := report.NewGenerator(cfg, logger)
			reportPath, err := generator.Generate(rep)
			if err != nil {
				logger.Error("Report generation failed", zap.Error(err))
				return err
			}
			if reportPath != "" {
				fmt.Printf("  %sReport:%s  %s%s%s\n", colorGray, colorReset, colorOrange, reportPath, colorReset)
				fmt.Println()
			}
			fmt.Printf("  %sElapsed:%s %s\n\n", colorGray, colorReset,
				report.FormatDuration(current.EndTime.Sub(current.StartTime)))

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&baselineID, "baseline", "", "Baseline snapshot ID (default: latest for the mount)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "YAML classification policy file")
	cmd.Flags().StringVarP(&reportFormat, "format", "r", "", "Report format: json, text, markdown (default: console output)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Report output file path")
	cmd.Flags().BoolVar(&saveCurrent, "save", false, "Persist the verification snapshot as a new baseline candidate")
	return cmd
}

// snapshotsCmd creates the snapshots command
func snapshotsCmd() *cobra.Command {
	var storeDir string

	cmd := &cobra.Command{
		Use:   "snapshots <mount>",
		Short: "List stored snapshots for a mount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mountPath := args[0]

			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if storeDir != "" {
				cfg.StoreDir = storeDir
			}

			st := store.NewStore(cfg.StoreDir, logger)
			ids, err := st.List(mountPath)
			if err != nil {
				return err
			}

			if len(ids) == 0 {
				fmt.Printf("No snapshots for %s\n", mountPath)
				return nil
			}

			fmt.Printf("Snapshots for %s (oldest first):\n", mountPath)
			for _, id := range ids {
				fmt.Printf("  %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&storeDir, "store-dir", "", "Snapshot store directory")
	return cmd
}

// validateFormat validates the report format flag
func validateFormat(format string) error {
	if format == "" {
		return nil
	}
	valid := []string{"json", "txt", "text", "md", "markdown"}
	for _, f := range valid {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("--format must be one of: json, text, markdown (got: %s)", format)
}
