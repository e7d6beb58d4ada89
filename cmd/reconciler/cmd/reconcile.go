package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ar-reconciliation-service/cmd/reconciler/config"
	"ar-reconciliation-service/internal/reconciler"
	"ar-reconciliation-service/internal/reporter"
	"ar-reconciliation-service/pkg/errors"
	"ar-reconciliation-service/pkg/logger"
)

// Flags for the reconcile command
var (
	invoiceFile  string
	bankFile     string
	outputFormat string
	outputFile   string
	profile      string

	amountTolerance     float64
	dateWindow          int
	minConfidence       float64
	allowAmountVariance bool
	enableGrouped       bool
	maxRowErrors        int
	showProgress        bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match invoices against bank statement lines",
	Long: `Reconcile compares an open invoice file with a bank statement file,
scores every candidate pairing and reports matches, open invoices with
their aging buckets, and unexplained bank lines.

Both inputs may be CSV or XLSX. Column headers are mapped by common
aliases, so exports from most accounting systems work without renaming.

Examples:
  # Basic reconciliation to the console
  reconciler reconcile --invoices invoices.csv --bank statement.csv

  # JSON report to a file
  reconciler reconcile --invoices invoices.csv --bank statement.csv \
    --output-format json --output report.json

  # Excel workbook with matched, open and aging sheets
  reconciler reconcile --invoices invoices.xlsx --bank statement.xlsx \
    --output-format xlsx --output report.xlsx

  # Loose tolerances plus split and combined payment detection
  reconciler reconcile --invoices invoices.csv --bank statement.csv \
    --profile relaxed --grouped

  # Tight tolerances with an explicit threshold override
  reconciler reconcile --invoices invoices.csv --bank statement.csv \
    --profile strict --min-confidence 0.95`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&invoiceFile, "invoices", "i", "", "path to the invoice file, CSV or XLSX (required)")
	reconcileCmd.Flags().StringVarP(&bankFile, "bank", "b", "", "path to the bank statement file, CSV or XLSX (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv, xlsx")
	reconcileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file path (default: stdout, required for xlsx)")

	// Matching configuration flags
	reconcileCmd.Flags().StringVar(&profile, "profile", "default", "matching profile: default, strict, relaxed")
	reconcileCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", -1, "absolute amount tolerance, e.g. 0.01")
	reconcileCmd.Flags().IntVarP(&dateWindow, "date-window", "d", -1, "date matching window in days")
	reconcileCmd.Flags().Float64Var(&minConfidence, "min-confidence", -1, "minimum composite score to accept a match (0-1)")
	reconcileCmd.Flags().BoolVar(&allowAmountVariance, "allow-amount-variance", false, "accept matches whose amounts differ beyond the tolerance")
	reconcileCmd.Flags().BoolVar(&enableGrouped, "grouped", false, "detect split and combined payments")
	reconcileCmd.Flags().IntVar(&maxRowErrors, "max-row-errors", -1, "abort parsing after this many bad rows")

	// UI flags
	reconcileCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	reconcileCmd.MarkFlagRequired("invoices")
	reconcileCmd.MarkFlagRequired("bank")

	viper.BindPFlag("invoices", reconcileCmd.Flags().Lookup("invoices"))
	viper.BindPFlag("bank", reconcileCmd.Flags().Lookup("bank"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output", reconcileCmd.Flags().Lookup("output"))
	viper.BindPFlag("profile", reconcileCmd.Flags().Lookup("profile"))
	viper.BindPFlag("amount-tolerance", reconcileCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("date-window", reconcileCmd.Flags().Lookup("date-window"))
	viper.BindPFlag("min-confidence", reconcileCmd.Flags().Lookup("min-confidence"))
	viper.BindPFlag("allow-amount-variance", reconcileCmd.Flags().Lookup("allow-amount-variance"))
	viper.BindPFlag("grouped", reconcileCmd.Flags().Lookup("grouped"))
	viper.BindPFlag("max-row-errors", reconcileCmd.Flags().Lookup("max-row-errors"))
	viper.BindPFlag("progress", reconcileCmd.Flags().Lookup("progress"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Viper allows overrides from the config file and environment
	invoiceFile = viper.GetString("invoices")
	bankFile = viper.GetString("bank")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output")
	profile = viper.GetString("profile")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	dateWindow = viper.GetInt("date-window")
	minConfidence = viper.GetFloat64("min-confidence")
	allowAmountVariance = viper.GetBool("allow-amount-variance")
	enableGrouped = viper.GetBool("grouped")
	maxRowErrors = viper.GetInt("max-row-errors")
	showProgress = viper.GetBool("progress")

	if invoiceFile == "" {
		return fmt.Errorf("invoices file is required")
	}
	if bankFile == "" {
		return fmt.Errorf("bank statement file is required")
	}

	if err := validateFileExists(invoiceFile, "invoice file"); err != nil {
		return err
	}
	if err := validateFileExists(bankFile, "bank statement file"); err != nil {
		return err
	}

	format, err := reporter.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == reporter.FormatXLSX && outputFile == "" {
		return fmt.Errorf("xlsx output requires --output with a file path")
	}

	if minConfidence > 1 {
		return fmt.Errorf("min-confidence must be between 0 and 1")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	// Ctrl-C cancels between batches rather than killing mid-run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.GetGlobalLogger().WithComponent("cli")

	matchingConfig, err := config.BuildMatchingConfig(profile, config.MatchingOverrides{
		AmountTolerance:     amountTolerance,
		DateWindowDays:      dateWindow,
		MinConfidence:       minConfidence,
		AllowAmountVariance: allowAmountVariance,
		EnableGrouped:       enableGrouped,
	})
	if err != nil {
		return err
	}

	parserConfig, err := config.BuildParserConfig(maxRowErrors)
	if err != nil {
		return err
	}

	opts := &reconciler.Options{
		MatcherConfig: matchingConfig,
		ParserConfig:  parserConfig,
	}
	if showProgress {
		opts.Progress = func(percent float64, phase string) {
			fmt.Fprintf(os.Stderr, "\r%-28s %5.1f%%", phase, percent)
		}
	}

	service := reconciler.NewService(opts)

	run, err := service.ReconcileFiles(ctx, invoiceFile, bankFile)
	if showProgress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		if errors.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "Reconciliation cancelled")
		}
		return err
	}

	reportRowErrors(run)

	format, _ := reporter.ParseFormat(outputFormat)
	rep := reporter.NewReporter()

	if format == reporter.FormatXLSX {
		if err := rep.WriteXLSX(run.Result, outputFile); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outputFile)
	} else {
		output := os.Stdout
		if outputFile != "" {
			output, err = os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer output.Close()
		}
		if err := rep.Write(run.Result, format, output); err != nil {
			return err
		}
	}

	summary := run.Result.Summary
	log.WithFields(map[string]interface{}{
		"invoices":   summary.TotalInvoices,
		"bank_lines": summary.TotalBankLines,
		"matches":    len(run.Result.Matches),
		"duration":   summary.Duration.String(),
	}).Info("Reconciliation completed")

	return nil
}

// reportRowErrors surfaces skipped input rows on stderr so a clean
// looking report cannot hide bad data.
func reportRowErrors(run *reconciler.RunResult) {
	var all []*errors.IngestError
	if run.InvoiceStats != nil {
		all = append(all, run.InvoiceStats.RowErrors...)
	}
	if run.BankStats != nil {
		all = append(all, run.BankStats.RowErrors...)
	}
	if len(all) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: %d input rows were skipped:\n%s\n", len(all), errors.FormatIngestErrors(all))
}
