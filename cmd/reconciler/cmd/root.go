package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ar-reconciliation-service/pkg/logger"
)

var (
	cfgFile  string
	verbose  bool
	quiet    bool
	logLevel string
	version  = "dev"
	commit   = "unknown"
	date     = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Accounts receivable reconciliation tool",
	Long: `Reconciler matches open invoices against bank statement lines.
It scores candidates on reference, amount, date and customer similarity,
optionally detects split and combined payments, and ages whatever stays
open into standard AR buckets.

Examples:
  reconciler reconcile --invoices invoices.csv --bank statement.csv
  reconciler reconcile --invoices invoices.xlsx --bank statement.csv --output-format json
  reconciler reconcile --invoices inv.csv --bank stmt.csv --profile relaxed --grouped
  reconciler version`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables, then configures
// the global logger from the resolved settings.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("RECONCILER")
	viper.AutomaticEnv()

	configureLogging()
}

func configureLogging() {
	cfg := logger.DefaultConfig()
	switch {
	case viper.GetBool("quiet"):
		cfg = logger.QuietConfig()
	case viper.GetBool("verbose"):
		cfg = logger.DebugConfig()
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.Level = logger.Level(level)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %s\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogger(log)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
