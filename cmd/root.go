package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/enrolpulse/internal/config"
	"github.com/KaramelBytes/enrolpulse/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	logFile string

	// Loaded configuration
	cfg *cfgpkg.Global
	// Structured log; stays a no-op until the root pre-run builds it.
	logger = logging.Nop()
	// Filesystem used for every read and write.
	appFs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "enrolpulse",
	Short: "enrolpulse: rank regions by Aadhaar enrolment totals",
	Long: `enrolpulse merges enrolment extracts (CSV, TSV, XLSX or a SQL table), fixes
inconsistent state and union territory names with a rule table, and ranks the
regions by total enrolment across the three age brackets.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c := effectiveConfig()
		path := logFile
		if path == "" {
			path = c.LogFile
		}
		l, err := logging.New(logging.Options{Debug: debug, Level: c.LogLevel, File: path, Console: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		logger = l
		logger.Debug("config loaded", zap.String("config", cfgFile), zap.String("on_error", c.OnError), zap.Int("top_n", c.TopN))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.enrolpulse/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file (rotated)")
}

func loadConfig() {
	c, err := cfgpkg.LoadFS(appFs, cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
}

// effectiveConfig returns the loaded config or the built-in defaults.
func effectiveConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return cfgpkg.Default()
}
