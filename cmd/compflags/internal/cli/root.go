// Package cli implements the compflags command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/compflags/internal/log"
	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/settings"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity  int
	logFormat  string
	configPath string
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "compflags",
	Short: "Per-file build settings for code-completion engines",
	Long: `compflags tells a code-completion engine how to understand one file.

For C-family files it answers with compiler flags: base flags plus include
directories found in the project tree, in explicit configuration and in
the dependency repository named by the project manifest. For Python files
it answers with the virtualenv interpreter and site-packages.

Use 'compflags settings <file>' for the JSON record an engine consumes.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "compflags %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Global flags (persistent across all commands)
	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", "text",
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.configPath, "config", "",
		"Config file (default: layered lookup of compflags.toml)")

	// Hook to apply flags before command runs
	cobra.OnInitialize(initLogging)
}

// initLogging applies CLI flags to the logger.
// This runs after flags are parsed but before command execution.
func initLogging() {
	log.Init(globalFlags.verbosity, globalFlags.logFormat)
}

// loadConfig returns the effective configuration: the explicit --config
// file when given, the layered lookup from the working directory otherwise.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if globalFlags.configPath != "" {
		loaded, err := config.LoadFile(globalFlags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Load()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDispatcher builds a settings dispatcher logging under the settings
// component.
func newDispatcher(cfg *config.Config) *settings.Dispatcher {
	return settings.New(cfg, settings.WithLogger(log.Component("settings").Desugar()))
}

// absPath resolves a command argument to an absolute path.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	return abs, nil
}

// writeJSON writes v as a single JSON line.
func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// writeIndentedJSON writes v as indented JSON.
func writeIndentedJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Debug("command failed", "error", err)
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
