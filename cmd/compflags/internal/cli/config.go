package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/spf13/cobra"
)

var configFlags struct {
	paths bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints the configuration compflags would use from the current
directory, after merging defaults, the global config, the project config,
.env and COMPFLAGS_* environment variables, as TOML.

Use --paths to list the config files that are looked up instead.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configFlags.paths, "paths", false,
		"List config file locations and whether they exist")

	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if configFlags.paths {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		candidates := []string{config.GetGlobalConfigPath()}
		candidates = append(candidates, config.GetProjectConfigPaths(wd)...)
		if globalFlags.configPath != "" {
			candidates = []string{globalFlags.configPath}
		}
		for _, p := range candidates {
			state := "missing"
			if _, err := os.Stat(p); err == nil {
				state = "found"
			}
			fmt.Fprintf(out, "%-7s %s\n", state, p)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return toml.NewEncoder(out).Encode(cfg)
}
