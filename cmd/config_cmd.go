package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/gadash/internal/config"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Environment overrides: %s_*\n", config.EnvPrefix)
	fmt.Println()

	if err := toml.NewEncoder(os.Stdout).Encode(appConfig); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Println()
	fmt.Println("  Run `gadash setup` to reconfigure.")
	return nil
}
