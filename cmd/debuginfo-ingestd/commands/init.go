package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parca-dev/debuginfo-ingest/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample debuginfo-ingestd configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/debuginfo-ingest/config.yaml. Use --config to specify a
custom path.

Examples:
  # Initialize with default location
  debuginfo-ingestd init

  # Initialize with custom path
  debuginfo-ingestd init --config /etc/debuginfo-ingest/config.yaml

  # Force overwrite existing config
  debuginfo-ingestd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	cfg := config.GetDefaultConfig()
	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: debuginfo-ingestd start")
	fmt.Printf("  3. Or specify custom config: debuginfo-ingestd start --config %s\n", configPath)

	return nil
}
