package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Revetex/tradeguard/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  trader config init -o tradeguard.yaml
  trader config validate -f tradeguard.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  trader config init -o tradeguard.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  trader config validate -f tradeguard.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "tradeguard.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.Default().SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("%s Created default configuration: %s\n", okStyle.Render("✓"), configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  trader status -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	c, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	p, err := c.Policy()
	if err != nil {
		return err
	}

	fmt.Printf("%s Configuration valid: %s\n", okStyle.Render("✓"), configValidatePath)
	fmt.Printf("  Account: %s ($%s, %s)\n", c.Account.ID, c.Account.StartingCash.StringFixed(2), c.Account.Mode)
	fmt.Printf("  Guardrails: %d trades/day, cooldown %s, per-symbol cooldown %s\n",
		p.MaxTradesPerDay, p.GlobalCooldown, p.SymbolCooldown)
	fmt.Printf("  Signals: enabled=%t base_size=%s\n", c.Signals.Enabled, c.Signals.BaseSize.StringFixed(2))
	fmt.Printf("  Market: %s\n", c.Market.Provider)
	fmt.Printf("  Journal: %s\n", c.Journal.Type)
	return nil
}
