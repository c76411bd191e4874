// Package cmd implements the afkmon CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:        %s\n", cfg.Server.Addr)
	fmt.Printf("    Default owner:  %s\n", cfg.Server.OwnerID)
	fmt.Printf("    Version:        %s\n", cfg.Server.Version)
	fmt.Println()

	fmt.Println("  [Database]")
	fmt.Printf("    Path:           %s\n", cfg.DBPath())
	fmt.Printf("    Timeout:        %s\n", cfg.DBTimeout())
	fmt.Println()

	fmt.Println("  [Extension]")
	fmt.Printf("    Timeout:        %s\n", cfg.ExtensionTimeout())
	fmt.Printf("    Retries:        %d (backoff %s)\n", cfg.Extension.RetryAttempts, cfg.Backoff())
	fmt.Printf("    Registry:       %d entries, ttl %s\n", cfg.Extension.RegistryMax, cfg.RegistryTTL())
	if cfg.SyncInterval() > 0 {
		fmt.Printf("    Sync interval:  %s\n", cfg.SyncInterval())
	} else {
		fmt.Println("    Sync interval:  off")
	}
	fmt.Printf("    Export pages:   %d x %d sessions\n", cfg.Extension.MaxPages, cfg.Extension.ExportLimit)
	if cfg.Extension.Token != "" {
		fmt.Printf("    Token:          %s\n", maskToken(cfg.Extension.Token))
	} else {
		fmt.Println("    Token:          not configured")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Println("  " + renderErr(fmt.Errorf("config is invalid: %w", err)))
		fmt.Println()
	}
	fmt.Println("  Run `afkmon setup` to reconfigure.")
	return nil
}

func maskToken(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
