package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bookrecon/internal/config"
	"bookrecon/internal/logger"
)

var version = "1.0.0"

var (
	cfg    *config.Config
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "bookrecon",
	Short: "bookrecon - reconcile shop payments with orders and invoices",
	Long: `bookrecon links incoming payments of a book shop to the orders and
invoices they settle.

Payments come from a payment provider export (PayPal) and from bank
statements. Orders and invoice assignments come from the shop system,
invoices are parsed from the wholesaler's PDF documents.

Every payment is rated "sicher", "fast sicher" or "unsicher". Results are
written as JSON, as an XLSX workbook or into a Google Sheet.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("bookrecon executed")

		fmt.Println("Willkommen bei bookrecon!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

// SetConfig hands the configuration loaded at startup to the commands. A load
// error is reported by the first command that needs the configuration.
func SetConfig(c *config.Config, err error) {
	cfg, cfgErr = c, err
}

// appConfig returns the startup configuration.
func appConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", cfgErr)
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
