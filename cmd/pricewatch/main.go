package main

import (
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wealthpath/pricewatch/internal/config"
)

var verbose bool

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pricewatch",
		Short: "Product price tracker for Amazon, Flipkart and other shops",
		Long: `pricewatch tracks product prices and raises alerts on drops.

Database commands read DATABASE_URL and the other settings the API server
uses, including an optional .env file in the working directory.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(classifyCmd())
	root.AddCommand(scrapeCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(tokenCmd())

	return root
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() *config.Config {
	return config.Load()
}
