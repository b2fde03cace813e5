package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wealthpath/pricewatch/internal/app"
	"github.com/wealthpath/pricewatch/internal/database"
	"github.com/wealthpath/pricewatch/internal/handler"
	"github.com/wealthpath/pricewatch/internal/scraper"
	"github.com/wealthpath/pricewatch/internal/service"
	"github.com/wealthpath/pricewatch/pkg/currency"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [url]",
		Short: "Print the platform and product identifier of a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := scraper.Classify(args[0])
			return writeJSON(cmd.OutOrStdout(), c)
		},
	}
}

var (
	scrapeTimeout  time.Duration
	scrapeBrowser  bool
	scrapeSelector string
)

func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url]",
		Short: "Fetch a product page once and print the parsed snapshot",
		Long: `Fetch a product page once and print the parsed snapshot as JSON.

Nothing is written to the database. Useful to check selectors against a live page.`,
		Args: cobra.ExactArgs(1),
		RunE: runScrape,
	}

	cmd.Flags().DurationVar(&scrapeTimeout, "timeout", 30*time.Second, "overall scrape timeout")
	cmd.Flags().BoolVar(&scrapeBrowser, "browser", false, "fall back to headless Chromium when blocked")
	cmd.Flags().StringVar(&scrapeSelector, "selectors", "", "YAML file overriding the built-in selectors")

	return cmd
}

type scrapeOutput struct {
	URL            string  `json:"url"`
	Platform       string  `json:"platform"`
	Identifier     *string `json:"identifier,omitempty"`
	Price          *string `json:"price"`
	Display        string  `json:"display,omitempty"`
	Name           string  `json:"name,omitempty"`
	ImageURL       string  `json:"imageUrl,omitempty"`
	Currency       string  `json:"currency"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := setupLogger()
	cfg := loadConfig().Scraper
	if scrapeBrowser {
		cfg.BrowserFallback = true
	}
	if scrapeSelector != "" {
		cfg.SelectorsFile = scrapeSelector
	}

	sc, err := app.NewScraper(cfg, logger)
	if err != nil {
		return err
	}
	defer sc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), scrapeTimeout)
	defer cancel()

	return scrapeURL(ctx, cmd.OutOrStdout(), sc, args[0])
}

func scrapeURL(ctx context.Context, out io.Writer, sc service.ProductScraper, url string) error {
	c := scraper.Classify(url)

	start := time.Now()
	snap, err := sc.Scrape(ctx, url, c.Platform)
	if err != nil {
		return err
	}

	result := scrapeOutput{
		URL:            url,
		Platform:       string(c.Platform),
		Identifier:     c.Identifier,
		Name:           snap.Name,
		ImageURL:       snap.ImageURL,
		Currency:       snap.Currency,
		ElapsedSeconds: time.Since(start).Seconds(),
	}
	if snap.HasPrice() {
		p := snap.Price.Decimal.String()
		result.Price = &p
		result.Display = currency.Format(snap.Price.Decimal, snap.Currency)
	}
	return writeJSON(out, result)
}

var checkOwner string

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a price check against the configured database",
		Long: `Re-scrape every watching item, record new prices and raise alerts.

Without --owner every owner's items are checked, the same batch the scheduler runs.`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}

	cmd.Flags().StringVar(&checkOwner, "owner", "", "only check items of this owner (uuid)")

	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	var owner *uuid.UUID
	if checkOwner != "" {
		id, err := uuid.Parse(checkOwner)
		if err != nil {
			return fmt.Errorf("invalid --owner: %w", err)
		}
		owner = &id
	}

	logger := setupLogger()
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.PriceCheck.Timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	outcomes, err := a.PriceCheck.RunCheck(ctx, owner)
	if writeErr := writeJSON(cmd.OutOrStdout(), summarize(outcomes)); writeErr != nil {
		return writeErr
	}
	return err
}

type checkSummary struct {
	Checked  int                    `json:"checked"`
	Updated  int                    `json:"updated"`
	NoPrice  int                    `json:"noPrice"`
	Errors   int                    `json:"errors"`
	Skipped  int                    `json:"skipped"`
	Alerts   int                    `json:"alerts"`
	Outcomes []service.CheckOutcome `json:"outcomes"`
}

func summarize(outcomes []service.CheckOutcome) checkSummary {
	s := checkSummary{Checked: len(outcomes), Outcomes: outcomes}
	if s.Outcomes == nil {
		s.Outcomes = []service.CheckOutcome{}
	}
	for _, o := range outcomes {
		switch o.Status {
		case service.CheckUpdated:
			s.Updated++
		case service.CheckNoPrice:
			s.NoPrice++
		case service.CheckError:
			s.Errors++
		case service.CheckSkipped:
			s.Skipped++
		}
		if o.Alert != nil {
			s.Alerts++
		}
	}
	return s
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := setupLogger()
			cfg := loadConfig()

			db, err := database.Connect(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			applied, err := database.Migrate(cmd.Context(), db, logger)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return err
		},
	}
}

var tokenTTL time.Duration

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [owner-uuid]",
		Short: "Sign a development bearer token for an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid owner: %w", err)
			}
			cfg := loadConfig()
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to sign tokens with ENV=production")
			}
			token, err := handler.SignToken(cfg.JWTSecret, owner, tokenTTL)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
