package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/customs-ai/internal/cli"
	"github.com/Veraticus/customs-ai/internal/model"
	"github.com/Veraticus/customs-ai/internal/rulings"
	"github.com/Veraticus/customs-ai/internal/storage"
)

func scrapeCmd() *cobra.Command {
	var (
		reset bool
		stats bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch CBP rulings into the local corpus",
		Long: `Sweep candidate ruling numbers for each prefix, keep pages with enough
text and merge them into the JSON corpus. Each run resumes after the
last number tried, so repeated runs extend coverage. Use --reset to
start from the beginning of every prefix.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Progress is saved. Run customs scrape again to resume.")
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if stats {
				return printOutcomeCounts(cmd, store)
			}

			sc := cfg.Scraper
			bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(sc.Prefixes)*sc.Span, "Fetching rulings...")

			ing, err := rulings.New(store, rulings.Config{
				BaseURL:    sc.BaseURL,
				UserAgent:  sc.UserAgent,
				CorpusPath: sc.Corpus,
				Prefixes:   sc.Prefixes,
				Span:       sc.Span,
				MaxRulings: sc.MaxRulings,
				MinText:    sc.MinText,
				MaxText:    sc.MaxText,
				Delay:      sc.Delay,
				Timeout:    sc.Timeout,
			}, nil, rulings.WithProgress(bar))
			if err != nil {
				return err
			}

			if reset {
				if err := ing.Reset(ctx); err != nil {
					return err
				}
			}

			report, err := ing.Run(ctx)
			_ = bar.Finish()
			if report != nil {
				printScrapeReport(cmd, report, sc.Corpus)
			}
			if errors.Is(err, context.Canceled) && handler.WasInterrupted() {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "clear the saved cursor before sweeping")
	cmd.Flags().BoolVar(&stats, "stats", false, "print recorded attempt outcomes without sweeping")
	cmd.Flags().Int("max", 0, "maximum rulings to store this run")
	cmd.Flags().Int("span", 0, "numbers to try per prefix")
	cmd.Flags().StringSlice("prefix", nil, "ruling prefixes to sweep (e.g. N3,H2)")
	_ = viper.BindPFlag("scraper.max_rulings", cmd.Flags().Lookup("max"))
	_ = viper.BindPFlag("scraper.span", cmd.Flags().Lookup("span"))
	_ = viper.BindPFlag("scraper.prefixes", cmd.Flags().Lookup("prefix"))

	return cmd
}

func printScrapeReport(cmd *cobra.Command, report *rulings.Report, path string) {
	summary := fmt.Sprintf("  • Attempted: %d\n", report.Attempted) +
		fmt.Sprintf("  • Stored: %d\n", report.Stored) +
		fmt.Sprintf("  • Too short: %d\n", report.Outcomes[model.OutcomeShort]) +
		fmt.Sprintf("  • HTTP errors: %d\n", report.Outcomes[model.OutcomeHTTPStatus]) +
		fmt.Sprintf("  • Network errors: %d\n", report.Outcomes[model.OutcomeNetwork]) +
		fmt.Sprintf("  • Corpus size: %d (%s)", report.Total, path)
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Scrape Complete", summary))
}

func printOutcomeCounts(cmd *cobra.Command, store *storage.SQLiteStorage) error {
	counts, err := store.OutcomeCounts(cmd.Context())
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, o := range []model.Outcome{model.OutcomeStored, model.OutcomeShort, model.OutcomeHTTPStatus, model.OutcomeNetwork} {
		fmt.Fprintf(&b, "  • %s: %d\n", o, counts[o])
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Recorded Attempts", strings.TrimSuffix(b.String(), "\n")))
	return err
}
