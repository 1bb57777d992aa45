package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/customs-ai/internal/cli"
	"github.com/Veraticus/customs-ai/internal/corpus"
	"github.com/Veraticus/customs-ai/internal/indexer"
)

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed the corpus and upload it to the vector index",
		Long: `Embed every ruling in the corpus and upsert it into the configured vector
index. The first failure stops the upload; rulings already uploaded stay in
the index and a rerun overwrites them by id.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Rerun customs index to upload the remaining rulings.")
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()

			rulings, err := corpus.Load(cfg.Scraper.Corpus)
			if err != nil {
				return err
			}
			if len(rulings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("The corpus is empty. Run customs scrape first."))
				return nil
			}

			emb, closeEmb, err := newEmbedder(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeEmb() }()

			store, closeStore, err := openVectorStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(rulings), "Uploading rulings...")
			report, err := indexer.New(emb, store, bar, nil).Index(ctx, rulings)
			_ = bar.Finish()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Uploaded %d rulings (%d skipped without text)", report.Uploaded, report.Skipped)))
			return err
		},
	}

	cmd.Flags().String("corpus", "", "corpus file (default from scraper.corpus)")
	_ = viper.BindPFlag("scraper.corpus", cmd.Flags().Lookup("corpus"))

	return cmd
}
