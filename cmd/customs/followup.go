package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/customs-ai/internal/cli"
	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/engine"
)

func followupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "followup [question]",
		Short: "Ask a compliance question about the last classification",
		Long: `Ask a general import compliance question about the most recent
classification: import documentation, ADD/CVD applicability, bonding, ISF,
other agency filings, invoice content, origin marking or classification
methodology. Questions outside those topics, or that depend on specific
rates or thresholds, are declined with a referral to a licensed broker.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			last, err := store.LatestClassification(ctx)
			if errors.Is(err, common.ErrNotFound) {
				return common.NewUserError("No classification yet. Run customs classify first.", err)
			}
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			if strings.TrimSpace(question) == "" {
				reader := cli.NewLineReader(cmd.InOrStdin(), cmd.OutOrStdout())
				if question, err = reader.Ask(ctx, "Question about "+last.Description); err != nil && !errors.Is(err, cli.ErrInputCancelled) {
					return err
				}
			}

			eng, cleanup, err := newEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup.Close()

			answer, err := eng.FollowUp(ctx, engine.FollowUpRequest{
				Classification: last.Text,
				Description:    last.Description,
				Country:        last.Country,
				Question:       question,
			})
			if errors.Is(err, common.ErrEmptyQuestion) {
				return common.NewUserError("Please enter a question.", err)
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderFollowUp(question, answer))
			return err
		},
	}
}
