package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/customs-ai/internal/cli"
	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/feedback"
	"github.com/Veraticus/customs-ai/internal/model"
)

func feedbackCmd() *cobra.Command {
	var correct, incorrect bool

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record whether the last classification was correct",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			log := feedback.NewLog(cfg.Feedback.Path)
			if err := log.Append(model.FeedbackRecord{
				Description:    last.Description,
				Country:        last.Country,
				Classification: last.Text,
				Correct:        correct && !incorrect,
			}); err != nil {
				return err
			}

			n, err := log.Count()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Feedback recorded (%d total) in %s", n, log.Path())))
			return err
		},
	}

	cmd.Flags().BoolVar(&correct, "correct", false, "the classification was correct")
	cmd.Flags().BoolVar(&incorrect, "incorrect", false, "the classification was wrong")
	cmd.MarkFlagsMutuallyExclusive("correct", "incorrect")
	cmd.MarkFlagsOneRequired("correct", "incorrect")

	return cmd
}
