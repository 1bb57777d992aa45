package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/customs-ai/internal/cli"
	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/monitor"
)

func monitorCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Summarize recent tariff actions from the Federal Register",
		Long: `Query the Federal Register for recent presidential documents and rules on
tariffs and trade, keep the newest 20 relevant ones and ask the chat model
for a plain-English summary. The snapshot is written as JSON and served at
/api/v1/tariff-updates.

With --interval the check repeats until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			mc := cfg.Monitor

			if show {
				snap, err := monitor.LoadSnapshot(mc.Snapshot)
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError("No tariff snapshot yet. Run customs monitor first.", err)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSnapshot(snap))
				return err
			}

			ctx := cmd.Context()

			client, err := newLLMClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closerOf(client)() }()

			var publisher monitor.Publisher
			if mc.NATSURL != "" {
				pub, err := monitor.ConnectNATS(mc.NATSURL, mc.NATSSubject)
				if err != nil {
					return err
				}
				defer func() { _ = pub.Close() }()
				publisher = pub
			}

			m := monitor.New(monitor.NewFederalRegister(mc.APIURL, mc.Timeout), client, publisher, monitor.Config{
				SnapshotPath: mc.Snapshot,
				DaysBack:     mc.DaysBack,
				MaxTokens:    mc.MaxTokens,
			}, nil)

			if mc.Interval > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo(fmt.Sprintf("Checking every %s. Press Ctrl+C to stop.", mc.Interval.Round(time.Second))))
				return m.Watch(ctx, mc.Interval)
			}

			snap, err := m.Run(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSnapshot(snap))
			return err
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print the saved snapshot without checking")
	cmd.Flags().Duration("interval", 0, "repeat the check at this interval")
	cmd.Flags().Int("days-back", 0, "look back this many days")
	cmd.Flags().String("nats-url", "", "publish each snapshot to this NATS server")
	cmd.Flags().String("nats-subject", "", "NATS subject for snapshots")
	_ = viper.BindPFlag("monitor.interval", cmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("monitor.days_back", cmd.Flags().Lookup("days-back"))
	_ = viper.BindPFlag("monitor.nats_url", cmd.Flags().Lookup("nats-url"))
	_ = viper.BindPFlag("monitor.nats_subject", cmd.Flags().Lookup("nats-subject"))

	return cmd
}
