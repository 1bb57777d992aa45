package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/customs-ai/internal/feedback"
	"github.com/Veraticus/customs-ai/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			eng, cleanup, err := newEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup.Close()

			gate, err := server.NewPasswordGate(cfg.FollowUp.Password, cfg.FollowUp.PasswordHash)
			if err != nil {
				return err
			}
			if gate == nil {
				slog.Warn("No follow-up password configured; follow-up questions are disabled")
			}

			if viper.GetString("logging.level") != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			handler := server.NewHandler(eng, feedback.NewLog(cfg.Feedback.Path), gate, cfg.Monitor.Snapshot, version, slog.Default())
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           server.SetupRouter(handler, cfg.Server.AllowedOrigins),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("Listening", "addr", cfg.Server.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			slog.Info("Shutting down server")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
