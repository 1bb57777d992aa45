package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/customs-ai/internal/cli"
	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/engine"
)

func classifyCmd() *cobra.Command {
	var (
		country   string
		imagePath string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "classify [description]",
		Short: "Suggest an HTS code for a product",
		Long: `Classify a product by retrieving the most similar CBP rulings and asking
the chat model for an HTS code, duty notes and the rulings it relied on.

With no description argument you are prompted for one.`,
		Example: `  customs classify "Bluetooth wireless earbuds with charging case" --country China
  customs classify --image mug.jpg "white ceramic coffee mug"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			description := strings.Join(args, " ")

			if strings.TrimSpace(description) == "" {
				reader := cli.NewLineReader(cmd.InOrStdin(), cmd.OutOrStdout())
				answer, err := reader.Ask(ctx, "Product description")
				if err != nil && !errors.Is(err, cli.ErrInputCancelled) {
					return err
				}
				description = answer
			}
			if strings.TrimSpace(description) == "" {
				return common.NewUserError("Please enter a product description.", common.ErrEmptyDescription)
			}

			req := engine.Request{Description: description, Country: country}
			if imagePath != "" {
				data, err := os.ReadFile(imagePath) // #nosec G304 - user-supplied CLI path
				if err != nil {
					return fmt.Errorf("failed to read image: %w", err)
				}
				req.Image = data
				req.ImageMIME = http.DetectContentType(data)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			eng, cleanup, err := newEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup.Close()

			result, classifyErr := eng.Classify(ctx, req)
			if classifyErr != nil && result == nil {
				return classifyErr
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), cli.RenderClassification(result)); err != nil {
				slog.Warn("Failed to write classification", "error", err)
			}
			if classifyErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("The structured answer failed validation: "+classifyErr.Error()))
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.SaveClassification(ctx, result); err != nil {
				return err
			}
			if output != "" {
				if err := common.WriteJSONAtomic(output, result); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Ask about duties with: customs followup \"your question\""))
			return classifyErr
		},
	}

	cmd.Flags().StringVarP(&country, "country", "c", "", "country of origin")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "product image (jpg or png)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the result as JSON to this file")
	cmd.Flags().Bool("structured", false, "request and validate a JSON answer")
	_ = viper.BindPFlag("classification.structured", cmd.Flags().Lookup("structured"))

	return cmd
}
