package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieMate/internal/config"
	"github.com/vadimtrunov/MovieMate/internal/llm/gemini"
)

// newModelsCmd lists the Gemini models that support content generation.
func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List Gemini models usable for chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.LLM.Provider != "gemini" {
				return fmt.Errorf("model listing requires llm.provider 'gemini', got %q", cfg.LLM.Provider)
			}

			logger := config.SetupLogger(cfg.App.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			client, err := gemini.New(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, logger)
			if err != nil {
				return err
			}
			models, err := client.ListModels(ctx)
			if err != nil {
				return err
			}
			printModels(cmd.OutOrStdout(), models)
			return nil
		},
	}
}

func printModels(w io.Writer, models []gemini.ModelInfo) {
	if len(models) == 0 {
		fmt.Fprintln(w, styleDim.Render("No models support generateContent."))
		return
	}
	fmt.Fprintln(w, styleHeader.Render("Available models"))
	for _, m := range models {
		name := styleInfo.Render(m.Name)
		if m.DisplayName != "" {
			name += styleDim.Render("  " + m.DisplayName)
		}
		fmt.Fprintln(w, name)
	}
}
