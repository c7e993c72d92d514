package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stridehq/stride/internal/chat"
	"github.com/stridehq/stride/internal/server"
	"github.com/stridehq/stride/internal/telemetry"
	"github.com/stridehq/stride/llm"
)

// serveCmd runs the HTTP API server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Stride API server",
	Long: `Starts the HTTP server exposing the chat endpoint and goal resources.
The LLM provider is taken from configuration (llm.provider / STRIDE_LLM_PROVIDER).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := GetConfig()

		st, err := GetStore()
		if err != nil {
			return fmt.Errorf("initialize store: %w", err)
		}
		defer func() { _ = st.Close() }()

		provider, err := llm.ValidateProvider(config.LLM.Provider)
		if err != nil {
			return err
		}
		modelName := config.LLM.ModelName
		if modelName == "" {
			modelName = llm.DefaultModelForProvider(config.LLM.Provider)
		}
		generator := llm.NewClient(llm.Config{
			Provider:    provider,
			Model:       modelName,
			APIKey:      config.LLM.APIKey,
			BaseURL:     config.LLM.BaseURL,
			MaxTokens:   config.LLM.MaxOutputTokens,
			Temperature: float32(config.LLM.Temperature),
		})

		svc := chat.NewService(st, generator,
			chat.WithTemplatesDir(config.Prompts.TemplatesDir))

		srv := server.New(server.Config{
			Port:           config.Server.Port,
			AllowedOrigins: config.Server.AllowedOrigins,
			Store:          st,
			Chat:           svc,
			Telemetry:      telemetry.NewFromEnv(version),
		})

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		fmt.Fprintf(os.Stderr, "stride listening on :%d (backend=%s, provider=%s)\n",
			config.Server.Port, config.Data.Backend, provider)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
