package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/copilot/internal/config"
	"github.com/ehr/copilot/internal/domain/patient"
	"github.com/ehr/copilot/internal/domain/reasoning"
	"github.com/ehr/copilot/internal/domain/retrieval"
	"github.com/ehr/copilot/internal/platform/knowledge"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "copilot-server",
		Short:        "Clinical copilot reasoning API",
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(indexCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(askCmd())
	return root
}

func newLogger(w io.Writer) zerolog.Logger {
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := newLogger(os.Stdout)

	// Config
	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	if _, err := a.reindexer.Reload(); err != nil {
		logger.Warn().Err(err).Str("dir", cfg.KnowledgeDir).Msg("failed to load knowledge directory")
	}
	a.scheduler.Start()

	e := a.router()

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("scheduler did not stop cleanly")
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Load the knowledge directory and report chunk counts per source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr())

			r := knowledge.NewReindexer(cfg.KnowledgeDir, cfg.ChunkSize, retrieval.NewRetriever(), logger)
			stats, err := r.Reload()
			if err != nil {
				return fmt.Errorf("index %s: %w", cfg.KnowledgeDir, err)
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Flatten a FHIR bundle file and store it for a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetString("patient")
			file, _ := cmd.Flags().GetString("file")

			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read bundle: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr())

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			repo, _, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			resp, err := patient.NewService(repo, logger).Ingest(ctx, patientID, raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().String("patient", "", "patient identifier to store the record under")
	cmd.Flags().String("file", "", "path to a FHIR Bundle JSON file")
	_ = cmd.MarkFlagRequired("patient")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Run the reasoning pipeline once and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			texts, _ := cmd.Flags().GetStringArray("fact")
			var facts []reasoning.PatientFact
			for _, f := range texts {
				facts = append(facts, reasoning.PatientFact{Text: f})
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr())

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			retriever := retrieval.NewRetriever()
			if _, err := knowledge.NewReindexer(cfg.KnowledgeDir, cfg.ChunkSize, retriever, logger).Reload(); err != nil {
				return fmt.Errorf("index %s: %w", cfg.KnowledgeDir, err)
			}
			svc, err := newReasoningService(ctx, cfg, retriever, logger)
			if err != nil {
				return err
			}

			resp := svc.Reason(ctx, strings.Join(args, " "), facts)
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringArray("fact", nil, "patient fact text (repeatable)")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
