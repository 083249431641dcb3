package main

import (
	"cmp"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m2tx/chat_orchestrator/assets"
	"github.com/m2tx/chat_orchestrator/internal/agent"
	"github.com/m2tx/chat_orchestrator/internal/analyzer"
	"github.com/m2tx/chat_orchestrator/internal/config"
	"github.com/m2tx/chat_orchestrator/internal/functions"
	"github.com/m2tx/chat_orchestrator/internal/logging"
	"github.com/m2tx/chat_orchestrator/internal/moderation"
	"github.com/m2tx/chat_orchestrator/internal/orchestrator"
	"github.com/m2tx/chat_orchestrator/internal/repository"
	"github.com/m2tx/chat_orchestrator/internal/server"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

func newServeCmd(configPath *string) *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, *configPath)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().String("port", "", "HTTP port (env HTTP_PORT)")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	_ = v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("log.level", cmd.Flags().Lookup("log-level"))

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Model.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return errors.Wrap(err, "genai client")
	}

	gate, err := newGate(cfg, logger)
	if err != nil {
		return err
	}

	dispatcher, err := newDispatcher(cfg, client, logger)
	if err != nil {
		return err
	}

	completer, err := newAgent(cfg, client, logger)
	if err != nil {
		return err
	}

	var archive repository.TranscriptRepository
	if cfg.Mongo.Enabled() {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return errors.Wrap(err, "mongodb connect")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(ctx); err != nil {
				logger.Warn().Err(err).Msg("mongodb disconnect")
			}
		}()
		archive = repository.NewMongoTranscriptRepository(mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		logger.Info().Str("database", cfg.Mongo.Database).Str("collection", cfg.Mongo.Collection).Msg("transcript archive enabled")
	} else if cfg.InMemoryTranscripts {
		archive = repository.NewMemoryTranscriptRepository()
		logger.Info().Msg("in-memory transcript archive enabled")
	}

	orch := orchestrator.New(gate, dispatcher, completer, archive, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.New(orch, archive, cfg.Server.RequestTimeout, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("model", cfg.Model.Name).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newGate(cfg *config.Config, logger zerolog.Logger) (*moderation.Gate, error) {
	if !cfg.Moderation.Enabled {
		logger.Warn().Msg("moderation disabled by configuration")
		return moderation.NewGate(moderation.Nop), nil
	}
	if cfg.OpenAI.APIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY not set, moderation disabled")
		return moderation.NewGate(moderation.Nop), nil
	}

	classifier, err := moderation.NewOpenAIClassifier(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.Moderation.Model)
	if err != nil {
		return nil, err
	}
	return moderation.NewGate(classifier), nil
}

func newDispatcher(cfg *config.Config, client *genai.Client, logger zerolog.Logger) (*analyzer.Dispatcher, error) {
	var text analyzer.TextBackend
	var vision analyzer.VisionBackend

	switch cfg.Analyzer.Provider {
	case "openai":
		backend, err := analyzer.NewOpenAIBackend(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.Analyzer.Model)
		if err != nil {
			return nil, err
		}
		text, vision = backend, backend
	default:
		model := cmp.Or(cfg.Analyzer.Model, cfg.Model.Name)
		backend := analyzer.NewGenAIBackend(client.Models, model, cmp.Or(cfg.Analyzer.VisionModel, model))
		text, vision = backend, backend
	}

	logger.Info().Str("provider", cfg.Analyzer.Provider).Str("model", cfg.Analyzer.Model).Msg("analyzer configured")
	return analyzer.NewDispatcher(text, vision, analyzer.PDFExtractor{}, cfg.Analyzer.Config, logger), nil
}

func newAgent(cfg *config.Config, client *genai.Client, logger zerolog.Logger) (*agent.Agent, error) {
	a := agent.New(client.Models, cfg.Model.Name, assets.SystemInstruction, cfg.Agent, logger)

	index := agent.NewVectorIndex(logger)
	if err := index.LoadDir(cfg.Docs.Dir); err != nil {
		return nil, err
	}

	if err := a.AddFunctionCall(functions.CreateWebSearchFunctionDeclaration(agent.NewGroundedSearch(client.Models, cfg.Model.SearchModel))); err != nil {
		return nil, err
	}
	if err := a.AddFunctionCall(functions.CreateVectorSearchFunctionDeclaration(index)); err != nil {
		return nil, err
	}
	return a, nil
}
