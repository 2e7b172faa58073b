package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/handler"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/metrics"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/persona"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/ai"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/chat"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/corpus"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/mail"
)

var (
	// Global flags
	envFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "portfolio-api",
	Short: "Portfolio backend: chat assistant, job description analysis and contact form",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger, err = newLogger(cfg.Server, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the Gemini models available to GEMINI_API_KEY",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listModels(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(modelsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(serverCfg config.ServerConfig, debug bool) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if serverCfg.Production() {
		zcfg = zap.NewProductionConfig()
	}
	if serverCfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(serverCfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

func serve(ctx context.Context) error {
	// Load the corpus in the background while the rest of the stack comes up
	loader := corpus.NewLoader(cfg.Corpus.ResumePath, cfg.Corpus.ProjectsDir, logger.Named("corpus"))
	go loader.Load(ctx)

	var store *chat.MemoryStore
	m := metrics.New(func() int { return store.Len() })
	store = chat.NewMemoryStore(chat.Options{
		MaxHistory:  cfg.Session.MaxHistory,
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
		OnEvict: func(sessionID string) {
			m.SessionEvicted()
			logger.Debug("session evicted", zap.String("session_id", sessionID))
		},
	})
	sweeper := chat.NewSweeper(store, cfg.Session.SweepInterval, logger.Named("sessions"), func(removed, _ int) {
		m.SessionsSwept(removed)
	})

	personaStore := persona.NewMemoryStore(persona.Seed())
	prompts := ai.NewPromptBuilder(cfg.AI.Owner, personaStore, loader)
	assistant := newAssistant(ctx, prompts)

	mailer, err := mail.New(cfg.Mail)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	if !mailer.Enabled() {
		logger.Warn("email credentials not configured, /api/contact will answer 500")
	}

	router := handler.NewRouter(handler.Dependencies{
		Config:    *cfg,
		Logger:    logger,
		Metrics:   m,
		Assistant: assistant,
		Sessions:  store,
		Corpus:    loader,
		Mailer:    mailer,
	})

	if err := loader.Wait(ctx); err != nil {
		logger.Info("shutdown requested before the corpus was ready")
		return nil
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("portfolio backend listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Server.Env),
			zap.String("provider", string(cfg.AI.Provider)),
		)
		return runServer(gctx, srv)
	})
	return g.Wait()
}

// newAssistant never fails: without a usable model every chat route answers
// 500 with the reason instead of the server refusing to start.
func newAssistant(ctx context.Context, prompts *ai.PromptBuilder) *ai.Service {
	aiLogger := logger.Named("ai")

	svc, err := ai.NewService(ctx, cfg.AI, prompts, aiLogger)
	if err == nil {
		logger.Info("AI service initialized", zap.String("provider", string(cfg.AI.Provider)), zap.String("model", cfg.AI.Model()))
		return svc
	}

	var notConfigured *ai.NotConfiguredError
	if errors.As(err, &notConfigured) {
		logger.Warn("AI credentials not configured, continuing without a model", zap.String("reason", notConfigured.Reason))
		return ai.NewUnavailableService(notConfigured.Reason, aiLogger)
	}

	logger.Error("failed to initialize AI service, continuing without a model", zap.Error(err))
	return ai.NewUnavailableService("AI service unavailable", aiLogger)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func listModels(ctx context.Context, out io.Writer) error {
	client, err := ai.NewGeminiClient(ctx, cfg.AI.GeminiAPIKey)
	if err != nil {
		return err
	}

	count := 0
	for model, err := range client.Models.All(ctx) {
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}
		count++
		actions := strings.Join(model.SupportedActions, ",")
		if _, err := fmt.Fprintf(out, "- %s\t%s\t[%s]\n", model.Name, model.DisplayName, actions); err != nil {
			return err
		}
	}
	if count == 0 {
		return errors.New("no models returned for this API key")
	}
	return nil
}
