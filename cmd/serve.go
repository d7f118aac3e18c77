package cmd

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"talentlens/internal/ai/gemini"
	"talentlens/internal/logger"
	"talentlens/internal/pipeline"
	"talentlens/internal/secrets"
	"talentlens/internal/server"
	"talentlens/internal/sources/dribbble"
	"talentlens/internal/sources/github"
	"talentlens/internal/sources/resume"
	"talentlens/internal/sources/sheets"
	"talentlens/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background sheet poller",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default :8080)")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting talentlens", zap.String("version", version))

	deps, err := buildPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	poller := pipeline.NewPoller(
		deps.store,
		sheets.New(logger),
		deps.analyzer,
		config.Sheets.URL,
		config.Sheets.PollInterval,
		logger,
	)
	go poller.Run(ctx)

	srv := server.New(deps.store, scanAdapter{deps.scanner}, deps.analyzer, poller, config.ImagesDir, logger)

	httpServer := &http.Server{
		Addr:              config.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", config.Listen))
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		logger.Fatal("http server failed", zap.Error(err))
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", zap.Error(err))
	}
}

// pipelineDeps bundles the wired components both commands share.
type pipelineDeps struct {
	store     *store.Store
	generator *gemini.Generator
	evaluator *gemini.Evaluator
	analyzer  *pipeline.Analyzer
	scanner   *pipeline.Scanner
}

func buildPipeline(ctx context.Context, config *Config, logger *zap.Logger) (*pipelineDeps, error) {
	st, err := store.New(
		store.NewFilePersister(config.StateFile),
		store.Thresholds{Hire: config.Scoring.HireThreshold, Reject: config.Scoring.RejectThreshold},
		logger,
	)
	if err != nil {
		return nil, err
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.Model, logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", config.Gemini.Model),
	))
	if err != nil {
		return nil, err
	}

	evaluator := gemini.NewEvaluator(generator, logger, config.Gemini.MaxLogLength)

	// The code-host and render-proxy credentials are optional: without them
	// the matching signal is skipped, not failed.
	githubToken := optionalSecret("github token", config.GitHub.TokenFile, "GITHUB_TOKEN", logger)
	jinaKey := optionalSecret("jina api key", config.Jina.APIKeyFile, "JINA_API_KEY", logger)

	analyzer := pipeline.NewAnalyzer(
		st,
		github.New(githubToken, logger),
		resume.New(generator, logger),
		evaluator,
		logger,
	)

	scraper := dribbble.NewScraper(
		dribbble.NewReader(jinaKey, logger),
		generator,
		config.ImagesDir,
		logger,
	)
	scanner := pipeline.NewScanner(st, scraper, generator, evaluator, config.ImagesDir, logger)

	return &pipelineDeps{
		store:     st,
		generator: generator,
		evaluator: evaluator,
		analyzer:  analyzer,
		scanner:   scanner,
	}, nil
}

func optionalSecret(name, file, env string, logger *zap.Logger) string {
	value, err := secrets.Load(secrets.Source{Name: name, File: file, Env: env})
	if err != nil {
		logger.Warn("secret not configured, its signal will be skipped",
			zap.String("secret", name),
			zap.Error(err),
		)
		return ""
	}
	return value
}

// scanAdapter lets the HTTP server drive the pipeline scanner through its own
// emitter interface.
type scanAdapter struct {
	inner *pipeline.Scanner
}

func (a scanAdapter) Scan(ctx context.Context, keyword string, maxProfiles, maxImages int, em server.Emitter) {
	a.inner.Scan(ctx, keyword, maxProfiles, maxImages, em)
}
