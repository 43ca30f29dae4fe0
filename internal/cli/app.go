package cli

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"ghostwriter/app/internal/archive"
	"ghostwriter/app/internal/config"
	"ghostwriter/app/internal/db"
	"ghostwriter/app/internal/evaluate"
	"ghostwriter/app/internal/ghost"
	"ghostwriter/app/internal/llm"
	applog "ghostwriter/app/internal/log"
	"ghostwriter/app/internal/metrics"
	"ghostwriter/app/internal/pipeline"
	"ghostwriter/app/internal/search"
)

// appContext holds the process-wide collaborators every command needs.
type appContext struct {
	cfg    *config.Config
	logger *logrus.Logger
	hub    *sentry.Hub
	flush  func()
}

// newApp loads the environment, configuration and logger shared by every
// command. The returned flush func sends buffered sentry events and must be
// called before exit.
func newApp() (*appContext, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, eris.Wrap(err, "loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, eris.Wrap(err, "initialising logger")
	}

	hub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
	})
	if err != nil {
		return nil, eris.Wrap(err, "initialising sentry")
	}

	return &appContext{cfg: cfg, logger: logger, hub: hub, flush: flush}, nil
}

// pipelineSettings carries the per-invocation overrides from command flags.
type pipelineSettings struct {
	Variant  string
	Status   string
	Featured bool
	Evaluate bool
	Observe  bool
	MinScore float64
	RunID    string
}

// buildPipeline wires the external clients into the requested variant.
func buildPipeline(cfg *config.Config, logger *logrus.Logger, settings pipelineSettings) (pipeline.Pipeline, *metrics.Observer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, eris.Wrap(pipeline.ErrConfiguration, err.Error())
	}

	completer, err := llm.NewCompleter(cfg, logger)
	if err != nil {
		return nil, nil, eris.Wrap(err, "creating llm completer")
	}

	writer, err := llm.NewWriter(llm.WriterOptions{
		Completer:   completer,
		Logger:      logger,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "creating writer")
	}

	searchClient, err := search.NewClient(search.ClientOptions{
		APIKey: cfg.TavilyAPIKey,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "creating search client")
	}

	ghostClient, err := ghost.NewClient(ghost.ClientOptions{
		URL:      cfg.GhostURL,
		AdminKey: cfg.GhostAdminKey,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "creating ghost client")
	}

	deps := pipeline.Deps{
		Search:          searchClient,
		Writer:          writer,
		Ghost:           ghostClient,
		Logger:          logger,
		MinQualityScore: settings.MinScore,
		Status:          settings.Status,
		Featured:        settings.Featured,
	}

	if settings.Evaluate {
		evaluator, err := evaluate.NewEvaluator(evaluate.DefaultWeights())
		if err != nil {
			return nil, nil, eris.Wrap(err, "creating evaluator")
		}
		deps.Evaluator = evaluator
	}

	var observer *metrics.Observer
	if settings.Observe {
		observer = metrics.NewObserver(metrics.Options{
			RunID:  settings.RunID,
			Model:  cfg.LLMModel,
			Logger: logger,
		})
		deps.Observer = observer
	}

	p, err := pipeline.New(settings.Variant, deps, completer)
	if err != nil {
		return nil, nil, err
	}

	return p, observer, nil
}

// openArchive opens the run archive database and ensures the schema exists.
func openArchive(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*archive.GormRepository, func(), error) {
	conn, err := db.Open(db.Options{Path: cfg.ArchivePath})
	if err != nil {
		return nil, nil, eris.Wrap(err, "opening archive database")
	}

	closeFunc := func() {
		if closeErr := db.Close(conn); closeErr != nil {
			logger.WithError(closeErr).Error("closing archive database")
		}
	}

	if err := archive.Migrate(ctx, conn, logger); err != nil {
		closeFunc()
		return nil, nil, eris.Wrap(err, "migrating archive schema")
	}

	repo, err := archive.NewRepository(conn, logger)
	if err != nil {
		closeFunc()
		return nil, nil, eris.Wrap(err, "building archive repository")
	}

	return repo, closeFunc, nil
}
