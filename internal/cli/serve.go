package cli

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ghostwriter/app/internal/archive"
	"ghostwriter/app/internal/config"
	"ghostwriter/app/internal/ghost"
	"ghostwriter/app/internal/httpapi"
	"ghostwriter/app/internal/pipeline"
)

var serveFlags struct {
	pipeline string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API server",
	Long: `serve exposes the pipeline over HTTP: POST /v1/posts runs a full
research-write-publish cycle, GET /v1/runs lists archived runs and
GET /healthz reports liveness.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.pipeline, "pipeline", pipeline.VariantSequential, "pipeline variant: sequential, agent or crew")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.flush()
	cfg, logger := app.cfg, app.logger

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()

	repo, closeArchive, err := openArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	runner := newPostRunner(cfg, logger, repo, serveFlags.pipeline)

	server, err := httpapi.NewServer(httpapi.Options{
		Runner:    runner,
		Archive:   repo,
		Logger:    logger,
		SentryHub: app.hub,
		RateLimiter: httpapi.RateLimiterSettings{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return eris.Wrap(err, "initialising http transport")
	}

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: server.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr":     httpServer.Addr,
		"pipeline": serveFlags.pipeline,
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	logger.Info("http server shut down cleanly")
	return nil
}

// newPostRunner builds a fresh pipeline per request so the publish status and
// observer run id stay request-scoped.
func newPostRunner(cfg *config.Config, logger *logrus.Logger, repo archive.Repository, variant string) httpapi.PostRunner {
	return httpapi.PostRunnerFunc(func(ctx context.Context, topic, status string) (*pipeline.Result, error) {
		if status == "" {
			status = ghost.StatusPublished
		}

		p, _, err := buildPipeline(cfg, logger, pipelineSettings{
			Variant:  variant,
			Status:   status,
			Evaluate: cfg.EnableEvaluation,
			Observe:  cfg.EnableObservability,
			MinScore: cfg.MinQualityScore,
			RunID:    uuid.NewString(),
		})
		if err != nil {
			return nil, err
		}

		result, err := p.Run(ctx, topic)
		if err != nil {
			return nil, err
		}

		if repo != nil {
			run := archive.FromResult(result, variant)
			if appendErr := repo.Append(ctx, &run); appendErr != nil {
				logger.WithError(appendErr).Warn("could not archive run")
			}
		}

		return result, nil
	})
}
