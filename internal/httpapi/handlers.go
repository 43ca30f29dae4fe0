package httpapi

import (
	"context"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"ghostwriter/app/internal/evaluate"
	"ghostwriter/app/internal/ghost"
	"ghostwriter/app/internal/pipeline"
)

const defaultRunsLimit = 20

type createPostInput struct {
	Body struct {
		Topic  string `json:"topic" minLength:"1" doc:"Topic to research and write about"`
		Status string `json:"status,omitempty" enum:"draft,published" required:"false" doc:"Publish status, defaults to published"`
	}
}

type createPostOutput struct {
	Status int
	Body   struct {
		RunID   string                 `json:"run_id,omitempty"`
		Topic   string                 `json:"topic"`
		Title   string                 `json:"title"`
		Tags    []string               `json:"tags"`
		URL     string                 `json:"url"`
		Quality *evaluate.QualityScore `json:"quality,omitempty"`
	}
}

type listRunsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"500" required:"false" doc:"Maximum number of runs to return"`
}

type runEntry struct {
	RunID            string    `json:"run_id"`
	Topic            string    `json:"topic"`
	Title            string    `json:"title"`
	URL              string    `json:"url"`
	WordCount        int       `json:"word_count"`
	OverallScore     float64   `json:"overall_score"`
	Grade            string    `json:"grade"`
	DurationMS       int64     `json:"duration_ms"`
	EstimatedCostUSD float64   `json:"estimated_cost_usd"`
	Pipeline         string    `json:"pipeline"`
	CreatedAt        time.Time `json:"created_at"`
}

type listRunsOutput struct {
	Body struct {
		Runs []runEntry `json:"runs"`
	}
}

type healthResponse struct {
	Status int
	Body   struct {
		Status  string `json:"status"`
		Archive string `json:"archive"`
	}
}

func (s *Server) registerCreatePostRoute() {
	huma.Post(s.api, "/v1/posts", s.createPostHandler, func(op *huma.Operation) {
		op.Summary = "Research, write and publish a post"
	})
}

func (s *Server) registerListRunsRoute() {
	huma.Get(s.api, "/v1/runs", s.listRunsHandler, func(op *huma.Operation) {
		op.Summary = "List archived runs"
	})
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) createPostHandler(ctx context.Context, input *createPostInput) (*createPostOutput, error) {
	topic := strings.TrimSpace(input.Body.Topic)
	if topic == "" {
		return nil, huma.Error400BadRequest("topic is required")
	}

	status := input.Body.Status
	if status == "" {
		status = ghost.StatusPublished
	}

	result, err := s.runner.CreatePost(ctx, topic, status)
	if err != nil {
		s.recordError(ctx, err, "pipeline run failed", logrus.Fields{"topic": topic})
		return nil, pipelineErrorToHTTP(err)
	}

	out := &createPostOutput{Status: stdhttp.StatusCreated}
	out.Body.RunID = result.RunID
	out.Body.Topic = result.Topic
	out.Body.Title = result.Title
	out.Body.Tags = result.Tags
	out.Body.URL = result.URL
	out.Body.Quality = result.Quality
	return out, nil
}

func (s *Server) listRunsHandler(ctx context.Context, input *listRunsInput) (*listRunsOutput, error) {
	if s.archive == nil {
		return nil, huma.Error503ServiceUnavailable("run archive is not configured")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}

	runs, err := s.archive.List(ctx, limit)
	if err != nil {
		s.recordError(ctx, err, "listing archived runs", nil)
		return nil, huma.Error500InternalServerError("could not list runs")
	}

	out := &listRunsOutput{}
	out.Body.Runs = make([]runEntry, 0, len(runs))
	for _, run := range runs {
		out.Body.Runs = append(out.Body.Runs, runEntry{
			RunID:            run.RunID,
			Topic:            run.Topic,
			Title:            run.Title,
			URL:              run.URL,
			WordCount:        run.WordCount,
			OverallScore:     run.OverallScore,
			Grade:            run.Grade,
			DurationMS:       run.DurationMS,
			EstimatedCostUSD: run.EstimatedCostUSD,
			Pipeline:         run.Pipeline,
			CreatedAt:        run.CreatedAt,
		})
	}
	return out, nil
}

func (s *Server) healthHandler(_ context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Archive = "ok"

	if s.archive == nil {
		resp.Body.Archive = "unconfigured"
	}

	return resp, nil
}

// pipelineErrorToHTTP maps the pipeline error taxonomy onto HTTP statuses:
// configuration problems are the caller's fault, upstream failures are
// gateway errors.
func pipelineErrorToHTTP(err error) error {
	switch {
	case eris.Is(err, pipeline.ErrConfiguration):
		return huma.Error400BadRequest(err.Error())
	case eris.Is(err, pipeline.ErrSearch), eris.Is(err, pipeline.ErrGeneration), eris.Is(err, pipeline.ErrPublish):
		return huma.Error502BadGateway(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
