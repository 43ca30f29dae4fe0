package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"

	"ghostwriter/app/internal/evaluate"
	"ghostwriter/app/internal/ghost"
	"ghostwriter/app/internal/llm"
	"ghostwriter/app/internal/metrics"
)

const e2eAdminKey = "abc123:68656c6c6f776f726c646b6579"

// generatedTitle and generatedBody mimic what a well-behaved model returns for
// the scripted run: an in-band title and a body hitting every content target.
const generatedTitle = "The Science-Backed Benefits of a Morning Meditation Habit"

func generatedBody() string {
	sentence := "Researchers report that a short morning meditation habit can improve focus and mood for many people. "

	var builder strings.Builder
	builder.WriteString("<p>Starting the day with morning meditation delivers science-backed benefits that reach far beyond relaxation, and this guide walks through what the research says about building the habit step by step every single day.</p>")
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&builder, "<h2>Benefit %d of the Morning Meditation Habit</h2>", i)
		builder.WriteString("<p>" + strings.Repeat(sentence, 6) + "</p>")
		builder.WriteString("<p>" + strings.Repeat(sentence, 6) + "</p>")
	}
	builder.WriteString("<h3>How to Get Started</h3>")
	builder.WriteString("<ul><li>Pick a <strong>consistent</strong> time</li><li>Start with five minutes</li></ul>")
	builder.WriteString("<p>" + strings.Repeat(sentence, 4) + "</p>")
	builder.WriteString("<p>In conclusion, the science-backed benefits of a morning meditation habit are clear, and anyone can begin with a few quiet minutes each day to build focus, calm and resilience over the following weeks and months.</p>")

	return builder.String()
}

// newScriptedWriter builds a real Writer over canned completions, so the
// title/content/tags cleaning paths all run.
func newScriptedWriter(t *testing.T) *llm.Writer {
	t.Helper()

	completer := &queueCompleter{replies: []string{
		generatedTitle,
		"```html\n" + generatedBody() + "\n```",
		"Tags: meditation, wellness, mindfulness, habits",
	}}

	writer, err := llm.NewWriter(llm.WriterOptions{Completer: completer, Logger: discardLogger()})
	if err != nil {
		t.Fatalf("NewWriter returned error: %v", err)
	}
	return writer
}

func newGhostServer(t *testing.T, status int, body string) (*httptest.Server, *ghost.Client) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Errorf("missing Authorization header")
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	client, err := ghost.NewClient(ghost.ClientOptions{
		URL:      server.URL,
		AdminKey: e2eAdminKey,
		Logger:   discardLogger(),
	})
	if err != nil {
		t.Fatalf("ghost.NewClient returned error: %v", err)
	}
	return server, client
}

func TestEndToEndScriptedRunPublishesInBandPost(t *testing.T) {
	t.Parallel()

	_, ghostClient := newGhostServer(t, http.StatusCreated,
		`{"posts": [{"url": "https://blog.example.com/morning-meditation/"}]}`)

	evaluator, err := evaluate.NewEvaluator(evaluate.DefaultWeights())
	if err != nil {
		t.Fatalf("NewEvaluator returned error: %v", err)
	}

	p, err := NewSequential(Deps{
		Search:    &fakeSearcher{result: researchFixture()},
		Writer:    newScriptedWriter(t),
		Ghost:     ghostClient,
		Evaluator: evaluator,
		Observer:  metrics.NewObserver(metrics.Options{Model: "gpt-4"}),
		Logger:    discardLogger(),
		Status:    ghost.StatusPublished,
	})
	if err != nil {
		t.Fatalf("NewSequential returned error: %v", err)
	}

	result, err := p.Run(context.Background(), "morning meditation")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(result.Title) < 50 || len(result.Title) > 70 {
		t.Errorf("title length %d outside [50,70]: %q", len(result.Title), result.Title)
	}
	if len(result.Tags) < 3 || len(result.Tags) > 5 {
		t.Errorf("tag count %d outside [3,5]: %v", len(result.Tags), result.Tags)
	}
	if result.URL != "https://blog.example.com/morning-meditation/" {
		t.Errorf("unexpected url %q", result.URL)
	}
	if strings.Contains(result.HTML, "```") {
		t.Errorf("code fence leaked into published content")
	}

	if result.Quality == nil {
		t.Fatalf("expected a quality score")
	}
	// SEO at maximum implies the title, tag count, word count and keyword
	// targets were all hit.
	if result.Quality.SEO != 100 {
		t.Errorf("SEO sub-score = %g, want 100 (issues: %v)", result.Quality.SEO, result.Quality.Issues)
	}

	if result.Snapshot == nil || result.Snapshot.Cost.TotalTokens == 0 {
		t.Errorf("expected a non-empty cost estimate")
	}
}

func TestEndToEndGhostFailureYieldsPublishError(t *testing.T) {
	t.Parallel()

	_, ghostClient := newGhostServer(t, http.StatusInternalServerError, `{"errors": [{"message": "boom"}]}`)

	p, err := NewSequential(Deps{
		Search: &fakeSearcher{result: researchFixture()},
		Writer: newScriptedWriter(t),
		Ghost:  ghostClient,
		Logger: discardLogger(),
		Status: ghost.StatusPublished,
	})
	if err != nil {
		t.Fatalf("NewSequential returned error: %v", err)
	}

	result, err := p.Run(context.Background(), "morning meditation")
	if result != nil {
		t.Fatalf("expected no result on publish failure, got %+v", result)
	}
	if !eris.Is(err, ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
}
