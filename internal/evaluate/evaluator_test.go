package evaluate

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
)

const compliantTitle = "The Science-Backed Benefits of a Morning Meditation Habit"

// compliantPost builds a body that satisfies every SEO target: word count in
// [800,1500], intro and conclusion paragraphs, 4 main sections with depth,
// subsections, lists and emphasis.
func compliantPost() string {
	sentence := "Researchers report that a short morning meditation habit can improve focus and mood for many people. "

	paragraph := func(n int) string {
		return "<p>" + strings.Repeat(sentence, n) + "</p>"
	}

	var builder strings.Builder
	builder.WriteString("<p>Starting the day with morning meditation delivers science-backed benefits that reach far beyond relaxation, and this practical guide walks through what the research says about building the habit step by step every single day.</p>")

	for i := 1; i <= 4; i++ {
		builder.WriteString(fmt.Sprintf("<h2>Benefit %d of the Morning Meditation Habit</h2>", i))
		builder.WriteString(paragraph(6))
		builder.WriteString(paragraph(6))
	}

	builder.WriteString("<h3>How to Get Started</h3>")
	builder.WriteString("<ul><li>Pick a <strong>consistent</strong> time</li><li>Start with five minutes</li></ul>")
	builder.WriteString(paragraph(4))
	builder.WriteString("<p>In conclusion, the science-backed benefits of a morning meditation habit are clear, and anyone can begin with a few quiet minutes each day to build focus, calm and resilience over the following weeks and months.</p>")

	return builder.String()
}

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	evaluator, err := NewEvaluator(DefaultWeights())
	if err != nil {
		t.Fatalf("NewEvaluator returned error: %v", err)
	}
	return evaluator
}

func TestNewEvaluatorRejectsInvalidWeights(t *testing.T) {
	t.Parallel()

	if _, err := NewEvaluator(Weights{Readability: 0.5, Structure: 0.5, SEO: 0.5, Completeness: 0.5}); err == nil {
		t.Fatalf("expected error for weights not summing to 1")
	}

	if _, err := NewEvaluator(Weights{Readability: -0.5, Structure: 0.5, SEO: 0.5, Completeness: 0.5}); err == nil {
		t.Fatalf("expected error for negative weight")
	}
}

func TestCompliantPostScoresMaximumSEO(t *testing.T) {
	t.Parallel()

	if len(compliantTitle) < 50 || len(compliantTitle) > 70 {
		t.Fatalf("test fixture title length %d outside [50,70]", len(compliantTitle))
	}

	evaluator := newEvaluator(t)
	score, err := evaluator.Evaluate(compliantTitle, compliantPost(), []string{"meditation", "wellness", "mindfulness", "habits"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if score.SEO != 100 {
		t.Fatalf("expected SEO sub-score 100 for in-band post, got %g (issues: %v)", score.SEO, score.Issues)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	t.Parallel()

	evaluator := newEvaluator(t)
	tags := []string{"meditation", "wellness", "habits"}

	first, err := evaluator.Evaluate(compliantTitle, compliantPost(), tags)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	second, err := evaluator.Evaluate(compliantTitle, compliantPost(), tags)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical scores, got %#v and %#v", first, second)
	}
}

func TestGradeBucketsAreTotalAndNonOverlapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		grade string
	}{
		{100, "A"}, {95, "A"}, {90, "A"},
		{89.99, "B"}, {85, "B"}, {80, "B"},
		{79.99, "C"}, {75, "C"}, {70, "C"},
		{69.99, "D"}, {65, "D"}, {60, "D"},
		{59.99, "F"}, {30, "F"}, {0, "F"},
	}

	for _, tc := range cases {
		if got := scoreToGrade(tc.score); got != tc.grade {
			t.Errorf("scoreToGrade(%g) = %q, want %q", tc.score, got, tc.grade)
		}
	}

	// Every score in [0,100] maps to exactly one bucket.
	for score := 0.0; score <= 100; score += 0.25 {
		grade := scoreToGrade(score)
		matches := 0
		for _, candidate := range []string{"A", "B", "C", "D", "F"} {
			if candidate == grade {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("score %g mapped to %d buckets", score, matches)
		}
	}
}

func TestEvaluateRejectsEmptyContent(t *testing.T) {
	t.Parallel()

	evaluator := newEvaluator(t)

	_, err := evaluator.Evaluate("Title", "   ", nil)
	if err == nil {
		t.Fatalf("expected error for empty content")
	}
	if !eris.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}

func TestEvaluateRejectsMarkupWithoutText(t *testing.T) {
	t.Parallel()

	evaluator := newEvaluator(t)

	_, err := evaluator.Evaluate("Title", "<div><ul></ul></div>", nil)
	if err == nil {
		t.Fatalf("expected error for content without readable text")
	}
	if !eris.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}

func TestStructurePenalisesMissingSectionsAndH1(t *testing.T) {
	t.Parallel()

	evaluator := newEvaluator(t)
	content := "<h1>Duplicate Title</h1><p>Short body that says very little at all.</p>"

	score, err := evaluator.Evaluate("A title under the optimal range", content, []string{"one"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if score.Structure > 50 {
		t.Errorf("expected heavy structure deductions, got %g", score.Structure)
	}

	foundH1Issue := false
	for _, issue := range score.Issues {
		if strings.Contains(issue, "H1") {
			foundH1Issue = true
		}
	}
	if !foundH1Issue {
		t.Errorf("expected an H1 issue, got %v", score.Issues)
	}
}

func TestCompletenessDetectsPlaceholderText(t *testing.T) {
	t.Parallel()

	evaluator := newEvaluator(t)
	content := strings.Replace(compliantPost(), "quiet minutes", "lorem ipsum minutes", 1)

	score, err := evaluator.Evaluate(compliantTitle, content, []string{"meditation", "wellness", "habits"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	found := false
	for _, issue := range score.Issues {
		if strings.Contains(issue, "placeholder") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected placeholder issue, got %v", score.Issues)
	}
}

func TestSEOPenalisesShortTitleAndFewTags(t *testing.T) {
	t.Parallel()

	evaluator := newEvaluator(t)

	score, err := evaluator.Evaluate("Tiny", compliantPost(), []string{"one"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	// Short title (-20), few tags (-15), missing keywords (-20).
	if score.SEO > 45 {
		t.Errorf("expected SEO sub-score at most 45, got %g", score.SEO)
	}
}

func TestOverallUsesConfiguredWeights(t *testing.T) {
	t.Parallel()

	seoOnly, err := NewEvaluator(Weights{SEO: 1})
	if err != nil {
		t.Fatalf("NewEvaluator returned error: %v", err)
	}

	score, err := seoOnly.Evaluate(compliantTitle, compliantPost(), []string{"meditation", "wellness", "habits"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if score.Overall != score.SEO {
		t.Errorf("expected overall %g to equal SEO sub-score %g under SEO-only weights", score.Overall, score.SEO)
	}
}
