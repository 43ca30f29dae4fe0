package evaluate

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidContent indicates the post body could not be interpreted as HTML
// with readable text, so no score can be produced.
var ErrInvalidContent = eris.New("content is not valid html")

// Weights controls the contribution of each sub-score to the overall score.
// The four weights must sum to 1.
type Weights struct {
	Readability  float64 `json:"readability"`
	Structure    float64 `json:"structure"`
	SEO          float64 `json:"seo"`
	Completeness float64 `json:"completeness"`
}

// DefaultWeights weighs the four axes equally.
func DefaultWeights() Weights {
	return Weights{Readability: 0.25, Structure: 0.25, SEO: 0.25, Completeness: 0.25}
}

// Validate checks the weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	for name, value := range map[string]float64{
		"readability":  w.Readability,
		"structure":    w.Structure,
		"seo":          w.SEO,
		"completeness": w.Completeness,
	} {
		if value < 0 {
			return eris.Errorf("%s weight must not be negative", name)
		}
	}

	sum := w.Readability + w.Structure + w.SEO + w.Completeness
	if math.Abs(sum-1) > 1e-9 {
		return eris.Errorf("weights must sum to 1, got %g", sum)
	}

	return nil
}

// QualityScore is the heuristic 0-100 rating of a post along four axes.
type QualityScore struct {
	Readability     float64  `json:"readability_score"`
	Structure       float64  `json:"structure_score"`
	SEO             float64  `json:"seo_score"`
	Completeness    float64  `json:"completeness_score"`
	Overall         float64  `json:"overall_score"`
	Grade           string   `json:"grade"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// Evaluator scores generated posts against readability, structure, SEO and
// completeness heuristics. It holds no state beyond its configuration; Evaluate
// is a pure function of its inputs.
type Evaluator struct {
	weights Weights
}

// NewEvaluator constructs an Evaluator with the provided weights.
func NewEvaluator(weights Weights) (*Evaluator, error) {
	if err := weights.Validate(); err != nil {
		return nil, eris.Wrap(err, "validating evaluator weights")
	}
	return &Evaluator{weights: weights}, nil
}

// Evaluate scores the post. The same inputs always produce the same score.
func (e *Evaluator) Evaluate(title, content string, tags []string) (*QualityScore, error) {
	stats, err := collectStats(content)
	if err != nil {
		return nil, eris.Wrap(ErrInvalidContent, err.Error())
	}
	if stats.text == "" {
		return nil, eris.Wrap(ErrInvalidContent, "no readable text in content")
	}

	score := &QualityScore{
		Issues:          []string{},
		Recommendations: []string{},
	}

	score.Readability = e.scoreReadability(stats, score)
	score.Structure = e.scoreStructure(stats, score)
	score.SEO = e.scoreSEO(title, content, tags, stats, score)
	score.Completeness = e.scoreCompleteness(stats, score)

	overall := score.Readability*e.weights.Readability +
		score.Structure*e.weights.Structure +
		score.SEO*e.weights.SEO +
		score.Completeness*e.weights.Completeness

	score.Readability = round2(score.Readability)
	score.Structure = round2(score.Structure)
	score.SEO = round2(score.SEO)
	score.Completeness = round2(score.Completeness)
	score.Overall = round2(overall)
	score.Grade = scoreToGrade(score.Overall)

	return score, nil
}

func (e *Evaluator) scoreReadability(stats *contentStats, out *QualityScore) float64 {
	score := 100.0

	reading := analyzeText(stats.text)
	ease := reading.fleschReadingEase()
	grade := reading.fleschKincaidGrade()

	if ease < 50 {
		out.Issues = append(out.Issues, fmt.Sprintf("Content is difficult to read (score: %.1f)", ease))
		out.Recommendations = append(out.Recommendations, "Use shorter sentences and simpler words")
		score -= 20
	} else if ease < 60 {
		out.Recommendations = append(out.Recommendations, "Could improve readability with simpler language")
		score -= 10
	}

	if grade > 12 {
		out.Issues = append(out.Issues, fmt.Sprintf("Content requires college-level reading (grade %.1f)", grade))
		out.Recommendations = append(out.Recommendations, "Simplify complex sentences")
		score -= 15
	} else if grade < 6 {
		out.Issues = append(out.Issues, "Content may be too simplistic")
		score -= 5
	}

	if reading.avgSentenceLength() > 25 {
		out.Recommendations = append(out.Recommendations, "Consider breaking up long sentences")
		score -= 10
	}

	return math.Max(0, score)
}

func (e *Evaluator) scoreStructure(stats *contentStats, out *QualityScore) float64 {
	score := 100.0

	if stats.h2Count < 3 {
		out.Issues = append(out.Issues, fmt.Sprintf("Only %d main sections (H2). Need at least 3", stats.h2Count))
		out.Recommendations = append(out.Recommendations, "Add more main sections with H2 headings")
		score -= 25
	} else if stats.h2Count > 8 {
		out.Issues = append(out.Issues, "Too many main sections - content may be fragmented")
		score -= 10
	}

	if stats.h3Count == 0 {
		out.Recommendations = append(out.Recommendations, "Consider adding subsections with H3 headings")
		score -= 10
	}

	if len(stats.paragraphs) < 5 {
		out.Issues = append(out.Issues, "Too few paragraphs - content lacks depth")
		out.Recommendations = append(out.Recommendations, "Break content into more paragraphs")
		score -= 20
	}

	if stats.listCount == 0 {
		out.Recommendations = append(out.Recommendations, "Consider using bullet points or numbered lists")
		score -= 10
	}

	if stats.h1Count > 0 {
		out.Issues = append(out.Issues, "Contains H1 tag - title should be separate")
		score -= 15
	}

	if stats.emphasis == 0 {
		out.Recommendations = append(out.Recommendations, "Add emphasis to key points using bold/italic")
		score -= 5
	}

	return math.Max(0, score)
}

func (e *Evaluator) scoreSEO(title, content string, tags []string, stats *contentStats, out *QualityScore) float64 {
	score := 100.0

	titleLen := len(title)
	switch {
	case titleLen < 30:
		out.Issues = append(out.Issues, fmt.Sprintf("Title too short (%d chars). SEO optimal: 50-70", titleLen))
		out.Recommendations = append(out.Recommendations, "Expand title to 50-70 characters")
		score -= 20
	case titleLen < 50:
		out.Recommendations = append(out.Recommendations, "Title could be longer for better SEO")
		score -= 10
	case titleLen > 70:
		out.Issues = append(out.Issues, fmt.Sprintf("Title too long (%d chars). May be truncated", titleLen))
		out.Recommendations = append(out.Recommendations, "Shorten title to 50-70 characters")
		score -= 15
	}

	tagCount := 0
	for _, tag := range tags {
		if strings.TrimSpace(tag) != "" {
			tagCount++
		}
	}
	if tagCount < 3 {
		out.Issues = append(out.Issues, fmt.Sprintf("Only %d tags. Recommended: 3-5", tagCount))
		out.Recommendations = append(out.Recommendations, "Add more relevant tags")
		score -= 15
	} else if tagCount > 7 {
		out.Issues = append(out.Issues, "Too many tags - dilutes focus")
		out.Recommendations = append(out.Recommendations, "Reduce to 3-5 most relevant tags")
		score -= 10
	}

	if stats.wordCount < 800 {
		out.Issues = append(out.Issues, fmt.Sprintf("Content too short (%d words). Target: 800-1500", stats.wordCount))
		out.Recommendations = append(out.Recommendations, "Expand content with more details and examples")
		score -= 25
	} else if stats.wordCount > 2000 {
		out.Recommendations = append(out.Recommendations, "Content is quite long - consider breaking into series")
		score -= 5
	}

	if keywordAppearances(title, content) < 2 {
		out.Issues = append(out.Issues, "Title keywords barely appear in content")
		out.Recommendations = append(out.Recommendations, "Use title keywords naturally throughout content")
		score -= 20
	}

	return math.Max(0, score)
}

func (e *Evaluator) scoreCompleteness(stats *contentStats, out *QualityScore) float64 {
	score := 100.0

	if len(stats.paragraphs) > 0 {
		intro := stats.paragraphs[0]
		if len(strings.Fields(intro)) < 30 {
			out.Issues = append(out.Issues, "Introduction paragraph is too short")
			out.Recommendations = append(out.Recommendations, "Expand introduction to engage readers")
			score -= 15
		}

		last := strings.ToLower(stats.paragraphs[len(stats.paragraphs)-1])
		hasConclusion := false
		for _, marker := range []string{"conclusion", "summary", "in closing", "to wrap up", "finally"} {
			if strings.Contains(last, marker) {
				hasConclusion = true
				break
			}
		}
		if !hasConclusion && len(strings.Fields(last)) < 30 {
			out.Recommendations = append(out.Recommendations, "Consider adding a clear conclusion")
			score -= 10
		}
	}

	if stats.h2Count > 0 {
		avgParagraphsPerSection := float64(len(stats.paragraphs)) / float64(stats.h2Count)
		if avgParagraphsPerSection < 2 {
			out.Issues = append(out.Issues, "Sections lack depth - need more content per section")
			out.Recommendations = append(out.Recommendations, "Expand each section with more details")
			score -= 20
		}
	}

	lowerText := strings.ToLower(stats.text)
	for _, placeholder := range []string{"lorem ipsum", "placeholder", "todo", "tbd", "xxx"} {
		if strings.Contains(lowerText, placeholder) {
			out.Issues = append(out.Issues, "Content contains placeholder text")
			score -= 30
			break
		}
	}

	if stats.wordCount < 500 {
		out.Issues = append(out.Issues, "Content critically short - not viable for publication")
		score -= 40
	}

	return math.Max(0, score)
}

// keywordAppearances counts how many distinct title words longer than four
// characters occur anywhere in the content.
func keywordAppearances(title, content string) int {
	lowerContent := strings.ToLower(content)
	seen := map[string]struct{}{}
	count := 0

	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
		})
		if len(word) <= 4 {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		if strings.Contains(lowerContent, word) {
			count++
		}
	}

	return count
}

// scoreToGrade maps an overall score onto a letter bucket. The buckets cover
// [0,100] completely and do not overlap.
func scoreToGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
