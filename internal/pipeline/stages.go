package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"ghostwriter/app/internal/evaluate"
	"ghostwriter/app/internal/ghost"
	"ghostwriter/app/internal/search"
)

// stages bundles the primitives every pipeline variant is built from. Each
// stage wraps its failure in the matching sentinel and records metrics when an
// observer is attached.
type stages struct {
	deps Deps
}

func (s *stages) research(ctx context.Context, agent, topic string) (*search.ResearchResult, error) {
	s.trackToolUse(agent, "web_search", topic)

	result, err := s.deps.Search.Search(ctx, topic)
	if err != nil {
		s.trackError(agent, err)
		return nil, eris.Wrapf(ErrSearch, "researching %q: %s", topic, err.Error())
	}

	s.logInfo(logrus.Fields{"topic": topic, "snippets": len(result.Snippets)}, "research complete")
	return result, nil
}

func (s *stages) writeTitle(ctx context.Context, agent, topic, research string) (string, error) {
	s.trackToolUse(agent, "write_title", topic)

	title, err := s.deps.Writer.GenerateTitle(ctx, topic, research)
	if err != nil {
		s.trackError(agent, err)
		return "", eris.Wrapf(ErrGeneration, "generating title: %s", err.Error())
	}
	if strings.TrimSpace(title) == "" {
		err := eris.Wrap(ErrGeneration, "model returned an empty title")
		s.trackError(agent, err)
		return "", err
	}

	s.logInfo(logrus.Fields{"title": title}, "title generated")
	return title, nil
}

func (s *stages) writeContent(ctx context.Context, agent, topic, title, research string) (string, error) {
	s.trackToolUse(agent, "write_content", title)

	content, err := s.deps.Writer.GenerateContent(ctx, topic, title, research)
	if err != nil {
		s.trackError(agent, err)
		return "", eris.Wrapf(ErrGeneration, "generating content: %s", err.Error())
	}
	if strings.TrimSpace(content) == "" {
		err := eris.Wrap(ErrGeneration, "model returned empty content")
		s.trackError(agent, err)
		return "", err
	}

	s.logInfo(logrus.Fields{"content_length": len(content)}, "content generated")
	return content, nil
}

func (s *stages) writeTags(ctx context.Context, agent, title, content string) ([]string, error) {
	s.trackToolUse(agent, "write_tags", title)

	tags, err := s.deps.Writer.GenerateTags(ctx, title, content)
	if err != nil {
		s.trackError(agent, err)
		return nil, eris.Wrapf(ErrGeneration, "generating tags: %s", err.Error())
	}
	if len(tags) == 0 {
		err := eris.Wrap(ErrGeneration, "model returned no tags")
		s.trackError(agent, err)
		return nil, err
	}

	s.logInfo(logrus.Fields{"tags": tags}, "tags generated")
	return tags, nil
}

// evaluateContent scores the post when an evaluator is attached. Evaluation is
// advisory: failures and low scores are logged, never returned.
func (s *stages) evaluateContent(title, content string, tags []string) *evaluate.QualityScore {
	if s.deps.Evaluator == nil {
		return nil
	}

	quality, err := s.deps.Evaluator.Evaluate(title, content, tags)
	if err != nil {
		wrapped := eris.Wrap(ErrEvaluation, err.Error())
		s.logWarn(logrus.Fields{"error": wrapped.Error()}, "content could not be scored, publishing anyway")
		return nil
	}

	if quality.Overall < s.deps.MinQualityScore {
		s.logWarn(logrus.Fields{
			"score":     quality.Overall,
			"grade":     quality.Grade,
			"min_score": s.deps.MinQualityScore,
			"issues":    quality.Issues,
		}, "content scored below minimum quality, publishing anyway")
	} else {
		s.logInfo(logrus.Fields{"score": quality.Overall, "grade": quality.Grade}, "content evaluated")
	}

	return quality
}

func (s *stages) publish(ctx context.Context, agent, title, content string, tags []string) (string, error) {
	s.trackToolUse(agent, "publish_post", title)

	url, err := s.deps.Ghost.Publish(ctx, ghost.Post{
		Title:    title,
		HTML:     content,
		Tags:     tags,
		Status:   s.deps.Status,
		Featured: s.deps.Featured,
	})
	if err != nil {
		s.trackError(agent, err)
		return "", eris.Wrapf(ErrPublish, "publishing %q: %s", title, err.Error())
	}

	s.logInfo(logrus.Fields{"url": url}, "post published")
	return url, nil
}

// finish closes out the observer and attaches the metrics snapshot and
// performance score to the result.
func (s *stages) finish(result *Result) *Result {
	if s.deps.Observer == nil {
		return result
	}

	s.deps.Observer.Finalize()
	result.RunID = s.deps.Observer.RunID()
	result.Snapshot = s.deps.Observer.Snapshot()
	result.Performance = evaluate.EvaluatePerformance(result.Snapshot)
	return result
}

func (s *stages) startTask(taskID, description, agent string) {
	if s.deps.Observer != nil {
		s.deps.Observer.StartTask(taskID, description, agent)
	}
}

func (s *stages) endTask(taskID, status, output string) {
	if s.deps.Observer != nil {
		s.deps.Observer.EndTask(taskID, status, output)
	}
}

func (s *stages) startAgent(name string) {
	if s.deps.Observer != nil {
		s.deps.Observer.StartAgent(name)
	}
}

func (s *stages) endAgent(name string) {
	if s.deps.Observer != nil {
		s.deps.Observer.EndAgent(name)
	}
}

func (s *stages) trackToolUse(agent, tool, input string) {
	if s.deps.Observer != nil {
		s.deps.Observer.TrackToolUse(agent, tool, input)
	}
}

func (s *stages) trackError(agent string, err error) {
	if s.deps.Observer != nil {
		s.deps.Observer.TrackError(agent, err)
	}
}

func (s *stages) logInfo(fields logrus.Fields, message string) {
	if s.deps.Logger != nil {
		s.deps.Logger.WithFields(fields).Info(message)
	}
}

func (s *stages) logWarn(fields logrus.Fields, message string) {
	if s.deps.Logger != nil {
		s.deps.Logger.WithFields(fields).Warn(message)
	}
}
