package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// sequentialAgent is the single actor name the sequential variant reports
// metrics under.
const sequentialAgent = "pipeline"

// Sequential runs the five stages in fixed order: research, title, content,
// tags, publish. Each stage depends strictly on the prior stage's output and
// no stage is retried or compensated.
type Sequential struct {
	stages
}

// NewSequential validates the dependencies and returns the variant.
func NewSequential(deps Deps) (*Sequential, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Sequential{stages: stages{deps: deps}}, nil
}

// Run executes one research-write-publish flow for the topic.
func (p *Sequential) Run(ctx context.Context, topic string) (*Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, eris.Wrap(ErrConfiguration, "topic must not be empty")
	}

	p.logInfo(nil, fmt.Sprintf("starting sequential run for %q", topic))

	p.startAgent(sequentialAgent)
	result, err := p.runStages(ctx, topic)
	p.endAgent(sequentialAgent)
	if err != nil {
		p.finish(&Result{})
		return nil, err
	}

	return p.finish(result), nil
}

func (p *Sequential) runStages(ctx context.Context, topic string) (*Result, error) {
	p.startTask("research", "Research the topic via web search", sequentialAgent)
	research, err := p.research(ctx, sequentialAgent, topic)
	if err != nil {
		p.endTask("research", "failed", "")
		return nil, err
	}
	summary := research.Summary()
	p.endTask("research", "completed", summary)

	p.startTask("title", "Generate the post title", sequentialAgent)
	title, err := p.writeTitle(ctx, sequentialAgent, topic, summary)
	if err != nil {
		p.endTask("title", "failed", "")
		return nil, err
	}
	p.endTask("title", "completed", title)

	p.startTask("content", "Generate the post body", sequentialAgent)
	content, err := p.writeContent(ctx, sequentialAgent, topic, title, summary)
	if err != nil {
		p.endTask("content", "failed", "")
		return nil, err
	}
	p.endTask("content", "completed", content)

	p.startTask("tags", "Generate post tags", sequentialAgent)
	tags, err := p.writeTags(ctx, sequentialAgent, title, content)
	if err != nil {
		p.endTask("tags", "failed", "")
		return nil, err
	}
	p.endTask("tags", "completed", strings.Join(tags, ", "))

	quality := p.evaluateContent(title, content, tags)

	p.startTask("publish", "Publish the post to the CMS", sequentialAgent)
	url, err := p.publish(ctx, sequentialAgent, title, content, tags)
	if err != nil {
		p.endTask("publish", "failed", "")
		return nil, err
	}
	p.endTask("publish", "completed", url)

	return &Result{
		Topic:   topic,
		Title:   title,
		HTML:    content,
		Tags:    tags,
		URL:     url,
		Quality: quality,
	}, nil
}
