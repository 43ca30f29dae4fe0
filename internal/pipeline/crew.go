package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Role names for the crew variant. Each role gets its own observer bracket so
// the metrics snapshot breaks timing down per actor.
const (
	crewResearcher = "researcher"
	crewWriter     = "writer"
	crewPublisher  = "publisher"
)

// Crew is the multi-role variant: the same five stages, but divided across a
// researcher, a writer and a publisher, each bracketed separately in the
// metrics so slow actors show up in the performance report.
type Crew struct {
	stages
}

// NewCrew validates the dependencies and returns the variant.
func NewCrew(deps Deps) (*Crew, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Crew{stages: stages{deps: deps}}, nil
}

// Run executes the research, writing and publishing roles in order.
func (p *Crew) Run(ctx context.Context, topic string) (*Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, eris.Wrap(ErrConfiguration, "topic must not be empty")
	}

	p.logInfo(nil, fmt.Sprintf("starting crew run for %q", topic))

	summary, err := p.runResearcher(ctx, topic)
	if err != nil {
		p.finish(&Result{})
		return nil, err
	}

	title, content, tags, err := p.runWriter(ctx, topic, summary)
	if err != nil {
		p.finish(&Result{})
		return nil, err
	}

	quality := p.evaluateContent(title, content, tags)

	url, err := p.runPublisher(ctx, title, content, tags)
	if err != nil {
		p.finish(&Result{})
		return nil, err
	}

	return p.finish(&Result{
		Topic:   topic,
		Title:   title,
		HTML:    content,
		Tags:    tags,
		URL:     url,
		Quality: quality,
	}), nil
}

func (p *Crew) runResearcher(ctx context.Context, topic string) (string, error) {
	p.startAgent(crewResearcher)
	defer p.endAgent(crewResearcher)

	p.startTask("research", fmt.Sprintf("Research %q via web search", topic), crewResearcher)
	research, err := p.research(ctx, crewResearcher, topic)
	if err != nil {
		p.endTask("research", "failed", "")
		return "", err
	}

	summary := research.Summary()
	p.endTask("research", "completed", summary)
	return summary, nil
}

func (p *Crew) runWriter(ctx context.Context, topic, summary string) (string, string, []string, error) {
	p.startAgent(crewWriter)
	defer p.endAgent(crewWriter)

	p.startTask("title", "Write the post title", crewWriter)
	title, err := p.writeTitle(ctx, crewWriter, topic, summary)
	if err != nil {
		p.endTask("title", "failed", "")
		return "", "", nil, err
	}
	p.endTask("title", "completed", title)

	p.startTask("content", "Write the post body", crewWriter)
	content, err := p.writeContent(ctx, crewWriter, topic, title, summary)
	if err != nil {
		p.endTask("content", "failed", "")
		return "", "", nil, err
	}
	p.endTask("content", "completed", content)

	p.startTask("tags", "Choose post tags", crewWriter)
	tags, err := p.writeTags(ctx, crewWriter, title, content)
	if err != nil {
		p.endTask("tags", "failed", "")
		return "", "", nil, err
	}
	p.endTask("tags", "completed", strings.Join(tags, ", "))

	return title, content, tags, nil
}

func (p *Crew) runPublisher(ctx context.Context, title, content string, tags []string) (string, error) {
	p.startAgent(crewPublisher)
	defer p.endAgent(crewPublisher)

	p.startTask("publish", "Publish the post to the CMS", crewPublisher)
	url, err := p.publish(ctx, crewPublisher, title, content, tags)
	if err != nil {
		p.endTask("publish", "failed", "")
		return "", err
	}
	p.endTask("publish", "completed", url)

	return url, nil
}
