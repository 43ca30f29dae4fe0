package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"ghostwriter/app/internal/llm"
)

const agentName = "agent"

// maxAgentIterations bounds the decision loop so a confused model cannot spin
// forever.
const maxAgentIterations = 12

const agentSystemPrompt = `You are an autonomous blog publishing agent. You work in steps. At every step you pick exactly one action and respond with a single JSON object of the form {"action": "<name>", "input": "<text>"} and nothing else.

Available actions:
- "search": research the topic. Input: the search query.
- "write_title": write the post title. Requires prior search.
- "write_content": write the post body. Requires a title.
- "write_tags": pick tags. Requires content.
- "publish": publish the finished post. Requires title, content and tags.
- "finish": stop. Only valid after a successful publish.

Complete the steps in a sensible order and then finish.`

// agentAction is the JSON shape the model must reply with.
type agentAction struct {
	Action string `json:"action"`
	Input  string `json:"input"`
}

// Agent is the tool-calling variant: an LLM chooses the next action each
// iteration and receives an observation describing the outcome. The stage
// primitives and error taxonomy are shared with the other variants.
type Agent struct {
	stages
	completer llm.Completer
}

// NewAgent validates the dependencies and returns the variant. The completer
// drives the decision loop and is separate from the writer used for the
// actual generation stages.
func NewAgent(deps Deps, completer llm.Completer) (*Agent, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if completer == nil {
		return nil, eris.Wrap(ErrConfiguration, "decision completer is required")
	}
	return &Agent{stages: stages{deps: deps}, completer: completer}, nil
}

// agentRunState accumulates the artifacts produced so far.
type agentRunState struct {
	research string
	title    string
	content  string
	tags     []string
	url      string
}

// Run lets the model orchestrate the stages itself, bounded to
// maxAgentIterations decisions.
func (p *Agent) Run(ctx context.Context, topic string) (*Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, eris.Wrap(ErrConfiguration, "topic must not be empty")
	}

	p.logInfo(nil, fmt.Sprintf("starting agent run for %q", topic))
	p.startAgent(agentName)
	defer p.endAgent(agentName)

	state := &agentRunState{}
	var transcript strings.Builder

	for iteration := 0; iteration < maxAgentIterations; iteration++ {
		reply, err := p.completer.Complete(ctx, llm.CompletionRequest{
			System:      agentSystemPrompt,
			Prompt:      p.decisionPrompt(topic, state, transcript.String()),
			Temperature: 0,
			MaxTokens:   256,
		})
		if err != nil {
			p.finish(&Result{})
			return nil, eris.Wrapf(ErrGeneration, "agent decision call: %s", err.Error())
		}

		action, err := parseAgentAction(reply)
		if err != nil {
			p.logWarn(logrus.Fields{"reply": reply}, "agent reply was not a valid action")
			fmt.Fprintf(&transcript, "action: (unparseable reply)\nobservation: %s\n", err.Error())
			continue
		}

		p.logInfo(logrus.Fields{"action": action.Action}, "agent chose action")

		if action.Action == "finish" {
			if state.url == "" {
				fmt.Fprintf(&transcript, "action: finish\nobservation: cannot finish before a successful publish\n")
				continue
			}
			break
		}

		observation, err := p.performAction(ctx, topic, action, state)
		if err != nil {
			p.finish(&Result{})
			return nil, err
		}
		fmt.Fprintf(&transcript, "action: %s\nobservation: %s\n", action.Action, observation)

		if state.url != "" {
			break
		}
	}

	if state.url == "" {
		p.finish(&Result{})
		return nil, eris.Wrapf(ErrGeneration, "agent stopped after %d iterations without publishing", maxAgentIterations)
	}

	return p.finish(&Result{
		Topic:   topic,
		Title:   state.title,
		HTML:    state.content,
		Tags:    state.tags,
		URL:     state.url,
		Quality: p.evaluateContent(state.title, state.content, state.tags),
	}), nil
}

func (p *Agent) decisionPrompt(topic string, state *agentRunState, transcript string) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Topic: %s\n\n", topic)
	fmt.Fprintf(&builder, "Progress: research=%t title=%t content=%t tags=%t published=%t\n\n",
		state.research != "", state.title != "", state.content != "", len(state.tags) > 0, state.url != "")
	if transcript != "" {
		builder.WriteString("Previous steps:\n")
		builder.WriteString(transcript)
		builder.WriteString("\n")
	}
	builder.WriteString("Choose the next action.")
	return builder.String()
}

// performAction executes one chosen action. Missing prerequisites produce an
// observation for the model; stage failures abort the run with their sentinel.
func (p *Agent) performAction(ctx context.Context, topic string, action agentAction, state *agentRunState) (string, error) {
	switch action.Action {
	case "search":
		query := strings.TrimSpace(action.Input)
		if query == "" {
			query = topic
		}
		research, err := p.research(ctx, agentName, query)
		if err != nil {
			return "", err
		}
		state.research = research.Summary()
		return fmt.Sprintf("search returned %d sources", len(research.Snippets)), nil

	case "write_title":
		if state.research == "" {
			return "a search is required before writing the title", nil
		}
		title, err := p.writeTitle(ctx, agentName, topic, state.research)
		if err != nil {
			return "", err
		}
		state.title = title
		return fmt.Sprintf("title written: %s", title), nil

	case "write_content":
		if state.title == "" {
			return "a title is required before writing content", nil
		}
		content, err := p.writeContent(ctx, agentName, topic, state.title, state.research)
		if err != nil {
			return "", err
		}
		state.content = content
		return fmt.Sprintf("content written (%d words)", len(strings.Fields(content))), nil

	case "write_tags":
		if state.content == "" {
			return "content is required before choosing tags", nil
		}
		tags, err := p.writeTags(ctx, agentName, state.title, state.content)
		if err != nil {
			return "", err
		}
		state.tags = tags
		return fmt.Sprintf("tags chosen: %s", strings.Join(tags, ", ")), nil

	case "publish":
		if state.title == "" || state.content == "" || len(state.tags) == 0 {
			return "title, content and tags are required before publishing", nil
		}
		url, err := p.publish(ctx, agentName, state.title, state.content, state.tags)
		if err != nil {
			return "", err
		}
		state.url = url
		return fmt.Sprintf("published at %s", url), nil

	default:
		return fmt.Sprintf("unknown action %q", action.Action), nil
	}
}

// parseAgentAction extracts the JSON object from the model reply, tolerating
// surrounding prose and code fences.
func parseAgentAction(reply string) (agentAction, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return agentAction{}, eris.New("reply must be a JSON object like {\"action\": \"search\", \"input\": \"...\"}")
	}

	var action agentAction
	if err := json.Unmarshal([]byte(reply[start:end+1]), &action); err != nil {
		return agentAction{}, eris.New("reply must be a JSON object like {\"action\": \"search\", \"input\": \"...\"}")
	}
	if strings.TrimSpace(action.Action) == "" {
		return agentAction{}, eris.New("reply is missing the \"action\" field")
	}

	action.Action = strings.ToLower(strings.TrimSpace(action.Action))
	return action, nil
}
