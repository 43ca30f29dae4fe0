package metrics

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Event is one timestamped entry in the run timeline.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Elapsed   float64        `json:"time_elapsed_seconds"`
	Type      string         `json:"event_type"`
	Data      map[string]any `json:"data,omitempty"`
}

// AgentSnapshot summarises one agent's activity during the run.
type AgentSnapshot struct {
	AgentName    string   `json:"agent_name"`
	TaskCount    int      `json:"task_count"`
	ToolCalls    int      `json:"tool_calls"`
	TotalSeconds float64  `json:"total_time_seconds"`
	ToolsUsed    []string `json:"tools_used"`
	Errors       []string `json:"errors"`
}

// TaskSnapshot summarises one pipeline task.
type TaskSnapshot struct {
	TaskID       string  `json:"task_id"`
	Description  string  `json:"task_description"`
	AgentName    string  `json:"agent_name"`
	Status       string  `json:"status"`
	Duration     float64 `json:"duration_seconds"`
	OutputLength int     `json:"output_length"`
}

// Snapshot is the full, immutable record of one pipeline run.
type Snapshot struct {
	RunID           string          `json:"run_id"`
	StartedAt       time.Time       `json:"started_at"`
	EndedAt         time.Time       `json:"ended_at"`
	DurationSeconds float64         `json:"total_duration_seconds"`
	Agents          []AgentSnapshot `json:"agents"`
	Tasks           []TaskSnapshot  `json:"tasks"`
	Cost            CostEstimate    `json:"cost_estimate"`
	Events          []Event         `json:"events"`
}

type agentState struct {
	started   time.Time
	bracketed bool
	total     time.Duration
	taskCount int
	toolCalls int
	toolsUsed []string
	errors    []string
}

type taskState struct {
	id           string
	description  string
	agent        string
	status       string
	started      time.Time
	duration     time.Duration
	outputLength int
}

// Observer accumulates timestamped events and per-agent timings for one
// pipeline run. It is written only by the single pipeline goroutine and is not
// safe for concurrent use.
type Observer struct {
	runID      string
	model      string
	prices     PriceTable
	logger     *logrus.Logger
	clock      func() time.Time
	startTime  time.Time
	endTime    time.Time
	events     []Event
	agents     map[string]*agentState
	agentOrder []string
	tasks      []*taskState

	inputChars  int
	outputChars int
}

// Options configures an Observer.
type Options struct {
	RunID  string
	Model  string
	Prices PriceTable
	Logger *logrus.Logger
	Clock  func() time.Time
}

const taskDescriptionLimit = 100

// NewObserver starts the clock for a new run.
func NewObserver(opts Options) *Observer {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	prices := opts.Prices
	if prices == nil {
		prices = DefaultPrices()
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Observer{
		runID:     runID,
		model:     opts.Model,
		prices:    prices,
		logger:    opts.Logger,
		clock:     clock,
		startTime: clock(),
		agents:    make(map[string]*agentState),
	}
}

// RunID returns the identifier assigned to this run.
func (o *Observer) RunID() string {
	return o.runID
}

// LogEvent appends a timestamped event to the timeline. Events retain the
// exact order in which they were logged.
func (o *Observer) LogEvent(eventType string, data map[string]any) {
	now := o.clock()
	o.events = append(o.events, Event{
		Timestamp: now,
		Elapsed:   now.Sub(o.startTime).Seconds(),
		Type:      eventType,
		Data:      data,
	})
}

// StartAgent brackets the beginning of an agent's activity. Calling StartAgent
// again for the same name restarts the bracket.
func (o *Observer) StartAgent(name string) {
	state := o.agent(name)
	state.started = o.clock()
	state.bracketed = true

	o.LogEvent("agent_start", map[string]any{"agent": name})
	o.logDebug(logrus.Fields{"agent": name}, "agent started")
}

// EndAgent closes the agent's timing bracket. Unmatched calls are ignored.
func (o *Observer) EndAgent(name string) {
	state, ok := o.agents[name]
	if ok && state.bracketed {
		state.total += o.clock().Sub(state.started)
		state.bracketed = false
	}

	o.LogEvent("agent_end", map[string]any{"agent": name})
}

// StartTask records the beginning of a pipeline task.
func (o *Observer) StartTask(taskID, description, agentName string) {
	if len(description) > taskDescriptionLimit {
		description = description[:taskDescriptionLimit] + "..."
	}

	o.tasks = append(o.tasks, &taskState{
		id:          taskID,
		description: description,
		agent:       agentName,
		status:      "running",
		started:     o.clock(),
	})
	o.agent(agentName).taskCount++

	o.LogEvent("task_start", map[string]any{
		"task_id":     taskID,
		"agent":       agentName,
		"description": description,
	})
}

// EndTask records the completion of a task and folds its output into the
// token estimate.
func (o *Observer) EndTask(taskID, status, output string) {
	for _, task := range o.tasks {
		if task.id != taskID {
			continue
		}

		task.status = status
		task.duration = o.clock().Sub(task.started)
		task.outputLength = len(output)
		o.outputChars += len(output)

		o.LogEvent("task_end", map[string]any{
			"task_id":       taskID,
			"status":        status,
			"duration":      task.duration.Seconds(),
			"output_length": len(output),
		})
		return
	}
}

// TrackToolUse counts a tool invocation by an agent and folds the tool input
// into the token estimate.
func (o *Observer) TrackToolUse(agentName, toolName, input string) {
	state := o.agent(agentName)
	state.toolCalls++

	known := false
	for _, tool := range state.toolsUsed {
		if tool == toolName {
			known = true
			break
		}
	}
	if !known {
		state.toolsUsed = append(state.toolsUsed, toolName)
	}

	o.inputChars += len(input)

	o.LogEvent("tool_use", map[string]any{
		"agent":        agentName,
		"tool":         toolName,
		"input_length": len(input),
	})
}

// TrackError records an error against an agent.
func (o *Observer) TrackError(agentName string, err error) {
	if err == nil {
		return
	}

	o.agent(agentName).errors = append(o.agents[agentName].errors, err.Error())

	o.LogEvent("error", map[string]any{
		"agent": agentName,
		"error": err.Error(),
	})
}

// Finalize stops the run clock. Subsequent snapshots report the final duration.
func (o *Observer) Finalize() {
	o.endTime = o.clock()
}

// Snapshot materialises the accumulated metrics.
func (o *Observer) Snapshot() *Snapshot {
	end := o.endTime
	if end.IsZero() {
		end = o.clock()
	}

	agents := make([]AgentSnapshot, 0, len(o.agentOrder))
	for _, name := range o.agentOrder {
		state := o.agents[name]
		agents = append(agents, AgentSnapshot{
			AgentName:    name,
			TaskCount:    state.taskCount,
			ToolCalls:    state.toolCalls,
			TotalSeconds: state.total.Seconds(),
			ToolsUsed:    append([]string{}, state.toolsUsed...),
			Errors:       append([]string{}, state.errors...),
		})
	}

	tasks := make([]TaskSnapshot, 0, len(o.tasks))
	for _, task := range o.tasks {
		tasks = append(tasks, TaskSnapshot{
			TaskID:       task.id,
			Description:  task.description,
			AgentName:    task.agent,
			Status:       task.status,
			Duration:     task.duration.Seconds(),
			OutputLength: task.outputLength,
		})
	}

	events := make([]Event, len(o.events))
	copy(events, o.events)

	return &Snapshot{
		RunID:           o.runID,
		StartedAt:       o.startTime,
		EndedAt:         end,
		DurationSeconds: end.Sub(o.startTime).Seconds(),
		Agents:          agents,
		Tasks:           tasks,
		Cost:            o.EstimateCost(),
		Events:          events,
	}
}

// Export serialises the snapshot to the given path as indented JSON.
func (o *Observer) Export(path string) error {
	snapshot := o.Snapshot()

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encoding metrics snapshot")
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return eris.Wrapf(err, "writing metrics snapshot to %s", path)
	}

	o.logDebug(logrus.Fields{"path": path}, "metrics exported")
	return nil
}

func (o *Observer) agent(name string) *agentState {
	state, ok := o.agents[name]
	if !ok {
		state = &agentState{}
		o.agents[name] = state
		o.agentOrder = append(o.agentOrder, name)
	}
	return state
}

func (o *Observer) logDebug(fields logrus.Fields, message string) {
	if o.logger == nil {
		return
	}
	o.logger.WithFields(fields).Debug(message)
}
