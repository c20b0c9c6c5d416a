package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/conclave/internal/model"
	"github.com/roach88/conclave/internal/pattern"
)

// Scenario is one deterministic meeting run with checks on the result.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Agents are created in order before any step runs.
	Agents []AgentDecl `yaml:"agents"`

	// Meetings are created in order after the agents.
	Meetings []MeetingDecl `yaml:"meetings"`

	// Steps run in order. Each sets exactly one of its fields.
	Steps []Step `yaml:"steps"`

	// Assertions are checked against the store once all steps have run.
	Assertions []Assertion `yaml:"assertions"`
}

// AgentDecl declares an agent. Ref is how steps and assertions name it.
type AgentDecl struct {
	Ref         string   `yaml:"ref"`
	Name        string   `yaml:"name"`
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// MeetingDecl declares a meeting.
type MeetingDecl struct {
	Ref  string `yaml:"ref"`
	Name string `yaml:"name"`
}

// Step is one scenario action.
type Step struct {
	Join  *JoinStep  `yaml:"join,omitempty"`
	Say   *SayStep   `yaml:"say,omitempty"`
	Ask   *AskStep   `yaml:"ask,omitempty"`
	Solve *SolveStep `yaml:"solve,omitempty"`
}

// JoinStep adds agents to a meeting.
type JoinStep struct {
	Meeting string   `yaml:"meeting"`
	Agents  []string `yaml:"agents"`
}

// SayStep records a chat.
type SayStep struct {
	Meeting string `yaml:"meeting"`
	Agent   string `yaml:"agent"`
	Text    string `yaml:"text"`
}

// AskStep records a prompt from one agent and forwards another, answering
// with Reply. If Say names a field, the agent then says that field's value.
type AskStep struct {
	Meeting string            `yaml:"meeting"`
	From    string            `yaml:"from"`
	Agent   string            `yaml:"agent"`
	Prompt  string            `yaml:"prompt"`
	Fields  []string          `yaml:"fields"`
	Reply   string            `yaml:"reply"`
	Say     string            `yaml:"say,omitempty"`
	Expect  map[string]string `yaml:"expect,omitempty"`
}

// SolveStep runs a reasoning pattern, answering its completions with Replies
// in order.
type SolveStep struct {
	Pattern string   `yaml:"pattern"`
	Task    string   `yaml:"task"`
	Replies []string `yaml:"replies"`
	Expect  string   `yaml:"expect,omitempty"`
}

// Kind returns the name of the field the step sets, or "" when it sets
// none or more than one.
func (s Step) Kind() string {
	var kinds []string
	if s.Join != nil {
		kinds = append(kinds, StepJoin)
	}
	if s.Say != nil {
		kinds = append(kinds, StepSay)
	}
	if s.Ask != nil {
		kinds = append(kinds, StepAsk)
	}
	if s.Solve != nil {
		kinds = append(kinds, StepSolve)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Step kinds.
const (
	StepJoin  = "join"
	StepSay   = "say"
	StepAsk   = "ask"
	StepSolve = "solve"
)

// Assertion checks the final store.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Agent is an agent ref (history, membership_count, meeting_count).
	Agent string `yaml:"agent,omitempty"`

	// Meeting is a meeting ref (chat_count, member_count, membership_count).
	Meeting string `yaml:"meeting,omitempty"`

	// Count is the expected count for the *_count types.
	Count int `yaml:"count,omitempty"`

	// Messages is the expected history (history).
	Messages []model.Message `yaml:"messages,omitempty"`
}

// Assertion type constants.
const (
	AssertHistory         = "history"
	AssertChatCount       = "chat_count"
	AssertMemberCount     = "member_count"
	AssertMembershipCount = "membership_count"
	AssertMeetingCount    = "meeting_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML and validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and that every ref resolves.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	agents := make(map[string]bool, len(s.Agents))
	for i, a := range s.Agents {
		if a.Ref == "" || a.Name == "" {
			return fmt.Errorf("agents[%d]: ref and name are required", i)
		}
		if agents[a.Ref] {
			return fmt.Errorf("agents[%d]: duplicate ref %q", i, a.Ref)
		}
		agents[a.Ref] = true
	}

	meetings := make(map[string]bool, len(s.Meetings))
	for i, m := range s.Meetings {
		if m.Ref == "" || m.Name == "" {
			return fmt.Errorf("meetings[%d]: ref and name are required", i)
		}
		if meetings[m.Ref] {
			return fmt.Errorf("meetings[%d]: duplicate ref %q", i, m.Ref)
		}
		meetings[m.Ref] = true
	}

	refs := refChecker{agents: agents, meetings: meetings}
	for i, step := range s.Steps {
		if err := validateStep(step, refs); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, refs); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

type refChecker struct {
	agents   map[string]bool
	meetings map[string]bool
}

func (r refChecker) agent(ref string) error {
	if !r.agents[ref] {
		return fmt.Errorf("unknown agent ref %q", ref)
	}
	return nil
}

func (r refChecker) meeting(ref string) error {
	if !r.meetings[ref] {
		return fmt.Errorf("unknown meeting ref %q", ref)
	}
	return nil
}

func validateStep(step Step, refs refChecker) error {
	switch step.Kind() {
	case StepJoin:
		if err := refs.meeting(step.Join.Meeting); err != nil {
			return err
		}
		if len(step.Join.Agents) == 0 {
			return fmt.Errorf("join: agents is required")
		}
		for _, a := range step.Join.Agents {
			if err := refs.agent(a); err != nil {
				return err
			}
		}
	case StepSay:
		if err := refs.meeting(step.Say.Meeting); err != nil {
			return err
		}
		return refs.agent(step.Say.Agent)
	case StepAsk:
		ask := step.Ask
		if err := refs.meeting(ask.Meeting); err != nil {
			return err
		}
		if err := refs.agent(ask.From); err != nil {
			return err
		}
		if err := refs.agent(ask.Agent); err != nil {
			return err
		}
		if len(ask.Fields) == 0 || ask.Reply == "" {
			return fmt.Errorf("ask: fields and reply are required")
		}
		if ask.Say != "" && !slices.Contains(ask.Fields, ask.Say) {
			return fmt.Errorf("ask: say field %q is not among fields", ask.Say)
		}
	case StepSolve:
		if _, err := pattern.Lookup(step.Solve.Pattern); err != nil {
			return err
		}
		if step.Solve.Task == "" {
			return fmt.Errorf("solve: task is required")
		}
	default:
		return fmt.Errorf("exactly one of join, say, ask or solve is required")
	}
	return nil
}

func validateAssertion(a Assertion, refs refChecker) error {
	if a.Count < 0 {
		return fmt.Errorf("count must be non-negative")
	}
	switch a.Type {
	case AssertHistory:
		return refs.agent(a.Agent)
	case AssertChatCount, AssertMemberCount:
		return refs.meeting(a.Meeting)
	case AssertMembershipCount:
		if err := refs.agent(a.Agent); err != nil {
			return err
		}
		return refs.meeting(a.Meeting)
	case AssertMeetingCount:
		return refs.agent(a.Agent)
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}
