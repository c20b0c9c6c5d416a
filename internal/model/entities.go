package model

import (
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Defaults applied at construction when a field is not supplied.
const (
	DefaultTemperature = 0.5
	DefaultModel       = "gpt-4o-mini"

	// SystemName is the base name of the agent whose chats are rendered with
	// the system role.
	SystemName = "system"
)

// AgentTable describes the agent table.
var AgentTable = &Table{
	Name:  "agent",
	Label: "An LLM-backed participant.",
	Columns: []Column{
		{Name: "agent_id", Type: Text, PrimaryKey: true, Label: "The agent's unique identifier (UUID)."},
		{Name: "agent_name", Type: Text, NotNull: true, Label: "The agent's name, including its random suffix."},
		{Name: "base_name", Type: Text, NotNull: true, Label: "The human-assigned part of the agent's name."},
		{Name: "agent_backstory", Type: Text, Label: "A long description of the agent's backstory."},
		{Name: "model", Type: Text, NotNull: true, Label: "The LLM model to be used."},
		{Name: "temperature", Type: Real, NotNull: true, Label: "The sampling temperature. The higher the temperature, the more creative the responses."},
		{Name: "created_at", Type: Timestamp, NotNull: true, Label: "The timestamp of the agent's creation."},
	},
	Indexes: []Index{
		{Name: "idx_agent_name", Columns: []string{"agent_name"}},
	},
}

// MeetingTable describes the meeting table.
var MeetingTable = &Table{
	Name:  "meeting",
	Label: "A named conversation scope.",
	Columns: []Column{
		{Name: "meeting_id", Type: Text, PrimaryKey: true, Label: "The meeting's unique identifier (UUID)."},
		{Name: "meeting_name", Type: Text, NotNull: true, Label: "The name of the meeting."},
		{Name: "created_at", Type: Timestamp, NotNull: true, Label: "The timestamp of the meeting."},
	},
}

// ChatTable describes the chat table. meeting_id stays NULL until the chat
// is linked into a meeting.
var ChatTable = &Table{
	Name:  "chat",
	Label: "One message authored by one agent within one meeting.",
	Columns: []Column{
		{Name: "chat_id", Type: Text, PrimaryKey: true, Label: "The chat's unique identifier (UUID)."},
		{Name: "agent_id", Type: Text, NotNull: true, References: &Reference{Table: "agent", Column: "agent_id"}, Label: "The agent that authored the chat."},
		{Name: "meeting_id", Type: Text, References: &Reference{Table: "meeting", Column: "meeting_id"}, Label: "The meeting the chat belongs to."},
		{Name: "content", Type: Text, Label: "The content of the chat."},
		{Name: "created_at", Type: Timestamp, NotNull: true, Label: "The timestamp of the chat."},
	},
	Indexes: []Index{
		{Name: "idx_chat_meeting", Columns: []string{"meeting_id", "created_at"}},
		{Name: "idx_chat_agent", Columns: []string{"agent_id"}},
	},
}

// MembershipTable describes the agent/meeting join table.
var MembershipTable = &Table{
	Name:  "agents_by_meeting",
	Label: "Which agents participate in which meetings.",
	Columns: []Column{
		{Name: "agent_id", Type: Text, PrimaryKey: true, NotNull: true, References: &Reference{Table: "agent", Column: "agent_id"}, Label: "The agent's unique identifier (UUID)."},
		{Name: "meeting_id", Type: Text, PrimaryKey: true, NotNull: true, References: &Reference{Table: "meeting", Column: "meeting_id"}, Label: "The meeting's unique identifier (UUID)."},
		{Name: "created_at", Type: Timestamp, NotNull: true, Label: "The timestamp of the agent's addition to the meeting."},
	},
	Indexes: []Index{
		{Name: "idx_membership_meeting", Columns: []string{"meeting_id"}},
	},
}

// Agent is a named LLM-backed participant.
type Agent struct {
	ID          string    `json:"agent_id"`
	Name        string    `json:"agent_name"`
	BaseName    string    `json:"base_name"`
	Backstory   string    `json:"agent_backstory,omitempty"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	CreatedAt   time.Time `json:"created_at"`
}

// AgentFields are the caller-supplied fields of a new agent.
// A nil Temperature selects DefaultTemperature; an empty Model selects
// DefaultModel.
type AgentFields struct {
	ID          string
	Name        string
	Backstory   string
	Model       string
	Temperature *float64
}

// Float returns a pointer to v, for optional float fields.
func Float(v float64) *float64 { return &v }

// NewAgent builds an unsaved agent from fields. The display name is completed
// with a random suffix when the agent is persisted.
func NewAgent(f AgentFields) *Agent {
	temperature := DefaultTemperature
	if f.Temperature != nil {
		temperature = *f.Temperature
	}
	return &Agent{
		ID:          f.ID,
		Name:        f.Name,
		BaseName:    f.Name,
		Backstory:   f.Backstory,
		Model:       f.Model,
		Temperature: temperature,
	}
}

func (a *Agent) Descriptor() *Table { return AgentTable }
func (a *Agent) Key() string        { return a.ID }
func (a *Agent) SetKey(id string)   { a.ID = id }

func (a *Agent) ApplyDefaults(now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.Model == "" {
		a.Model = DefaultModel
	}
	if a.BaseName == "" {
		a.BaseName = a.Name
	}
}

func (a *Agent) Values() []any {
	return []any{a.ID, a.Name, a.BaseName, nullable(a.Backstory), a.Model, a.Temperature, a.CreatedAt.UnixNano()}
}

func (a *Agent) NameColumn() string  { return "agent_name" }
func (a *Agent) DisplayName() string { return a.Name }

// ApplySuffix sets the display name to the base name followed by suffix.
func (a *Agent) ApplySuffix(suffix string) {
	a.Name = a.BaseName + " " + suffix
}

// IsSystem reports whether the agent is the designated system agent.
func (a *Agent) IsSystem() bool { return a.BaseName == SystemName }

func (a *Agent) String() string { return fmt.Sprintf("%s %s", a.Name, a.ID) }

// Meeting is a named conversation scope.
type Meeting struct {
	ID        string    `json:"meeting_id"`
	Name      string    `json:"meeting_name"`
	CreatedAt time.Time `json:"created_at"`
}

// MeetingFields are the caller-supplied fields of a new meeting.
type MeetingFields struct {
	ID   string
	Name string
}

// NewMeeting builds an unsaved meeting from fields.
func NewMeeting(f MeetingFields) *Meeting {
	return &Meeting{ID: f.ID, Name: f.Name}
}

func (m *Meeting) Descriptor() *Table { return MeetingTable }
func (m *Meeting) Key() string        { return m.ID }
func (m *Meeting) SetKey(id string)   { m.ID = id }

func (m *Meeting) ApplyDefaults(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
}

func (m *Meeting) Values() []any {
	return []any{m.ID, m.Name, m.CreatedAt.UnixNano()}
}

// Chat is one timestamped message authored by an agent.
type Chat struct {
	ID        string    `json:"chat_id"`
	AgentID   string    `json:"agent_id"`
	MeetingID string    `json:"meeting_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatFields are the caller-supplied fields of a new chat. MeetingID may be
// left empty and set later by linking the chat into a meeting.
type ChatFields struct {
	ID        string
	AgentID   string
	MeetingID string
	Content   string
}

// NewChat builds an unsaved chat from fields.
func NewChat(f ChatFields) *Chat {
	return &Chat{ID: f.ID, AgentID: f.AgentID, MeetingID: f.MeetingID, Content: f.Content}
}

func (c *Chat) Descriptor() *Table { return ChatTable }
func (c *Chat) Key() string        { return c.ID }
func (c *Chat) SetKey(id string)   { c.ID = id }

// ApplyDefaults stamps the creation time and stores content in Unicode NFC,
// so equal text compares equal regardless of how the model encoded it.
func (c *Chat) ApplyDefaults(now time.Time) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.Content = norm.NFC.String(c.Content)
}

func (c *Chat) Values() []any {
	return []any{c.ID, c.AgentID, nullable(c.MeetingID), c.Content, c.CreatedAt.UnixNano()}
}

// Membership records that an agent participates in a meeting.
type Membership struct {
	AgentID   string    `json:"agent_id"`
	MeetingID string    `json:"meeting_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Membership) Descriptor() *Table { return MembershipTable }

// Key returns the composite key as "agent_id/meeting_id".
func (m *Membership) Key() string { return m.AgentID + "/" + m.MeetingID }

// SetKey is a no-op: the key is composed of the two references.
func (m *Membership) SetKey(string) {}

func (m *Membership) ApplyDefaults(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
}

func (m *Membership) Values() []any {
	return []any{m.AgentID, m.MeetingID, m.CreatedAt.UnixNano()}
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
