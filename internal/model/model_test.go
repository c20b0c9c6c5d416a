package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_DeclarationOrder(t *testing.T) {
	r := DefaultRegistry()

	var names []string
	for _, tbl := range r.Tables() {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"agent", "meeting", "chat", "agents_by_meeting"}, names)
	assert.Equal(t, 4, r.Len())
}

func TestDefaultRegistry_EveryColumnLabeled(t *testing.T) {
	for _, tbl := range DefaultRegistry().Tables() {
		for _, c := range tbl.Columns {
			assert.NotEmpty(t, c.Label, "%s.%s has no label", tbl.Name, c.Name)
		}
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry(AgentTable)
	err := r.Register(AgentTable)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_RejectsEmptyTable(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(&Table{Name: "empty"}))
	assert.Error(t, r.Register(&Table{}))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Lookup(t *testing.T) {
	r := DefaultRegistry()

	tbl, ok := r.Lookup("chat")
	require.True(t, ok)
	assert.Same(t, ChatTable, tbl)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestTable_KeyColumn(t *testing.T) {
	assert.Equal(t, "agent_id", AgentTable.KeyColumn())
	assert.Equal(t, "chat_id", ChatTable.KeyColumn())
	assert.Equal(t, "", MembershipTable.KeyColumn())
	assert.Equal(t, []string{"agent_id", "meeting_id"}, MembershipTable.PrimaryKey())
}

func TestRecords_ValuesMatchColumns(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	records := []Record{
		NewAgent(AgentFields{Name: "Critic"}),
		NewMeeting(MeetingFields{Name: "debate"}),
		NewChat(ChatFields{AgentID: "a", Content: "hi"}),
		&Membership{AgentID: "a", MeetingID: "m"},
	}
	for _, rec := range records {
		rec.ApplyDefaults(now)
		assert.Len(t, rec.Values(), len(rec.Descriptor().Columns), rec.Descriptor().Name)
	}
}

func TestNewAgent_Defaults(t *testing.T) {
	a := NewAgent(AgentFields{Name: "Critic"})
	a.ApplyDefaults(time.Unix(10, 0))

	assert.Equal(t, DefaultTemperature, a.Temperature)
	assert.Equal(t, DefaultModel, a.Model)
	assert.Equal(t, "Critic", a.BaseName)
	assert.Equal(t, time.Unix(10, 0), a.CreatedAt)
}

func TestNewAgent_ExplicitZeroTemperature(t *testing.T) {
	a := NewAgent(AgentFields{Name: "Judge", Temperature: Float(0)})
	assert.Equal(t, 0.0, a.Temperature)
}

func TestAgent_ApplySuffix(t *testing.T) {
	a := NewAgent(AgentFields{Name: "Critic"})
	a.ApplySuffix("x9Qa")
	assert.Equal(t, "Critic x9Qa", a.DisplayName())
	assert.Equal(t, "Critic", a.BaseName)

	a.ApplySuffix("b2Zz")
	assert.Equal(t, "Critic b2Zz", a.Name, "suffix replaces, never accumulates")
}

func TestChat_UnlinkedMeetingIsNull(t *testing.T) {
	c := NewChat(ChatFields{AgentID: "a", Content: "hi"})
	c.ApplyDefaults(time.Unix(1, 0))
	assert.Nil(t, c.Values()[2])
}

func TestChat_ContentNormalizedToNFC(t *testing.T) {
	c := NewChat(ChatFields{AgentID: "a", Content: "café"})
	c.ApplyDefaults(time.Unix(1, 0))
	assert.Equal(t, "café", c.Content)
}

func TestRelabel(t *testing.T) {
	me := Agent{ID: "me", Name: "Solver ab12", BaseName: "Solver"}
	sys := Agent{ID: "sys", Name: "system Zz99", BaseName: "system"}
	other := Agent{ID: "o", Name: "Critic q1w2", BaseName: "Critic"}

	got := Relabel("me", []AuthoredChat{
		{Chat: Chat{Content: "solve it"}, Author: sys},
		{Chat: Chat{Content: "B"}, Author: me},
		{Chat: Chat{Content: "wrong"}, Author: other},
		{Chat: Chat{}, Author: other},
	})

	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "System: solve it"},
		{Role: RoleAssistant, Content: "You: B"},
		{Role: RoleUser, Content: "Critic q1w2: wrong"},
		{Role: RoleUser, Content: "Critic q1w2: "},
	}, got)
}

func TestRelabel_SystemViewerSeesOwnChatsFirstPerson(t *testing.T) {
	sys := Agent{ID: "sys", Name: "system Zz99", BaseName: "system"}
	got := Relabel("sys", []AuthoredChat{{Chat: Chat{Content: "hello"}, Author: sys}})
	assert.Equal(t, []Message{{Role: RoleAssistant, Content: "You: hello"}}, got)
}

func TestRelabel_Empty(t *testing.T) {
	got := Relabel("me", nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
