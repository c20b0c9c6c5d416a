// Package meeting runs agents against a conversation store: agents speak
// into meetings, and an agent's next move is asked of the completion
// collaborator with the agent's own conversation history.
package meeting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/model"
	"github.com/roach88/conclave/internal/store"
)

// Runtime binds a store session to a completer.
//
// Thread-safety: safe for concurrent use; store access is serialized by the
// session.
type Runtime struct {
	sess      *store.Session
	factories store.Factories
	completer completion.Completer
	model     string
	logger    *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithModel sets the model of agents created through the runtime.
func WithModel(name string) Option {
	return func(rt *Runtime) { rt.model = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) { rt.logger = l }
}

// New creates a runtime.
func New(sess *store.Session, c completion.Completer, opts ...Option) *Runtime {
	rt := &Runtime{
		sess:      sess,
		factories: store.NewFactories(sess),
		completer: c,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Session returns the store session.
func (rt *Runtime) Session() *store.Session {
	return rt.sess
}

// Factories returns the session-bound entity constructors.
func (rt *Runtime) Factories() store.Factories {
	return rt.factories
}

// NewAgent persists an agent with the runtime's model.
func (rt *Runtime) NewAgent(ctx context.Context, name string, temperature float64) (*model.Agent, error) {
	return rt.factories.Agent.New(ctx, model.AgentFields{
		Name:        name,
		Model:       rt.model,
		Temperature: model.Float(temperature),
	})
}

// Convene persists a meeting and adds members to it in order.
func (rt *Runtime) Convene(ctx context.Context, name string, members ...*model.Agent) (*Meeting, error) {
	m, err := rt.factories.Meeting.New(ctx, model.MeetingFields{Name: name})
	if err != nil {
		return nil, err
	}

	mt, err := rt.Attach(ctx, m)
	if err != nil {
		return nil, err
	}
	if err := mt.Join(ctx, members...); err != nil {
		return nil, err
	}
	return mt, nil
}

// Attach binds the collections of a persisted meeting.
func (rt *Runtime) Attach(ctx context.Context, m *model.Meeting) (*Meeting, error) {
	agents, err := rt.sess.MeetingAgents(ctx, m)
	if err != nil {
		return nil, err
	}
	chats, err := rt.sess.MeetingChats(ctx, m)
	if err != nil {
		return nil, err
	}
	return &Meeting{Meeting: m, rt: rt, agents: agents, chats: chats}, nil
}

// Forward asks the completer for agent's next answer, given everything the
// agent has seen so far.
func (rt *Runtime) Forward(ctx context.Context, agent *model.Agent, schema completion.Schema) (completion.Result, error) {
	history, err := rt.sess.History(ctx, agent.ID)
	if err != nil {
		return completion.Result{}, fmt.Errorf("forward %s: %w", agent.Name, err)
	}

	rt.logger.Debug("agent thinking", "agent", agent.Name, "history", len(history))

	res, err := rt.completer.Complete(ctx, completion.Request{
		Messages:    history,
		Schema:      schema,
		Model:       agent.Model,
		Temperature: agent.Temperature,
	})
	if err != nil {
		return completion.Result{}, fmt.Errorf("forward %s: %w", agent.Name, err)
	}

	rt.logger.Debug("agent responded", "agent", agent.Name, "fields", res.Names())
	return res, nil
}

// Meeting is a persisted meeting with its relationship collections bound.
type Meeting struct {
	*model.Meeting
	rt     *Runtime
	agents *store.Collection[*model.Agent]
	chats  *store.Collection[*model.Chat]
}

// Join adds agents to the meeting.
func (m *Meeting) Join(ctx context.Context, agents ...*model.Agent) error {
	return m.agents.Extend(ctx, agents...)
}

// Say records a chat by author in the meeting.
func (m *Meeting) Say(ctx context.Context, author *model.Agent, text string) (*model.Chat, error) {
	chat := model.NewChat(model.ChatFields{AgentID: author.ID, Content: text})
	if err := m.chats.Append(ctx, chat); err != nil {
		return nil, fmt.Errorf("%s says: %w", author.Name, err)
	}
	return chat, nil
}

// Ask records prompt from the system agent, then forwards agent.
func (m *Meeting) Ask(ctx context.Context, system, agent *model.Agent, prompt string, schema completion.Schema) (completion.Result, error) {
	if _, err := m.Say(ctx, system, prompt); err != nil {
		return completion.Result{}, err
	}
	return m.rt.Forward(ctx, agent, schema)
}

// Members returns the meeting's agents in join order.
func (m *Meeting) Members() []*model.Agent {
	return m.agents.Items()
}

// Chats returns the meeting's chats in the order they were said.
func (m *Meeting) Chats() []*model.Chat {
	return m.chats.Items()
}
