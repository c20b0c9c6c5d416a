package model

// Role tags a message for the completion service.
type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is one entry of an agent's conversation history.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// AuthoredChat pairs a chat with its author, as read back for history.
type AuthoredChat struct {
	Chat   Chat
	Author Agent
}

// Relabel renders chats from the point of view of the agent with viewerID.
// Entries must already be in history order.
//
// The viewer's own chats become assistant messages prefixed "You: ", the
// system agent's chats become system messages prefixed "System: ", and every
// other chat becomes a user message prefixed with its author's name.
func Relabel(viewerID string, entries []AuthoredChat) []Message {
	messages := make([]Message, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, relabel(viewerID, e))
	}
	return messages
}

func relabel(viewerID string, e AuthoredChat) Message {
	switch {
	case e.Author.ID == viewerID:
		return Message{Role: RoleAssistant, Content: "You: " + e.Chat.Content}
	case e.Author.IsSystem():
		return Message{Role: RoleSystem, Content: "System: " + e.Chat.Content}
	default:
		return Message{Role: RoleUser, Content: e.Author.Name + ": " + e.Chat.Content}
	}
}
