// Package chat implements the streaming message-assembly and
// conversation-persistence engine: it owns the in-memory message list,
// the turn lifecycle, the idle watchdog, and reconciliation of
// completed turns into the durable conversation collection.
package chat

import "dockchat/llm"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// DefaultModel is used when the store carries no model selection yet.
const DefaultModel = "openai/gpt-5-chat"

// OnlineSuffix switches a model id to its web-augmented variant.
const OnlineSuffix = ":online"

// Default titles. These double as sentinels: a conversation whose
// displayed title still equals DefaultTitle is considered untitled.
const (
	DefaultTitle         = "New Chat"
	ShortcutMissionTitle = "Shortcut Mission"
)

// ErrorResponseText replaces the assistant placeholder when the backend
// invocation itself fails.
const ErrorResponseText = "Error fetching response"

// DefaultSystemPrompt seeds the system message of every request.
const DefaultSystemPrompt = "You are a helpful assistant."

// Message is one transcript entry. IDs are process-local and monotonic;
// assistant content is append-only while its turn streams and immutable
// once the turn finalizes.
type Message struct {
	ID      int        `json:"id"`
	Role    string     `json:"role"`
	Content []llm.Part `json:"content"`
}

// Conversation is a persisted, titled message list. CreateTime (epoch
// milliseconds) is the identity key: the stored collection holds at
// most one record per CreateTime.
type Conversation struct {
	Title          string    `json:"title"`
	CreateTime     int64     `json:"createTime"`
	LastUpdateTime int64     `json:"lastUpdateTime"`
	Messages       []Message `json:"messages"`
}

// UserInfo mirrors the user_info store blob. Language is a BCP-47 tag
// selecting the localized placeholder strings.
type UserInfo struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Avatar   string `json:"avatar"`
}

// Usage accumulates per-model token estimates across completed turns.
type Usage struct {
	TotalTurns  int            `json:"total_turns"`
	TotalTokens int            `json:"total_tokens"`
	ByModel     map[string]int `json:"by_model"`
}
