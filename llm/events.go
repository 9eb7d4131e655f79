package llm

import "github.com/sashabaranov/go-openai"

// Event bus channel names. Per-channel delivery is FIFO; there is no
// ordering guarantee across channels, so a title update may interleave
// arbitrarily with stream chunks for the same turn.
const (
	ChannelStreamResponse   = "stream-response"
	ChannelStreamImage      = "stream-image"
	ChannelUpdateChatTitle  = "update_chat_title"
	ChannelShortcutMission  = "shortcut_mission"
	ChannelShortcutsUpdated = "shortcuts_updated"
)

// StreamDone is the terminal sentinel on the text channel.
const StreamDone = "[DONE]"

// StreamEvent is one text chunk on the stream-response channel. The
// Chunk equals StreamDone when the turn's text stream is complete.
type StreamEvent struct {
	Turn  string
	Chunk string
}

// ImageEvent is one fragment on the stream-image channel. Non-terminal
// events carry a Part of the base64 payload. The terminal event may
// carry the complete DataURL, which overrides the accumulated buffer.
type ImageEvent struct {
	Turn    string
	Done    bool
	Part    string
	DataURL string
}

// TitleEvent carries a model-generated conversation title. The payload
// keeps the completion shape of the backend response; consumers read
// choices[0].message.content. ConversationID is the createTime of the
// conversation the title was requested for, captured at submission.
type TitleEvent struct {
	ConversationID int64
	Response       openai.ChatCompletionResponse
}

// ShortcutMission is a prompt template already concatenated with the
// externally supplied content (typically clipboard text).
type ShortcutMission struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ShortcutsUpdated announces a changed shortcut list.
type ShortcutsUpdated struct {
	Shortcuts []Shortcut `json:"shortcuts"`
}

// Shortcut is a named prompt template.
type Shortcut struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}
