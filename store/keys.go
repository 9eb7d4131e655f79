package store

// Well-known blob keys.
const (
	KeyConversations = "conversations" // []chat.Conversation
	KeyCurrentModel  = "current_model" // string, "provider/model-name"
	KeyAPIKey        = "api_key"       // string
	KeyShortcuts     = "shortcuts"     // []llm.Shortcut
	KeyUserInfo      = "user_info"     // chat.UserInfo
	KeyUsage         = "usage"         // chat.Usage
)
