package chat

import (
	"dockchat/llm"
	"dockchat/store"
	"dockchat/utils"
)

// ClearMessages abandons the current session: the transcript empties,
// any in-flight turn is disconnected from the UI, and a fresh
// conversation id is minted. The backend call, if any, keeps running;
// its events no longer match the turn token and get dropped.
func (e *Engine) ClearMessages() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.chatTitle = DefaultTitle
	e.conversationID = nowMillis()
	e.messages = nil
	e.loading = false
	e.assistantID = -1
	e.turn = ""
	e.attachments = nil
	e.imageBuf.Reset()
	e.imageDone = false
}

// SelectConversation switches the session to a stored record. Any
// active turn is abandoned the same way ClearMessages does.
func (e *Engine) SelectConversation(c Conversation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.conversationID = c.CreateTime
	e.chatTitle = c.Title
	e.messages = make([]Message, len(c.Messages))
	copy(e.messages, c.Messages)
	e.loading = false
	e.assistantID = -1
	e.turn = ""
	e.imageBuf.Reset()
	e.imageDone = false

	// Loaded ids come from an earlier session; keep ours ahead of them
	// so new messages never collide.
	for _, m := range e.messages {
		if m.ID >= e.idCounter {
			e.idCounter = m.ID + 1
		}
	}
}

// DeleteConversation removes a record by its identity key. Deleting the
// conversation currently on screen also resets the session.
func (e *Engine) DeleteConversation(createTime int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stored := e.readConversationsLocked()
	kept := make([]Conversation, 0, len(stored))
	for _, c := range stored {
		if c.CreateTime != createTime {
			kept = append(kept, c)
		}
	}
	e.persistConversationsLocked(kept)

	if e.conversationID == createTime {
		e.chatTitle = DefaultTitle
		e.conversationID = nowMillis()
		e.messages = nil
		e.loading = false
		e.assistantID = -1
		e.turn = ""
		e.imageBuf.Reset()
		e.imageDone = false
	}
}

// AttachFile encodes a local file and stages it for the next
// submission.
func (e *Engine) AttachFile(path string) (llm.Part, error) {
	part, err := utils.EncodeAttachment(path)
	if err != nil {
		return llm.Part{}, err
	}
	e.mu.Lock()
	e.attachments = append(e.attachments, part)
	e.mu.Unlock()
	return part, nil
}

// ClearAttachments drops all staged attachments.
func (e *Engine) ClearAttachments() {
	e.mu.Lock()
	e.attachments = nil
	e.mu.Unlock()
}

// AttachmentCount reports how many payloads are staged.
func (e *Engine) AttachmentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.attachments)
}

// Messages returns a snapshot of the transcript.
func (e *Engine) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotMessagesLocked()
}

// Conversations returns the derived, sorted conversation list.
func (e *Engine) Conversations() []Conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Conversation, len(e.conversations))
	copy(out, e.conversations)
	return out
}

// Loading reports whether a turn is streaming.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Title returns the displayed conversation title.
func (e *Engine) Title() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chatTitle
}

// ConversationID returns the current session's identity key.
func (e *Engine) ConversationID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversationID
}

// CurrentModel returns the selected model id.
func (e *Engine) CurrentModel() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentModel
}

// SetModel selects and persists the model id.
func (e *Engine) SetModel(modelID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentModel = modelID
	if err := e.store.Set(store.KeyCurrentModel, modelID); err != nil {
		return utils.WrapError(err, "persist current model")
	}
	return e.store.Save()
}

// Online reports the web-augmented toggle.
func (e *Engine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.goOnline
}

// SetOnline flips the web-augmented model variant for new turns.
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	e.goOnline = online
	e.mu.Unlock()
}

// APIKeyReady reports whether a credential is configured.
func (e *Engine) APIKeyReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apiKey != ""
}

// SetAPIKey stores the backend credential.
func (e *Engine) SetAPIKey(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apiKey = key
	if err := e.store.Set(store.KeyAPIKey, key); err != nil {
		return utils.WrapError(err, "persist api key")
	}
	return e.store.Save()
}

// APIKey returns the configured credential.
func (e *Engine) APIKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apiKey
}

// SetSystemPrompt replaces the system prompt for subsequent turns.
func (e *Engine) SetSystemPrompt(prompt string) {
	e.mu.Lock()
	if prompt != "" {
		e.systemPrompt = prompt
	}
	e.mu.Unlock()
}

// Shortcuts returns the current shortcut templates.
func (e *Engine) Shortcuts() []llm.Shortcut {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]llm.Shortcut, len(e.shortcuts))
	copy(out, e.shortcuts)
	return out
}

// SetShortcuts persists a new shortcut list and announces it on the
// bus so other consumers refresh.
func (e *Engine) SetShortcuts(shortcuts []llm.Shortcut) error {
	e.mu.Lock()
	e.shortcuts = shortcuts
	if err := e.store.Set(store.KeyShortcuts, shortcuts); err != nil {
		e.mu.Unlock()
		return utils.WrapError(err, "persist shortcuts")
	}
	err := e.store.Save()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.bus.Publish(llm.ChannelShortcutsUpdated, llm.ShortcutsUpdated{Shortcuts: shortcuts})
	return nil
}

// UserInfo returns the stored user profile.
func (e *Engine) UserInfo() UserInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userInfo
}

// SetUserInfo persists the user profile; its language selects the
// localized placeholder strings.
func (e *Engine) SetUserInfo(info UserInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userInfo = info
	if err := e.store.Set(store.KeyUserInfo, info); err != nil {
		return utils.WrapError(err, "persist user info")
	}
	return e.store.Save()
}

// UsageStats returns the accumulated token usage.
func (e *Engine) UsageStats() Usage {
	e.mu.Lock()
	defer e.mu.Unlock()
	var usage Usage
	if _, err := e.store.Get(store.KeyUsage, &usage); err != nil {
		e.logger.Error("failed to read usage: %v", err)
	}
	return usage
}
