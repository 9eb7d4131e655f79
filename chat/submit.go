package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"dockchat/llm"
	"dockchat/utils"
)

// Submit packages the typed input plus any staged attachments into a
// new turn. It returns false, with no side effects, when a turn is
// already streaming or there is nothing to send.
func (e *Engine) Submit(input string) bool {
	return e.submit(input, nil)
}

// SubmitMission submits a shortcut mission: a prompt template already
// concatenated with externally supplied content. A mission always opens
// a fresh conversation.
func (e *Engine) SubmitMission(mission llm.ShortcutMission) bool {
	return e.submit("", &mission)
}

func (e *Engine) submit(input string, mission *llm.ShortcutMission) bool {
	e.mu.Lock()

	// At most one active turn.
	if e.loading {
		e.mu.Unlock()
		return false
	}
	if mission == nil && strings.TrimSpace(input) == "" && len(e.attachments) == 0 {
		e.mu.Unlock()
		return false
	}

	if mission != nil {
		e.chatTitle = ShortcutMissionTitle
		e.conversationID = nowMillis()
		e.messages = nil
		e.attachments = nil
		e.imageBuf.Reset()
		e.imageDone = false
	}

	e.loading = true
	e.kickIdleLocked()

	userContent := e.buildUserContentLocked(input, mission)

	userMessage := Message{ID: e.idCounter, Role: RoleUser, Content: userContent}
	e.idCounter++
	assistantMessage := Message{ID: e.idCounter, Role: RoleAssistant, Content: []llm.Part{llm.TextPart("")}}
	e.idCounter++

	e.assistantID = assistantMessage.ID
	e.turn = uuid.NewString()
	e.imageBuf.Reset()
	e.imageDone = false

	e.messages = append(e.messages, userMessage, assistantMessage)
	e.attachments = nil

	// Snapshot everything the invocation needs before unlocking: the
	// history excludes the placeholder, and the user turn carries the
	// assembled parts with presentation meta stripped.
	history := make([]llm.ChatMessage, 0, len(e.messages)+1)
	history = append(history, llm.SystemMessage(e.systemPrompt))
	for _, m := range e.messages[:len(e.messages)-1] {
		history = append(history, llm.NewChatMessage(m.Role, m.Content))
	}

	model := e.currentModel
	if e.goOnline {
		model += OnlineSuffix
	}
	req := llm.StreamRequest{
		Turn:           e.turn,
		ConversationID: e.conversationID,
		Model:          model,
		Token:          e.apiKey,
		Messages:       history,
	}
	turn := e.turn
	placeholderID := assistantMessage.ID
	e.mu.Unlock()

	utils.SafeGo(e.logger, "turn "+turn, func() {
		e.runTurn(req, turn, placeholderID)
	})
	return true
}

// runTurn pre-persists the conversation shell, then blocks on the
// streaming invocation. Chunk delivery happens on the bus; only the
// invocation failure is handled here.
func (e *Engine) runTurn(req llm.StreamRequest, turn string, placeholderID int) {
	e.prePersistShell(turn)

	if err := e.backend.StreamChat(context.Background(), req); err != nil {
		e.logger.Error("stream invocation failed: %v", err)
		e.failTurn(turn, placeholderID)
	}
}

// prePersistShell writes the conversation with the just-sent user
// message so a crash mid-stream does not lose it. Failures are logged
// and never abort the turn.
func (e *Engine) prePersistShell(turn string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// The turn may already have been aborted or even finalized.
	if e.turn != turn {
		return
	}
	if e.conversationID == 0 {
		e.conversationID = nowMillis()
	}
	stored := e.readConversationsLocked()
	stored = upsertConversation(stored, e.conversationID, e.snapshotMessagesLocked(), e.fallbackTitleLocked(), nowMillis())
	e.persistConversationsLocked(stored)
}

// failTurn terminates a turn whose invocation was rejected: the
// placeholder text becomes a literal error marker and the turn is not
// retried. A stale turn token means the user already moved on.
func (e *Engine) failTurn(turn string, placeholderID int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.turn != turn {
		return
	}
	e.loading = false
	e.assistantID = -1
	e.turn = ""

	if idx := e.indexByIDLocked(placeholderID); idx != -1 {
		e.messages[idx].Content = []llm.Part{llm.TextPart(ErrorResponseText)}
	}
}

// buildUserContentLocked assembles the outgoing content array: the
// typed (or mission) text first, then the staged attachment payloads.
// Textable attachments are already plain text parts carrying a
// presentation-only meta tag.
func (e *Engine) buildUserContentLocked(input string, mission *llm.ShortcutMission) []llm.Part {
	var parts []llm.Part

	text := strings.TrimSpace(input)
	if mission != nil {
		text = mission.Content
	}
	if text != "" {
		parts = append(parts, llm.TextPart(text))
	}
	parts = append(parts, e.attachments...)
	return parts
}
