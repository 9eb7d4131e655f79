package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"dockchat/bus"
	"dockchat/llm"
	"dockchat/store"
	"dockchat/utils"
)

// IdleTimeout is the liveness safety net: with a turn in flight and no
// event arrival for this long, the turn is abandoned without a terminal
// signal.
const IdleTimeout = 60 * time.Second

// shortcutDebounce suppresses duplicate shortcut-mission triggers.
const shortcutDebounce = 200 * time.Millisecond

// Backend invokes the streaming chat call. Results arrive on the event
// bus, not through the return value; the error covers invocation and
// transport failures only.
type Backend interface {
	StreamChat(ctx context.Context, req llm.StreamRequest) error
}

// BlobStore is the persistent key-value surface the engine writes
// conversations and settings to.
type BlobStore interface {
	Get(key string, out any) (bool, error)
	Set(key string, value any) error
	Save() error
}

// Logger is the logging surface the engine needs.
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Engine owns the in-memory transcript and the turn lifecycle, and is
// the only writer of the conversations blob while running. All state
// transitions happen under one mutex, so event interleavings from the
// bus, the watchdog and user actions are serialized.
type Engine struct {
	mu      sync.Mutex
	store   BlobStore
	bus     *bus.Bus
	backend Backend
	logger  Logger
	tokens  *utils.TokenCounter

	// transcript and turn state
	messages    []Message
	idCounter   int
	assistantID int    // -1 when no turn is active
	turn        string // uuid token of the active turn, "" when idle
	loading     bool

	// conversation/session state
	conversationID int64 // createTime of the current conversation
	chatTitle      string
	conversations  []Conversation // derived mirror, sorted by lastUpdateTime desc

	// settings mirrored from the store
	systemPrompt string
	currentModel string
	goOnline     bool
	apiKey       string
	shortcuts    []llm.Shortcut
	userInfo     UserInfo

	// staged attachment payloads for the next submission
	attachments []llm.Part

	// per-turn image reassembly
	imageBuf  strings.Builder
	imageDone bool

	idleTimer    *time.Timer
	idleTimeout  time.Duration
	lastShortcut time.Time

	unsubs []bus.UnsubscribeFunc
}

// Options wires an Engine.
type Options struct {
	Store        BlobStore
	Bus          *bus.Bus
	Backend      Backend
	Logger       Logger
	SystemPrompt string
}

// NewEngine creates an engine; call Init to load persisted state and
// Start to attach it to the bus.
func NewEngine(opts Options) *Engine {
	prompt := opts.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	return &Engine{
		store:        opts.Store,
		bus:          opts.Bus,
		backend:      opts.Backend,
		logger:       opts.Logger,
		tokens:       utils.NewTokenCounter(),
		assistantID:  -1,
		chatTitle:    DefaultTitle,
		systemPrompt: prompt,
		idleTimeout:  IdleTimeout,
	}
}

// Init loads settings and history from the store and opens a fresh
// session: the session's conversation id is "now" until the first
// completed turn decides whether a record gets created for it.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var conversations []Conversation
	if _, err := e.store.Get(store.KeyConversations, &conversations); err != nil {
		return utils.WrapError(err, "load conversations")
	}
	e.conversations = SortByLastUpdateDesc(conversations)

	var apiKey string
	if _, err := e.store.Get(store.KeyAPIKey, &apiKey); err != nil {
		return utils.WrapError(err, "load api key")
	}
	e.apiKey = apiKey

	var model string
	found, err := e.store.Get(store.KeyCurrentModel, &model)
	if err != nil {
		return utils.WrapError(err, "load current model")
	}
	if !found || model == "" {
		model = DefaultModel
		if err := e.store.Set(store.KeyCurrentModel, model); err != nil {
			return utils.WrapError(err, "seed current model")
		}
	}
	e.currentModel = model

	var shortcuts []llm.Shortcut
	found, err = e.store.Get(store.KeyShortcuts, &shortcuts)
	if err != nil {
		return utils.WrapError(err, "load shortcuts")
	}
	if !found {
		shortcuts = []llm.Shortcut{
			{Name: "翻译为中文", Prompt: "将下面内容翻译为中文:"},
			{Name: "用中文概括", Prompt: "用中文概括以下内容:"},
		}
		if err := e.store.Set(store.KeyShortcuts, shortcuts); err != nil {
			return utils.WrapError(err, "seed shortcuts")
		}
	}
	e.shortcuts = shortcuts

	if _, err := e.store.Get(store.KeyUserInfo, &e.userInfo); err != nil {
		return utils.WrapError(err, "load user info")
	}

	if err := e.store.Save(); err != nil {
		return utils.WrapError(err, "save store")
	}

	e.conversationID = nowMillis()
	return nil
}

// Start subscribes the engine to the bus channels it consumes. Each
// handler validates its payload type once at the boundary.
func (e *Engine) Start() {
	e.unsubs = append(e.unsubs,
		e.bus.Subscribe(llm.ChannelStreamResponse, func(payload any) {
			if ev, ok := payload.(llm.StreamEvent); ok {
				e.onStreamEvent(ev)
			}
		}),
		e.bus.Subscribe(llm.ChannelStreamImage, func(payload any) {
			if ev, ok := payload.(llm.ImageEvent); ok {
				e.onImageEvent(ev)
			}
		}),
		e.bus.Subscribe(llm.ChannelUpdateChatTitle, func(payload any) {
			if ev, ok := payload.(llm.TitleEvent); ok {
				e.onTitleEvent(ev)
			}
		}),
		e.bus.Subscribe(llm.ChannelShortcutMission, func(payload any) {
			if ev, ok := payload.(llm.ShortcutMission); ok {
				e.onShortcutMission(ev)
			}
		}),
		e.bus.Subscribe(llm.ChannelShortcutsUpdated, func(payload any) {
			if ev, ok := payload.(llm.ShortcutsUpdated); ok {
				e.onShortcutsUpdated(ev)
			}
		}),
	)
}

// Stop detaches the engine from the bus and disarms the watchdog.
func (e *Engine) Stop() {
	for _, un := range e.unsubs {
		un()
	}
	e.unsubs = nil

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}
	e.loading = false
	e.assistantID = -1
	e.turn = ""
}

// onStreamEvent appends one text chunk to the active placeholder, or
// finalizes the turn on the terminal sentinel. Events whose turn token
// does not match the active turn are dropped: they belong to a turn
// that was aborted or already finalized.
func (e *Engine) onStreamEvent(ev llm.StreamEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.Turn == "" || ev.Turn != e.turn {
		e.logger.Debug("dropping stream chunk for stale turn %s", ev.Turn)
		return
	}

	// Any arrival, keep-alives included, extends the watchdog.
	e.kickIdleLocked()

	if ev.Chunk == llm.StreamDone {
		e.finalizeTurnLocked()
		return
	}
	if ev.Chunk == "" {
		return
	}

	idx := e.indexByIDLocked(e.assistantID)
	if idx == -1 || len(e.messages[idx].Content) == 0 {
		return
	}
	e.messages[idx].Content[0].Text += ev.Chunk
}

// onImageEvent reassembles a streamed image. Fragments accumulate in
// the per-turn buffer; the terminal event appends the image exactly
// once and completes the turn. A terminal payload carrying the full
// data URL overrides whatever the buffer holds.
func (e *Engine) onImageEvent(ev llm.ImageEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.Turn == "" || ev.Turn != e.turn {
		e.logger.Debug("dropping image event for stale turn %s", ev.Turn)
		return
	}

	e.kickIdleLocked()

	if !ev.Done {
		e.imageBuf.WriteString(ev.Part)
		return
	}

	// Duplicate terminal signals must be no-ops.
	if e.imageDone {
		return
	}
	e.imageDone = true

	url := ev.DataURL
	if url == "" {
		url = e.imageBuf.String()
	}
	if url != "" {
		e.appendImageLocked(e.assistantID, url)
	}
	e.finalizeTurnLocked()
}

// appendImageLocked adds an image part to the target message unless a
// part with the same URL is already present.
func (e *Engine) appendImageLocked(messageID int, url string) {
	idx := e.indexByIDLocked(messageID)
	if idx == -1 {
		return
	}
	for _, p := range e.messages[idx].Content {
		if p.Type == llm.PartTypeImageURL && p.ImageURL != nil && p.ImageURL.URL == url {
			return
		}
	}
	e.messages[idx].Content = append(e.messages[idx].Content, llm.ImagePart(url))
}

// finalizeTurnLocked runs the completion path exactly once per turn:
// it clears the turn state, applies the empty-response policy, and
// reconciles the transcript into the stored conversation collection.
func (e *Engine) finalizeTurnLocked() {
	if e.assistantID == -1 {
		return
	}
	e.loading = false
	assistantID := e.assistantID
	e.assistantID = -1
	e.turn = ""
	e.imageBuf.Reset()
	e.imageDone = false

	idx := e.indexByIDLocked(assistantID)
	if idx == -1 {
		return
	}

	answer := llm.FlattenText(e.messages[idx].Content)
	hasImage := false
	for _, p := range e.messages[idx].Content {
		if p.Type == llm.PartTypeImageURL {
			hasImage = true
			break
		}
	}

	if answer == "" && !hasImage && len(e.messages) <= 2 {
		// Degenerate first exchange: substitute the localized
		// placeholder instead of persisting a visually empty turn.
		ph := placeholdersFor(e.userInfo.Language)
		e.messages[idx].Content = []llm.Part{llm.TextPart(ph.Unavailable)}
		if e.chatTitle == DefaultTitle {
			e.chatTitle = ph.FetchFailed
		}
		return
	}

	now := nowMillis()
	if e.conversationID == 0 {
		e.conversationID = now
	}

	stored := e.readConversationsLocked()
	stored = upsertConversation(stored, e.conversationID, e.snapshotMessagesLocked(), e.fallbackTitleLocked(), now)
	e.persistConversationsLocked(stored)

	e.recordUsageLocked(answer)
}

// onTitleEvent applies a model-generated title to the conversation the
// title was requested for. This can race with the main completion path;
// both sides re-read before writing and the record-level upsert keeps
// the key unique, so the outcome is last write wins.
func (e *Engine) onTitleEvent(ev llm.TitleEvent) {
	if len(ev.Response.Choices) == 0 {
		return
	}
	title := strings.TrimSpace(ev.Response.Choices[0].Message.Content)
	if title == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stored := e.readConversationsLocked()
	idx := FindIndexByCreateTime(stored, ev.ConversationID)
	if idx == -1 {
		return
	}
	stored[idx].Title = title
	e.persistConversationsLocked(stored)

	if e.conversationID == ev.ConversationID && e.chatTitle == DefaultTitle {
		e.chatTitle = title
	}
}

// onShortcutMission submits a shortcut mission as if typed, debounced
// against duplicate trigger events.
func (e *Engine) onShortcutMission(ev llm.ShortcutMission) {
	e.mu.Lock()
	if time.Since(e.lastShortcut) < shortcutDebounce {
		e.mu.Unlock()
		return
	}
	e.lastShortcut = time.Now()
	e.mu.Unlock()

	e.SubmitMission(ev)
}

func (e *Engine) onShortcutsUpdated(ev llm.ShortcutsUpdated) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shortcuts = ev.Shortcuts
}

// kickIdleLocked (re)arms the single per-turn watchdog. If it fires
// while a turn is still loading, the turn is forced back to idle with
// no reconciliation; partial content stays visible as-is.
func (e *Engine) kickIdleLocked() {
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleTimer = time.AfterFunc(e.idleTimeout, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.loading {
			return
		}
		e.logger.Warn("idle timeout: abandoning turn %s", e.turn)
		e.loading = false
		e.assistantID = -1
		e.turn = ""
	})
}

// readConversationsLocked re-reads the stored collection. The engine
// never trusts its in-memory mirror across a turn boundary.
func (e *Engine) readConversationsLocked() []Conversation {
	var stored []Conversation
	if _, err := e.store.Get(store.KeyConversations, &stored); err != nil {
		e.logger.Error("failed to read conversations: %v", err)
		return e.conversations
	}
	return stored
}

// persistConversationsLocked sorts, persists and mirrors the
// collection. Persistence failures are logged, never propagated: the
// user keeps the streamed text even when the write fails.
func (e *Engine) persistConversationsLocked(list []Conversation) {
	sorted := SortByLastUpdateDesc(list)
	e.conversations = sorted
	if err := e.store.Set(store.KeyConversations, sorted); err != nil {
		e.logger.Error("failed to persist conversations: %v", err)
		return
	}
	if err := e.store.Save(); err != nil {
		e.logger.Error("failed to save store: %v", err)
	}
}

// recordUsageLocked accumulates a token estimate for the completed
// turn under the usage blob. Best effort.
func (e *Engine) recordUsageLocked(answer string) {
	count := e.tokens.Estimate(answer)
	if count == 0 {
		return
	}
	var usage Usage
	if _, err := e.store.Get(store.KeyUsage, &usage); err != nil {
		e.logger.Error("failed to read usage: %v", err)
		return
	}
	if usage.ByModel == nil {
		usage.ByModel = make(map[string]int)
	}
	usage.TotalTurns++
	usage.TotalTokens += count
	usage.ByModel[e.currentModel] += count
	if err := e.store.Set(store.KeyUsage, usage); err != nil {
		e.logger.Error("failed to persist usage: %v", err)
	}
}

// fallbackTitleLocked is the title a freshly created record gets when
// no generated title arrived yet.
func (e *Engine) fallbackTitleLocked() string {
	if e.chatTitle != "" {
		return e.chatTitle
	}
	return DefaultTitle
}

func (e *Engine) indexByIDLocked(id int) int {
	for i := range e.messages {
		if e.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// snapshotMessagesLocked deep-copies the transcript so persisted
// records never alias live streaming state.
func (e *Engine) snapshotMessagesLocked() []Message {
	out := make([]Message, len(e.messages))
	for i, m := range e.messages {
		parts := make([]llm.Part, len(m.Content))
		copy(parts, m.Content)
		out[i] = Message{ID: m.ID, Role: m.Role, Content: parts}
	}
	return out
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
