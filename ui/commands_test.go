package ui

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"dockchat/bus"
	"dockchat/chat"
	"dockchat/llm"
	"dockchat/utils"
)

type memStore struct {
	blobs map[string]json.RawMessage
}

func (s *memStore) Get(key string, out any) (bool, error) {
	raw, ok := s.blobs[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *memStore) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.blobs[key] = raw
	return nil
}

func (s *memStore) Save() error { return nil }

// doneBackend records the invocation and immediately closes the turn by
// publishing the terminal signal.
type doneBackend struct {
	events *bus.Bus
	calls  chan llm.StreamRequest
}

func (b *doneBackend) StreamChat(ctx context.Context, req llm.StreamRequest) error {
	b.calls <- req
	b.events.Publish(llm.ChannelStreamResponse, llm.StreamEvent{Turn: req.Turn, Chunk: llm.StreamDone})
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}
func (nopLogger) Debug(format string, v ...interface{}) {}

func newTestApp(t *testing.T) (*App, *doneBackend) {
	t.Helper()
	b := bus.New()
	backend := &doneBackend{events: b, calls: make(chan llm.StreamRequest, 4)}
	e := chat.NewEngine(chat.Options{
		Store:   &memStore{blobs: make(map[string]json.RawMessage)},
		Bus:     b,
		Backend: backend,
		Logger:  nopLogger{},
	})
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	e.Start()

	cfg := &utils.Config{
		API: utils.APIConfig{
			BaseURL:      "https://openrouter.ai/api/v1",
			DefaultModel: "openai/gpt-5-chat",
		},
		Data: utils.DataConfig{DBPath: "/data/store.db", MaxHistory: 100},
	}
	return &App{config: cfg, engine: e, bus: b}, backend
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	old := os.Stdout
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured output: %v", err)
	}
	return string(data)
}

func TestRunShortcut_SubmitsMissionInline(t *testing.T) {
	a, backend := newTestApp(t)

	out := captureOutput(t, func() {
		a.runShortcut([]string{"翻译为中文", "hello world"})
	})

	// The submission happens before runShortcut starts waiting, so the
	// request is already recorded by the time the call returns.
	select {
	case req := <-backend.calls:
		got := llm.FlattenText(req.Messages[len(req.Messages)-1].Content)
		if got != "将下面内容翻译为中文:hello world" {
			t.Errorf("mission content %q", got)
		}
	default:
		t.Fatal("mission never reached the backend")
	}

	if a.engine.Loading() {
		t.Error("turn still streaming after runShortcut returned")
	}
	if a.engine.Title() != chat.ShortcutMissionTitle {
		t.Errorf("title %q after mission", a.engine.Title())
	}
	if !strings.Contains(out, "assistant:") {
		t.Errorf("missing assistant prefix in output %q", out)
	}
}

func TestRunShortcut_UnknownName(t *testing.T) {
	a, backend := newTestApp(t)

	out := captureOutput(t, func() {
		a.runShortcut([]string{"nope", "text"})
	})

	if !strings.Contains(out, "no shortcut named") {
		t.Errorf("unexpected output %q", out)
	}
	select {
	case req := <-backend.calls:
		t.Fatalf("unexpected backend invocation for turn %s", req.Turn)
	default:
	}
}

func TestHandleCommand_Config(t *testing.T) {
	a, _ := newTestApp(t)

	var keep bool
	out := captureOutput(t, func() {
		keep = a.handleCommand("/config")
	})

	if !keep {
		t.Error("/config must not exit the repl")
	}
	for _, want := range []string{"https://openrouter.ai/api/v1", "openai/gpt-5-chat", "/data/store.db", "100"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}
