// Package ui provides the interactive terminal front end: a liner
// based prompt loop over the chat engine, with streamed chunks rendered
// as they arrive on the event bus.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"dockchat/bus"
	"dockchat/chat"
	"dockchat/llm"
	"dockchat/utils"
)

// pollInterval is how often the REPL checks whether a turn finished.
const pollInterval = 100 * time.Millisecond

// App owns the REPL session.
type App struct {
	config      *utils.Config
	engine      *chat.Engine
	bus         *bus.Bus
	client      *llm.Client
	logger      *utils.Logger
	line        *liner.State
	historyFile string

	unsubs []bus.UnsubscribeFunc
}

// NewApp wires the REPL over an initialized engine.
func NewApp(config *utils.Config, engine *chat.Engine, b *bus.Bus, client *llm.Client, logger *utils.Logger) *App {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "dockchat", "input_history")

	app := &App{
		config:      config,
		engine:      engine,
		bus:         b,
		client:      client,
		logger:      logger,
		line:        line,
		historyFile: historyFile,
	}
	app.loadHistory()
	return app
}

// Run subscribes the renderer and processes input until exit.
func (a *App) Run() {
	a.subscribeRenderer()
	a.logger.Info("repl session started")

	fmt.Println("dockchat - type a message, /help for commands, /quit to exit")
	if !a.engine.APIKeyReady() {
		fmt.Println("no API key configured; set one with /setkey <key>")
	}

	for {
		input, err := a.line.Prompt("dockchat> ")
		if err != nil {
			// Ctrl+C or EOF both end the session.
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		a.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if !a.handleCommand(input) {
				return
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return
		}

		a.sendMessage(input)
	}
}

// Cleanup persists input history and detaches from the bus.
func (a *App) Cleanup() {
	for _, un := range a.unsubs {
		un()
	}
	a.unsubs = nil
	a.saveHistory()
	a.line.Close()
}

// sendMessage submits typed input and blocks until the turn leaves the
// streaming state, printing chunks as the renderer receives them.
func (a *App) sendMessage(input string) {
	if !a.engine.Submit(input) {
		if a.engine.Loading() {
			fmt.Println("a response is still streaming; wait for it to finish")
		} else {
			fmt.Println("nothing to send")
		}
		return
	}

	fmt.Print("assistant: ")
	a.waitForTurn()
	fmt.Println()
}

// waitForTurn polls the loading flag. Every way a turn can end
// (terminal signal, invocation failure, idle watchdog, user clear)
// drops the flag, so this cannot wedge the prompt.
func (a *App) waitForTurn() {
	for a.engine.Loading() {
		time.Sleep(pollInterval)
	}
}

// subscribeRenderer prints streamed text and image arrivals. The engine
// subscribes to the same channels independently; rendering never
// touches accumulator state.
func (a *App) subscribeRenderer() {
	a.unsubs = append(a.unsubs,
		a.bus.Subscribe(llm.ChannelStreamResponse, func(payload any) {
			ev, ok := payload.(llm.StreamEvent)
			if !ok || ev.Chunk == llm.StreamDone {
				return
			}
			fmt.Print(ev.Chunk)
		}),
		a.bus.Subscribe(llm.ChannelStreamImage, func(payload any) {
			ev, ok := payload.(llm.ImageEvent)
			if !ok || !ev.Done {
				return
			}
			fmt.Print("[image received]")
		}),
	)
}

func (a *App) loadHistory() {
	if f, err := os.Open(a.historyFile); err == nil {
		a.line.ReadHistory(f)
		f.Close()
	}
}

func (a *App) saveHistory() {
	if err := os.MkdirAll(filepath.Dir(a.historyFile), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(a.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	a.line.WriteHistory(f)
}
