package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dockchat/bus"
	"dockchat/chat"
	"dockchat/llm"
	"dockchat/store"
	"dockchat/ui"
	"dockchat/utils"
)

var version = "0.1.0"

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dockchat",
	Short: "A lightweight streaming chat client for OpenRouter-compatible backends",
	RunE:  runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.SilenceUsage = true
}

// runtimeEnv holds everything a command needs wired together.
type runtimeEnv struct {
	config *utils.Config
	logger *utils.Logger
	engine *chat.Engine
	bus    *bus.Bus
	client *llm.Client
	db     *store.Store
	close  func()
}

// buildEnv wires logger, config, store, bus, backend client and engine.
// The returned close func tears them down in reverse order.
func buildEnv() (*runtimeEnv, error) {
	logger, err := utils.NewLogger(utils.GetLogPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetVerbose(flagVerbose)

	configPath := flagConfig
	if configPath == "" {
		configPath, err = utils.EnsureDefaultConfig()
		if err != nil {
			logger.Close()
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}
	config, err := utils.LoadConfig(configPath)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Info("using config file: %s", configPath)

	db, err := store.Open(config.Data.DBPath)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Info("store opened: %s", config.Data.DBPath)

	b := bus.New()
	client := llm.NewClient(config.API.BaseURL, b, logger)

	engine := chat.NewEngine(chat.Options{
		Store:        db,
		Bus:          b,
		Backend:      client,
		Logger:       logger,
		SystemPrompt: config.Chat.SystemPrompt,
	})
	if err := engine.Init(); err != nil {
		b.Close()
		db.Close()
		logger.Close()
		return nil, fmt.Errorf("failed to load persisted state: %w", err)
	}
	engine.Start()

	return &runtimeEnv{
		config: config,
		logger: logger,
		engine: engine,
		bus:    b,
		client: client,
		db:     db,
		close: func() {
			engine.Stop()
			b.Close()
			db.Close()
			logger.Close()
		},
	}, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	env, err := buildEnv()
	if err != nil {
		return err
	}
	defer env.close()

	env.logger.Info("dockchat v%s started", version)
	app := ui.NewApp(env.config, env.engine, env.bus, env.client, env.logger)
	defer app.Cleanup()
	app.Run()
	env.logger.Info("dockchat stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
