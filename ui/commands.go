package ui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"dockchat/chat"
	"dockchat/llm"
	"dockchat/utils"
)

// handleCommand runs one slash command; it returns false when the REPL
// should exit.
func (a *App) handleCommand(input string) bool {
	fields := strings.Fields(input)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return false
	case "/help":
		a.printHelp()
	case "/clear", "/new":
		a.engine.ClearMessages()
		fmt.Println("started a new chat")
	case "/title":
		fmt.Println(a.engine.Title())
	case "/config":
		a.printConfig()
	case "/history":
		a.printHistory()
	case "/select":
		a.selectConversation(args)
	case "/delete":
		a.deleteConversation(args)
	case "/model":
		if len(args) == 0 {
			fmt.Println(a.engine.CurrentModel())
			break
		}
		if err := a.engine.SetModel(args[0]); err != nil {
			fmt.Printf("failed to set model: %v\n", err)
			break
		}
		fmt.Printf("model set to %s\n", args[0])
	case "/models":
		a.printModels()
	case "/online":
		online := !a.engine.Online()
		a.engine.SetOnline(online)
		if online {
			fmt.Println("online mode on: requests use the web-augmented model variant")
		} else {
			fmt.Println("online mode off")
		}
	case "/attach":
		a.attach(args)
	case "/attachments":
		fmt.Printf("%d attachment(s) staged\n", a.engine.AttachmentCount())
	case "/clearattach":
		a.engine.ClearAttachments()
		fmt.Println("attachments cleared")
	case "/setkey":
		if len(args) == 0 {
			fmt.Println("usage: /setkey <api-key>")
			break
		}
		if err := a.engine.SetAPIKey(args[0]); err != nil {
			fmt.Printf("failed to store api key: %v\n", err)
			break
		}
		fmt.Println("api key stored")
	case "/shortcuts":
		a.printShortcuts()
	case "/shortcut":
		a.runShortcut(args)
	case "/user":
		a.setUser(args)
	case "/usage":
		a.printUsage()
	case "/export":
		a.export(args)
	default:
		fmt.Printf("unknown command %s; try /help\n", cmd)
	}
	return true
}

func (a *App) printHelp() {
	fmt.Println(`commands:
  /clear              start a new chat
  /config             show the loaded configuration
  /history            list stored conversations
  /select <n>         open conversation n from /history
  /delete <n>         delete conversation n from /history
  /title              show the current conversation title
  /model [id]         show or set the model (provider/model-name)
  /models             list available models, newest first
  /online             toggle the web-augmented model variant
  /attach <path>      stage a file for the next message
  /attachments        count staged attachments
  /clearattach        drop staged attachments
  /shortcut <name> <text…>  run a shortcut mission on the given text
  /shortcuts          list shortcut templates
  /setkey <key>       store the API key
  /user <name> [lang] set user name and language (BCP-47)
  /usage              show accumulated token usage
  /export <n> <json|md> <path>  export conversation n
  /quit               exit`)
}

func (a *App) printConfig() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "base url\t%s\n", a.config.API.BaseURL)
	fmt.Fprintf(w, "default model\t%s\n", a.config.API.DefaultModel)
	fmt.Fprintf(w, "db path\t%s\n", a.config.Data.DBPath)
	fmt.Fprintf(w, "max history\t%d\n", a.config.Data.MaxHistory)
	w.Flush()
}

func (a *App) printHistory() {
	conversations := a.engine.Conversations()
	if len(conversations) == 0 {
		fmt.Println("no stored conversations")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTITLE\tMESSAGES\tUPDATED")
	for i, c := range conversations {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n",
			i+1,
			c.Title,
			len(c.Messages),
			time.UnixMilli(c.LastUpdateTime).Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
}

// conversationArg resolves a 1-based /history index.
func (a *App) conversationArg(args []string) (chat.Conversation, bool) {
	if len(args) == 0 {
		fmt.Println("expected a conversation number from /history")
		return chat.Conversation{}, false
	}
	n, err := strconv.Atoi(args[0])
	conversations := a.engine.Conversations()
	if err != nil || n < 1 || n > len(conversations) {
		fmt.Println("no such conversation")
		return chat.Conversation{}, false
	}
	return conversations[n-1], true
}

func (a *App) selectConversation(args []string) {
	c, ok := a.conversationArg(args)
	if !ok {
		return
	}
	a.engine.SelectConversation(c)
	fmt.Printf("opened %q (%d messages)\n", c.Title, len(c.Messages))
	for _, m := range c.Messages {
		printMessage(m)
	}
}

func (a *App) deleteConversation(args []string) {
	c, ok := a.conversationArg(args)
	if !ok {
		return
	}
	a.engine.DeleteConversation(c.CreateTime)
	fmt.Printf("deleted %q\n", c.Title)
}

func (a *App) printModels() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	models, err := a.client.ListModels(ctx, a.engine.APIKey())
	if err != nil {
		fmt.Printf("failed to fetch models: %v\n", err)
		return
	}
	limit := 30
	if len(models) < limit {
		limit = len(models)
	}
	for _, m := range models[:limit] {
		fmt.Println(m.ID)
	}
	if len(models) > limit {
		fmt.Printf("… and %d more\n", len(models)-limit)
	}
}

func (a *App) attach(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: /attach <path>")
		return
	}
	path := strings.Join(args, " ")
	part, err := a.engine.AttachFile(path)
	if err != nil {
		fmt.Printf("failed to attach: %v\n", err)
		return
	}
	if part.Meta != nil {
		fmt.Printf("attached %s (%s of text)\n", part.Meta.Filename, utils.FormatFileSize(int64(part.Meta.Bytes)))
		return
	}
	fmt.Printf("attached %s\n", path)
}

func (a *App) printShortcuts() {
	shortcuts := a.engine.Shortcuts()
	if len(shortcuts) == 0 {
		fmt.Println("no shortcuts configured")
		return
	}
	for _, s := range shortcuts {
		fmt.Printf("%s\t%s\n", s.Name, s.Prompt)
	}
}

// runShortcut submits a shortcut mission and waits for the resulting
// turn. Submission happens inline so the loading flag is already set
// when waitForTurn starts polling.
func (a *App) runShortcut(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: /shortcut <name> <text…>")
		return
	}
	name := args[0]
	content := strings.Join(args[1:], " ")

	for _, s := range a.engine.Shortcuts() {
		if s.Name == name {
			if !a.engine.SubmitMission(llm.ShortcutMission{
				Type:    s.Name,
				Content: s.Prompt + content,
			}) {
				fmt.Println("a response is still streaming")
				return
			}
			fmt.Print("assistant: ")
			a.waitForTurn()
			fmt.Println()
			return
		}
	}
	fmt.Printf("no shortcut named %q\n", name)
}

func (a *App) setUser(args []string) {
	if len(args) == 0 {
		info := a.engine.UserInfo()
		fmt.Printf("name=%q language=%q\n", info.Name, info.Language)
		return
	}
	info := a.engine.UserInfo()
	info.Name = args[0]
	if len(args) > 1 {
		info.Language = args[1]
	}
	if err := a.engine.SetUserInfo(info); err != nil {
		fmt.Printf("failed to store user info: %v\n", err)
		return
	}
	fmt.Println("user info stored")
}

func (a *App) printUsage() {
	usage := a.engine.UsageStats()
	fmt.Printf("turns: %d, tokens: %d\n", usage.TotalTurns, usage.TotalTokens)
	for model, tokens := range usage.ByModel {
		fmt.Printf("  %s: %d\n", model, tokens)
	}
}

func (a *App) export(args []string) {
	if len(args) < 3 {
		fmt.Println("usage: /export <n> <json|md> <path>")
		return
	}
	c, ok := a.conversationArg(args[:1])
	if !ok {
		return
	}
	format := chat.FormatJSON
	if args[1] == "md" || args[1] == "markdown" {
		format = chat.FormatMarkdown
	}
	path := strings.Join(args[2:], " ")
	if err := chat.ExportConversation(c, format, path); err != nil {
		fmt.Printf("export failed: %v\n", err)
		return
	}
	fmt.Printf("exported to %s\n", path)
}

// printMessage renders one stored message to the terminal.
func printMessage(m chat.Message) {
	prefix := m.Role + ": "
	for _, p := range m.Content {
		switch p.Type {
		case llm.PartTypeText:
			if p.Meta != nil {
				fmt.Printf("%s[document %s]\n", prefix, p.Meta.Filename)
			} else {
				fmt.Printf("%s%s\n", prefix, p.Text)
			}
		case llm.PartTypeImageURL:
			fmt.Printf("%s[image]\n", prefix)
		case llm.PartTypeFile:
			name := ""
			if p.File != nil {
				name = p.File.Filename
			}
			fmt.Printf("%s[file %s]\n", prefix, name)
		case llm.PartTypeInputAudio:
			fmt.Printf("%s[audio]\n", prefix)
		}
		prefix = strings.Repeat(" ", len(prefix))
	}
}
