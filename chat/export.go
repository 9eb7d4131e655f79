package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"dockchat/llm"
)

// ExportFormat selects the transcript export encoding.
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
)

// conversationExport is the JSON export envelope.
type conversationExport struct {
	Title          string            `json:"title"`
	CreateTime     int64             `json:"create_time"`
	LastUpdateTime int64             `json:"last_update_time"`
	Messages       []Message         `json:"messages"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ExportConversation writes a conversation to path in the requested
// format.
func ExportConversation(c Conversation, format ExportFormat, path string) error {
	var data []byte
	var err error

	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(conversationExport{
			Title:          c.Title,
			CreateTime:     c.CreateTime,
			LastUpdateTime: c.LastUpdateTime,
			Messages:       c.Messages,
			Metadata: map[string]string{
				"export_version": "1.0",
				"export_date":    time.Now().Format(time.RFC3339),
				"app_name":       "dockchat",
			},
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	case FormatMarkdown:
		data = []byte(conversationMarkdown(c))
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// conversationMarkdown renders a readable transcript. Non-text parts
// appear as short placeholders rather than raw base64.
func conversationMarkdown(c Conversation) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", c.Title))
	sb.WriteString(fmt.Sprintf("**Created**: %s\n\n", time.UnixMilli(c.CreateTime).Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Updated**: %s\n\n", time.UnixMilli(c.LastUpdateTime).Format("2006-01-02 15:04:05")))
	sb.WriteString("---\n\n")

	for _, m := range c.Messages {
		switch m.Role {
		case RoleUser:
			sb.WriteString("## 🙋 User\n\n")
		case RoleAssistant:
			sb.WriteString("## 🤖 Assistant\n\n")
		default:
			sb.WriteString("## ⚙️ System\n\n")
		}
		for _, p := range m.Content {
			switch p.Type {
			case llm.PartTypeText:
				if p.Meta != nil {
					sb.WriteString(fmt.Sprintf("*(attached document: %s, %d bytes)*\n\n", p.Meta.Filename, p.Meta.Bytes))
				}
				sb.WriteString(p.Text)
				sb.WriteString("\n\n")
			case llm.PartTypeImageURL:
				sb.WriteString("*(image attachment)*\n\n")
			case llm.PartTypeFile:
				name := ""
				if p.File != nil {
					name = p.File.Filename
				}
				sb.WriteString(fmt.Sprintf("*(file attachment: %s)*\n\n", name))
			case llm.PartTypeInputAudio:
				format := ""
				if p.InputAudio != nil {
					format = p.InputAudio.Format
				}
				sb.WriteString(fmt.Sprintf("*(audio attachment, %s)*\n\n", format))
			}
		}
	}
	return sb.String()
}
