package llm

import "strings"

// Part content types on the wire.
const (
	PartTypeText       = "text"
	PartTypeImageURL   = "image_url"
	PartTypeFile       = "file"
	PartTypeInputAudio = "input_audio"
)

// Part is one element of a message's content array. Exactly one of the
// typed payload fields is set, matching the Type tag. The JSON shape is
// the chat-completions wire format and is also what gets persisted.
type Part struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	ImageURL   *ImageURL   `json:"image_url,omitempty"`
	File       *File       `json:"file,omitempty"`
	InputAudio *InputAudio `json:"input_audio,omitempty"`

	// Meta marks a text part as originating from a document attachment.
	// Presentation only: strip it before building a request body.
	Meta *PartMeta `json:"meta,omitempty"`
}

// ImageURL holds a remote URL or a base64 data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// File is a base64 data-URL encoded document attachment.
type File struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

// InputAudio is a base64 audio attachment with its container format.
type InputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// PartMeta annotates a textable attachment for rendering as a file card.
type PartMeta struct {
	Kind     string `json:"kind"`
	Filename string `json:"filename"`
	Bytes    int    `json:"bytes"`
}

// TextPart builds a plain text part.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// TextablePart builds a text part tagged as a document attachment. The
// full text still goes to the backend; the meta only changes rendering.
func TextablePart(text, filename string) Part {
	return Part{
		Type: PartTypeText,
		Text: text,
		Meta: &PartMeta{Kind: "textable", Filename: filename, Bytes: len(text)},
	}
}

// ImagePart builds an image_url part.
func ImagePart(url string) Part {
	return Part{Type: PartTypeImageURL, ImageURL: &ImageURL{URL: url}}
}

// FilePart builds a file part from an already-encoded data URL.
func FilePart(filename, fileData string) Part {
	return Part{Type: PartTypeFile, File: &File{Filename: filename, FileData: fileData}}
}

// AudioPart builds an input_audio part.
func AudioPart(data, format string) Part {
	return Part{Type: PartTypeInputAudio, InputAudio: &InputAudio{Data: data, Format: format}}
}

// stripMeta returns a copy of the part without presentation annotations.
func stripMeta(p Part) Part {
	p.Meta = nil
	return p
}

// FlattenText concatenates the text parts of a content array. Used for
// title generation and transcript export where only prose matters.
func FlattenText(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Type == PartTypeText && p.Text != "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// ChatMessage is one entry of the request history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content []Part `json:"content"`
}

// NewChatMessage builds a history entry with meta annotations stripped,
// since those must not reach the backend.
func NewChatMessage(role string, parts []Part) ChatMessage {
	clean := make([]Part, 0, len(parts))
	for _, p := range parts {
		clean = append(clean, stripMeta(p))
	}
	return ChatMessage{Role: role, Content: clean}
}

// SystemMessage builds the system-prompt history entry.
func SystemMessage(prompt string) ChatMessage {
	return ChatMessage{Role: "system", Content: []Part{TextPart(prompt)}}
}
