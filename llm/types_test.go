package llm

import (
	"encoding/json"
	"testing"
)

func TestPart_WireShape(t *testing.T) {
	tests := []struct {
		part Part
		want string
	}{
		{TextPart("hi"), `{"type":"text","text":"hi"}`},
		{ImagePart("data:image/png;base64,A"), `{"type":"image_url","image_url":{"url":"data:image/png;base64,A"}}`},
		{FilePart("doc.pdf", "data:application/pdf;base64,B"), `{"type":"file","file":{"filename":"doc.pdf","file_data":"data:application/pdf;base64,B"}}`},
		{AudioPart("QUJD", "mp3"), `{"type":"input_audio","input_audio":{"data":"QUJD","format":"mp3"}}`},
	}
	for _, tt := range tests {
		raw, err := json.Marshal(tt.part)
		if err != nil {
			t.Fatalf("marshal %s: %v", tt.part.Type, err)
		}
		if string(raw) != tt.want {
			t.Errorf("wire shape for %s:\n got %s\nwant %s", tt.part.Type, raw, tt.want)
		}
	}
}

func TestTextablePart_CarriesMeta(t *testing.T) {
	p := TextablePart("file contents", "notes.txt")
	if p.Type != PartTypeText || p.Text != "file contents" {
		t.Errorf("textable part must stay a text part: %+v", p)
	}
	if p.Meta == nil || p.Meta.Kind != "textable" || p.Meta.Filename != "notes.txt" || p.Meta.Bytes != len("file contents") {
		t.Errorf("wrong meta: %+v", p.Meta)
	}
}

func TestNewChatMessage_StripsMeta(t *testing.T) {
	msg := NewChatMessage("user", []Part{
		TextablePart("doc text", "doc.txt"),
		TextPart("and a question"),
	})
	for i, p := range msg.Content {
		if p.Meta != nil {
			t.Errorf("part %d still carries meta after request build", i)
		}
	}
	if msg.Content[0].Text != "doc text" {
		t.Error("stripping meta must keep the text")
	}
}

func TestFlattenText(t *testing.T) {
	parts := []Part{
		TextPart("one"),
		ImagePart("data:image/png;base64,X"),
		TextPart("two"),
		TextPart(""),
	}
	if got := FlattenText(parts); got != "one\ntwo" {
		t.Errorf("FlattenText = %q", got)
	}
	if got := FlattenText(nil); got != "" {
		t.Errorf("FlattenText(nil) = %q", got)
	}
}
