package utils

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dockchat/llm"
)

// Attachment kinds, decided by extension before any encoding happens.
const (
	KindImage    = "image"
	KindPDF      = "pdf"
	KindAudio    = "audio"
	KindTextable = "textable"
)

// maxAttachmentSize caps what gets base64-embedded into a request.
const maxAttachmentSize = 10 * 1024 * 1024 // 10MB

var imageMimeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

var audioExts = map[string]bool{
	".wav": true,
	".mp3": true,
	".m4a": true,
	".aac": true,
}

// textableExts cover plain text, markup and code: anything whose
// content is submitted verbatim as a text part.
var textableExts = map[string]bool{
	".txt": true, ".text": true, ".log": true, ".md": true, ".markdown": true,
	".rst": true, ".tex": true, ".org": true, ".csv": true, ".tsv": true,
	".json": true, ".jsonl": true, ".json5": true, ".yaml": true, ".yml": true,
	".toml": true, ".ini": true, ".cfg": true, ".conf": true, ".env": true,
	".xml": true, ".html": true, ".htm": true, ".svg": true, ".css": true,
	".scss": true, ".less": true,
	".js": true, ".mjs": true, ".jsx": true, ".ts": true, ".tsx": true,
	".vue": true, ".svelte": true,
	".py": true, ".rb": true, ".php": true, ".pl": true, ".lua": true,
	".r": true, ".jl": true, ".go": true, ".rs": true,
	".java": true, ".kt": true, ".kts": true, ".scala": true, ".groovy": true,
	".c": true, ".h": true, ".cpp": true, ".cxx": true, ".cc": true,
	".hpp": true, ".m": true, ".mm": true, ".cs": true, ".vb": true,
	".fs": true, ".swift": true,
	".sql": true, ".graphql": true, ".proto": true,
	".sh": true, ".bash": true, ".zsh": true, ".ps1": true, ".bat": true,
	".hcl": true, ".tf": true, ".nix": true, ".cmake": true, ".mk": true,
	".diff": true, ".patch": true,
}

// officeExts need text extraction by an external tool before they can
// be attached; they are recognized so the error can say so.
var officeExts = map[string]bool{
	".docx": true, ".xlsx": true, ".pptx": true,
}

// DetectKind classifies a filename into an attachment kind.
func DetectKind(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case imageMimeByExt[ext] != "":
		return KindImage, nil
	case ext == ".pdf":
		return KindPDF, nil
	case audioExts[ext]:
		return KindAudio, nil
	case textableExts[ext]:
		return KindTextable, nil
	case officeExts[ext]:
		return "", fmt.Errorf("office document %q needs text extraction before attaching", filename)
	default:
		return "", fmt.Errorf("unsupported attachment type: %s", ext)
	}
}

// GuessAudioFormat maps a filename to its audio container format,
// defaulting to wav.
func GuessAudioFormat(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".mp3"):
		return "mp3"
	case strings.HasSuffix(lower, ".m4a"):
		return "m4a"
	case strings.HasSuffix(lower, ".aac"):
		return "aac"
	default:
		return "wav"
	}
}

// DataURL builds a base64 data URL for raw bytes.
func DataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// EncodeAttachment reads a local file and encodes it as the content
// part its kind dictates: images become image_url data URLs, PDFs file
// parts, audio input_audio parts, and textable files plain text parts
// tagged with presentation meta.
func EncodeAttachment(path string) (llm.Part, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return llm.Part{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return llm.Part{}, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.Size() > maxAttachmentSize {
		return llm.Part{}, fmt.Errorf("attachment too large: %d bytes (max %d)", info.Size(), maxAttachmentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return llm.Part{}, fmt.Errorf("failed to read attachment: %w", err)
	}
	name := filepath.Base(path)

	switch kind {
	case KindImage:
		mime := imageMimeByExt[strings.ToLower(filepath.Ext(name))]
		return llm.ImagePart(DataURL(mime, data)), nil
	case KindPDF:
		return llm.FilePart(name, DataURL("application/pdf", data)), nil
	case KindAudio:
		return llm.AudioPart(base64.StdEncoding.EncodeToString(data), GuessAudioFormat(name)), nil
	default:
		return llm.TextablePart(string(data), name), nil
	}
}

// FormatFileSize formats a byte count for display.
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
