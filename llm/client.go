package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the OpenRouter-compatible API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// titleTimeout bounds the background title-generation request.
const titleTimeout = 30 * time.Second

// Publisher is the event-bus surface the client emits on.
type Publisher interface {
	Publish(channel string, payload any)
}

// Logger is the logging surface the client needs.
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// Client invokes the chat-completions backend and bridges its streamed
// output onto the event bus. Responses are never returned to the caller
// directly; consumers subscribe to the stream channels.
type Client struct {
	baseURL string
	http    *http.Client
	bus     Publisher
	logger  Logger
}

// NewClient creates a backend client. baseURL falls back to the
// OpenRouter default when empty.
func NewClient(baseURL string, bus Publisher, logger Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		bus:     bus,
		logger:  logger,
	}
}

// StreamRequest is one streaming chat invocation.
type StreamRequest struct {
	// Turn tags every emitted event so consumers can drop chunks that
	// belong to an abandoned turn.
	Turn string
	// ConversationID is the createTime of the conversation the turn
	// belongs to; title events carry it back.
	ConversationID int64
	Model          string
	Token          string
	Messages       []ChatMessage
}

// streamBody is the outbound request JSON.
type streamBody struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// streamChunk is the subset of an SSE data line we consume.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Images  []struct {
				Type     string `json:"type"`
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"images"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamChat posts the history with stream=true and publishes each
// delta as a StreamEvent on stream-response, terminated by the "[DONE]"
// sentinel. Image deltas are published on stream-image. The call blocks
// until the stream ends; a returned error means the turn produced no
// terminal signal and the caller owns the failure handling.
//
// After the first exchange of a conversation completes, a background
// title request is spawned and its result published on
// update_chat_title.
func (c *Client) StreamChat(ctx context.Context, req StreamRequest) error {
	body, err := json.Marshal(streamBody{Model: req.Model, Messages: req.Messages, Stream: true})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	// First interaction carries exactly the system prompt and the
	// opening user message; that is when a title gets generated.
	firstInteraction := len(req.Messages) == 2

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == StreamDone {
			c.finishStream(req, firstInteraction)
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Debug("skipping malformed stream chunk: %v", err)
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			c.bus.Publish(ChannelStreamResponse, StreamEvent{Turn: req.Turn, Chunk: delta.Content})
		}
		for _, img := range delta.Images {
			if img.ImageURL.URL != "" {
				c.bus.Publish(ChannelStreamImage, ImageEvent{Turn: req.Turn, Done: true, DataURL: img.ImageURL.URL})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read error: %w", err)
	}

	// Stream ended without an explicit sentinel; emit the fallback.
	c.finishStream(req, firstInteraction)
	return nil
}

// finishStream publishes the terminal sentinel and kicks off title
// generation when this was the conversation's first exchange.
func (c *Client) finishStream(req StreamRequest, firstInteraction bool) {
	c.bus.Publish(ChannelStreamResponse, StreamEvent{Turn: req.Turn, Chunk: StreamDone})
	if firstInteraction {
		go c.fetchChatTitle(req)
	}
}

// titlePrompt asks for a short conversation title in the user's language.
const titlePrompt = "Please generate a short, descriptive title (maximum 7 words) for this conversation based on the user's question using user's language. Only return the title, no additional text."

// fetchChatTitle requests a title for the just-completed exchange and
// publishes the completion-shaped response on update_chat_title.
// Failures are logged and swallowed; titles are best effort.
func (c *Client) fetchChatTitle(req StreamRequest) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in title generation: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: FlattenText(m.Content)})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: "user", Content: titlePrompt})

	resp, err := c.openaiClient(req.Token).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	})
	if err != nil {
		c.logger.Warn("failed to generate chat title: %v", err)
		return
	}

	c.bus.Publish(ChannelUpdateChatTitle, TitleEvent{ConversationID: req.ConversationID, Response: resp})
}

// ListModels fetches the backend's model catalogue, newest first.
func (c *Client) ListModels(ctx context.Context, token string) ([]openai.Model, error) {
	list, err := c.openaiClient(token).ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	models := list.Models
	sort.SliceStable(models, func(i, j int) bool {
		return models[i].CreatedAt > models[j].CreatedAt
	})
	return models, nil
}

// openaiClient builds a go-openai client against our base URL. The
// token can change at runtime (settings), so clients are per call.
func (c *Client) openaiClient(token string) *openai.Client {
	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.http
	return openai.NewClientWithConfig(cfg)
}
