package utils

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates token counts for usage accounting. The
// tokenizer loads lazily; when unavailable (offline first run), a
// bytes/4 heuristic keeps the numbers plausible.
type TokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter creates an idle counter; nothing loads until the
// first Estimate call.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// Estimate returns the token count of text, zero for empty input.
func (t *TokenCounter) Estimate(text string) int {
	if text == "" {
		return 0
	}
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			t.enc = enc
		}
	})
	if t.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}
