package llm

import (
	"strings"
	"sync"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// Encoding is the tokenizer used for prompt budgeting.
const Encoding = "cl100k_base"

// TokenCounter counts prompt tokens with tiktoken, falling back to a
// heuristic when the encoding cannot be loaded.
type TokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	load func() (*tiktoken.Tiktoken, error)
}

// NewTokenCounter returns a counter that loads the encoding on first use.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{load: func() (*tiktoken.Tiktoken, error) { return tiktoken.GetEncoding(Encoding) }}
}

// EstimateTokens is max(runes/4, words), at least 1 for non-blank text.
func EstimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	n := max(utf8.RuneCountInString(trimmed)/4, len(strings.Fields(trimmed)))
	return max(n, 1)
}

func (t *TokenCounter) encoding() *tiktoken.Tiktoken {
	t.once.Do(func() {
		if t.load == nil {
			return
		}
		enc, err := t.load()
		if err != nil {
			log.Warn().Err(err).Str("encoding", Encoding).Msg("llm: tokenizer unavailable, estimating")
			return
		}
		t.enc = enc
	})
	return t.enc
}

// Count returns the number of tokens in text.
func (t *TokenCounter) Count(text string) int {
	if enc := t.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return EstimateTokens(text)
}

// perMessageOverhead approximates the role and separator tokens of a turn.
const perMessageOverhead = 4

// FitHistory drops the oldest turns of history until system plus history
// fits in budget tokens. The returned slice shares history's backing array.
func (t *TokenCounter) FitHistory(system string, history []Message, budget int) []Message {
	if budget <= 0 {
		return history
	}
	total := t.Count(system)
	costs := make([]int, len(history))
	for i, m := range history {
		costs[i] = t.Count(m.Content) + perMessageOverhead
		total += costs[i]
	}
	start := 0
	for total > budget && start < len(history) {
		total -= costs[start]
		start++
	}
	return history[start:]
}
