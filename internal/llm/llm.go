// Package llm is the text-generation boundary: a small Client interface,
// an OpenAI-compatible implementation, and a token counter used to keep
// prompts inside the model's context window.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tbourn/go-coach-sim/internal/config"
)

// Roles of a chat turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrNoAPIKey is returned by Unavailable for every call.
	ErrNoAPIKey = errors.New("llm: no API key configured")
	// ErrEmptyResponse means the provider answered without any choice.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// Request is a chat completion request. System is sent first.
type Request struct {
	System   string
	Messages []Message
}

// Client produces the next assistant turn.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Pinger checks that the provider is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpenAI talks to an OpenAI-compatible chat-completions endpoint.
type OpenAI struct {
	client           *openai.Client
	model            string
	maxTokens        int
	temperature      float32
	presencePenalty  float32
	frequencyPenalty float32
}

// NewOpenAI builds a client from cfg. The HTTP client enforces cfg.Timeout
// per request.
func NewOpenAI(cfg config.LLMConfig) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if u := strings.TrimSpace(cfg.BaseURL); u != "" {
		oc.BaseURL = strings.TrimRight(u, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &OpenAI{
		client:           openai.NewClientWithConfig(oc),
		model:            cfg.Model,
		maxTokens:        cfg.MaxTokens,
		temperature:      float32(cfg.Temperature),
		presencePenalty:  float32(cfg.PresencePenalty),
		frequencyPenalty: float32(cfg.FrequencyPenalty),
	}
}

// New returns an OpenAI client, or Unavailable when no API key is set.
func New(cfg config.LLMConfig) Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Unavailable{}
	}
	return NewOpenAI(cfg)
}

// Complete sends req and returns the first choice's content.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:            o.model,
		Messages:         msgs,
		MaxTokens:        o.maxTokens,
		Temperature:      o.temperature,
		PresencePenalty:  o.presencePenalty,
		FrequencyPenalty: o.frequencyPenalty,
	})
	if err != nil {
		return "", fmt.Errorf("llm: chat completion (%s) after %s: %w", o.model, time.Since(start).Round(time.Millisecond), err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Ping lists the provider's models.
func (o *OpenAI) Ping(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return fmt.Errorf("llm: list models: %w", err)
	}
	return nil
}

// Unavailable is the Client used when no API key is configured.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, Request) (string, error) { return "", ErrNoAPIKey }

func (Unavailable) Ping(context.Context) error { return ErrNoAPIKey }
