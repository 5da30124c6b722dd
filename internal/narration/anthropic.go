package narration

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cory-johannsen/adventure/internal/game/session"
)

// Completer sends one conversation to a language model and returns the text
// of its reply.
type Completer interface {
	Complete(ctx context.Context, model, system string, msgs []session.Message) (string, error)
}

// AnthropicCompleter is a Completer backed by the Anthropic Messages API.
type AnthropicCompleter struct {
	client    anthropic.Client
	maxTokens int64
}

// NewAnthropicCompleter builds a completer authenticated with apiKey.
//
// Precondition: maxTokens > 0.
func NewAnthropicCompleter(apiKey string, maxTokens int64, opts ...option.RequestOption) *AnthropicCompleter {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicCompleter{
		client:    anthropic.NewClient(opts...),
		maxTokens: maxTokens,
	}
}

// Complete implements Completer.
func (a *AnthropicCompleter) Complete(ctx context.Context, model, system string, msgs []session.Message) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: a.maxTokens,
		Messages:  toMessageParams(msgs),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("narration: reply has no text content")
	}
	return b.String(), nil
}

// toMessageParams converts story history into the alternating user/assistant
// turns the Messages API requires. Consecutive messages from one role are
// merged, and a conversation that opens with the assistant gets a leading
// user turn.
func toMessageParams(msgs []session.Message) []anthropic.MessageParam {
	turns := mergeTurns(msgs)
	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(t.Content)
		if t.Role == roleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

func mergeTurns(msgs []session.Message) []session.Message {
	var turns []session.Message
	for _, m := range msgs {
		role := roleUser
		if m.Role == roleAssistant {
			role = roleAssistant
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Content += "\n\n" + m.Content
			continue
		}
		turns = append(turns, session.Message{Role: role, Content: m.Content})
	}
	if len(turns) == 0 || turns[0].Role != roleUser {
		turns = append([]session.Message{{Role: roleUser, Content: "Continue."}}, turns...)
	}
	return turns
}
