// Package chat wraps the OpenAI-compatible completion API to answer
// free-form questions about the user's budgets. The model only ever sees
// aggregated progress figures, never raw transactions or tokens.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"budget/internal/budgets"
	"budget/internal/money"
)

var ErrDisabled = errors.New("advice is not configured")

type Client struct {
	client *openai.Client
	model  string
}

// New returns nil when no API key is configured; callers treat a nil client
// as the feature being off.
func New(apiKey, baseURL, model string) *Client {
	if apiKey == "" {
		return nil
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

const systemPrompt = `You are a personal budgeting assistant. You receive the user's
current budget progress and answer their question about spending. Be concrete
and brief. Suggest adjustments only when a budget is near or over its limit.
Never invent figures that are not in the provided summary.`

// Advise answers a question grounded on the current period's progress.
func (c *Client) Advise(ctx context.Context, question string, progress []budgets.Progress) (string, error) {
	if c == nil {
		return "", ErrDisabled
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: formatPrompt(question, progress),
			},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("advice request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

func formatPrompt(question string, progress []budgets.Progress) string {
	var sb strings.Builder
	sb.WriteString("Budget progress this period:\n")
	if len(progress) == 0 {
		sb.WriteString("(no active budgets)\n")
	}
	hundred := decimal.NewFromInt(100)
	for _, p := range progress {
		fmt.Fprintf(&sb, "- category %s: spent %s of %s %s (%s%% of limit, status %s)\n",
			p.CategoryID,
			money.FormatMinor(p.SpentMinor),
			money.FormatMinor(p.LimitMinor),
			p.Currency,
			p.Ratio.Mul(hundred).StringFixed(0),
			p.AlertType,
		)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}
