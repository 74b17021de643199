package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"budget/internal/budgets"
)

func TestNewWithoutKeyDisables(t *testing.T) {
	client := New("", "", "gpt-4o-mini")
	if client != nil {
		t.Fatal("expected nil client without an API key")
	}
	if _, err := client.Advise(context.Background(), "how am I doing?", nil); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestFormatPromptIncludesProgress(t *testing.T) {
	prompt := formatPrompt("can I afford a holiday?", []budgets.Progress{
		{
			CategoryID: "groceries",
			SpentMinor: 9500,
			LimitMinor: 10000,
			Currency:   "EUR",
			Ratio:      decimal.New(95, -2),
			AlertType:  budgets.AlertWarning,
		},
	})
	for _, want := range []string{"95.00", "100.00", "EUR", "95%", "warning", "can I afford a holiday?"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestFormatPromptEmptyBudgets(t *testing.T) {
	prompt := formatPrompt("where does my money go?", nil)
	if !strings.Contains(prompt, "no active budgets") {
		t.Fatalf("prompt should say there are no budgets:\n%s", prompt)
	}
}
