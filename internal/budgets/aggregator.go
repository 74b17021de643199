// Package budgets computes spending progress against per-category budgets.
// Everything here is pure: the period comes from the budget's anchor date,
// never from the wall clock, so identical inputs give identical results.
package budgets

import (
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/models"
	"budget/internal/money"
)

const (
	AlertNone    = "none"
	AlertWarning = "warning"
	AlertOver    = "over"
)

// DefaultThreshold is the warning ratio used when the caller does not
// configure one.
var DefaultThreshold = decimal.New(9, -1)

type Progress struct {
	BudgetID       string          `json:"budget_id"`
	CategoryID     string          `json:"category_id"`
	LimitMinor     int64           `json:"limit_minor"`
	Currency       string          `json:"currency"`
	SpentMinor     int64           `json:"spent_minor"`
	RemainingMinor int64           `json:"remaining_minor"`
	Ratio          decimal.Decimal `json:"ratio"`
	AlertType      string          `json:"alert_type"`
}

type Alert struct {
	BudgetID   string          `json:"budget_id"`
	CategoryID string          `json:"category_id"`
	AlertType  string          `json:"alert_type"`
	Ratio      decimal.Decimal `json:"ratio"`
	SpentMinor int64           `json:"spent_minor"`
	LimitMinor int64           `json:"limit_minor"`
	Currency   string          `json:"currency"`
	Message    string          `json:"message"`
}

// PeriodBounds truncates the budget anchor to its month: [start, end) where
// end is the first instant of the next month.
func PeriodBounds(startsOn time.Time) (time.Time, time.Time) {
	start := time.Date(startsOn.Year(), startsOn.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// ComputeProgress sums the absolute outflows in the budget's category and
// period. Inflows in the same category (refunds) do not offset spend.
// remaining may go negative; ratio is defined as 0 when the limit is 0.
func ComputeProgress(budget models.Budget, transactions []models.Transaction, threshold decimal.Decimal) Progress {
	start, end := PeriodBounds(budget.StartsOn)
	var spent int64
	for _, tx := range transactions {
		if tx.CategoryID == nil || *tx.CategoryID != budget.CategoryID {
			continue
		}
		if tx.Date.Before(start) || !tx.Date.Before(end) {
			continue
		}
		if tx.AmountMinor < 0 {
			spent += -tx.AmountMinor
		}
	}
	ratio := decimal.Zero
	if budget.LimitMinor > 0 {
		ratio = decimal.NewFromInt(spent).Div(decimal.NewFromInt(budget.LimitMinor))
	}
	return Progress{
		BudgetID:       budget.ID,
		CategoryID:     budget.CategoryID,
		LimitMinor:     budget.LimitMinor,
		Currency:       budget.Currency,
		SpentMinor:     spent,
		RemainingMinor: budget.LimitMinor - spent,
		Ratio:          ratio,
		AlertType:      classify(ratio, threshold),
	}
}

// ListAlerts applies ComputeProgress to each active budget and keeps the
// ones at or above the threshold.
func ListAlerts(budgets []models.Budget, transactions []models.Transaction, threshold decimal.Decimal) []Alert {
	var alerts []Alert
	for _, budget := range budgets {
		if !budget.Active {
			continue
		}
		progress := ComputeProgress(budget, transactions, threshold)
		if progress.AlertType == AlertNone {
			continue
		}
		alerts = append(alerts, Alert{
			BudgetID:   progress.BudgetID,
			CategoryID: progress.CategoryID,
			AlertType:  progress.AlertType,
			Ratio:      progress.Ratio,
			SpentMinor: progress.SpentMinor,
			LimitMinor: progress.LimitMinor,
			Currency:   progress.Currency,
			Message:    alertMessage(progress),
		})
	}
	return alerts
}

func classify(ratio, threshold decimal.Decimal) string {
	one := decimal.NewFromInt(1)
	switch {
	case ratio.GreaterThanOrEqual(one):
		return AlertOver
	case ratio.GreaterThanOrEqual(threshold):
		return AlertWarning
	default:
		return AlertNone
	}
}

func alertMessage(progress Progress) string {
	spent := money.FormatMinor(progress.SpentMinor)
	limit := money.FormatMinor(progress.LimitMinor)
	if progress.AlertType == AlertOver {
		return "Budget exceeded: spent " + spent + " of " + limit + " " + progress.Currency
	}
	return "Budget near its limit: spent " + spent + " of " + limit + " " + progress.Currency
}
