package budgets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/models"
)

func marchBudget(limitMinor int64) models.Budget {
	return models.Budget{
		ID:         "budget-1",
		UserID:     "user-1",
		CategoryID: "groceries",
		Period:     models.PeriodMonth,
		LimitMinor: limitMinor,
		Currency:   "EUR",
		StartsOn:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Active:     true,
	}
}

func tx(category string, amountMinor int64, date time.Time) models.Transaction {
	t := models.Transaction{
		UserID:      "user-1",
		AmountMinor: amountMinor,
		Currency:    "EUR",
		Date:        date,
	}
	if category != "" {
		t.CategoryID = &category
	}
	return t
}

func TestComputeProgressScenario(t *testing.T) {
	budget := marchBudget(20000)
	transactions := []models.Transaction{
		tx("groceries", -5000, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
		tx("groceries", -6000, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)),
		tx("rent", -99900, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)),
	}
	progress := ComputeProgress(budget, transactions, DefaultThreshold)
	if progress.SpentMinor != 11000 {
		t.Fatalf("spent = %d, want 11000", progress.SpentMinor)
	}
	if progress.RemainingMinor != 9000 {
		t.Fatalf("remaining = %d, want 9000", progress.RemainingMinor)
	}
	if !progress.Ratio.Equal(decimal.RequireFromString("0.55")) {
		t.Fatalf("ratio = %s, want 0.55", progress.Ratio)
	}
	if progress.AlertType != AlertNone {
		t.Fatalf("alert = %s, want none", progress.AlertType)
	}
}

func TestComputeProgressWarningAtNinetyFivePercent(t *testing.T) {
	budget := marchBudget(20000)
	transactions := []models.Transaction{
		tx("groceries", -19000, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)),
	}
	progress := ComputeProgress(budget, transactions, DefaultThreshold)
	if !progress.Ratio.Equal(decimal.RequireFromString("0.95")) {
		t.Fatalf("ratio = %s, want 0.95", progress.Ratio)
	}
	if progress.AlertType != AlertWarning {
		t.Fatalf("alert = %s, want warning", progress.AlertType)
	}
}

func TestComputeProgressOverBudget(t *testing.T) {
	budget := marchBudget(20000)
	transactions := []models.Transaction{
		tx("groceries", -25000, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
	}
	progress := ComputeProgress(budget, transactions, DefaultThreshold)
	if progress.RemainingMinor != -5000 {
		t.Fatalf("remaining = %d, want -5000", progress.RemainingMinor)
	}
	if progress.AlertType != AlertOver {
		t.Fatalf("alert = %s, want over", progress.AlertType)
	}
}

func TestComputeProgressZeroLimitNeverDivides(t *testing.T) {
	budget := marchBudget(0)
	transactions := []models.Transaction{
		tx("groceries", -5000, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
	}
	progress := ComputeProgress(budget, transactions, DefaultThreshold)
	if !progress.Ratio.IsZero() {
		t.Fatalf("ratio = %s, want 0", progress.Ratio)
	}
}

func TestComputeProgressSpentNeverNegative(t *testing.T) {
	budget := marchBudget(20000)
	transactions := []models.Transaction{
		tx("groceries", 5000, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
		tx("groceries", 12000, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)),
	}
	progress := ComputeProgress(budget, transactions, DefaultThreshold)
	if progress.SpentMinor != 0 {
		t.Fatalf("spent = %d, want 0 (inflows never offset)", progress.SpentMinor)
	}
}

func TestComputeProgressRefundDoesNotOffset(t *testing.T) {
	budget := marchBudget(20000)
	transactions := []models.Transaction{
		tx("groceries", -10000, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
		tx("groceries", 4000, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)),
	}
	progress := ComputeProgress(budget, transactions, DefaultThreshold)
	if progress.SpentMinor != 10000 {
		t.Fatalf("spent = %d, want 10000", progress.SpentMinor)
	}
}

func TestComputeProgressPeriodBoundsExclusive(t *testing.T) {
	budget := marchBudget(20000)
	transactions := []models.Transaction{
		tx("groceries", -1000, time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)),
		tx("groceries", -2000, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		tx("groceries", -4000, time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)),
		tx("groceries", -8000, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)),
	}
	progress := ComputeProgress(budget, transactions, DefaultThreshold)
	if progress.SpentMinor != 6000 {
		t.Fatalf("spent = %d, want 6000 (period is [start, nextMonth))", progress.SpentMinor)
	}
}

func TestComputeProgressUncategorizedIgnored(t *testing.T) {
	budget := marchBudget(20000)
	transactions := []models.Transaction{
		tx("", -5000, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
	}
	progress := ComputeProgress(budget, transactions, DefaultThreshold)
	if progress.SpentMinor != 0 {
		t.Fatalf("spent = %d, want 0", progress.SpentMinor)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	threshold := decimal.RequireFromString("0.9")
	cases := []struct {
		ratio string
		want  string
	}{
		{"0.89", AlertNone},
		{"0.9", AlertWarning},
		{"0.99", AlertWarning},
		{"1", AlertOver},
		{"1.5", AlertOver},
	}
	for _, tc := range cases {
		got := classify(decimal.RequireFromString(tc.ratio), threshold)
		if got != tc.want {
			t.Fatalf("classify(%s) = %s, want %s", tc.ratio, got, tc.want)
		}
	}
}

func TestListAlertsSkipsInactiveAndQuietBudgets(t *testing.T) {
	over := marchBudget(10000)
	over.ID = "budget-over"
	quiet := marchBudget(100000)
	quiet.ID = "budget-quiet"
	quiet.CategoryID = "entertainment"
	inactive := marchBudget(100)
	inactive.ID = "budget-inactive"
	inactive.Active = false

	transactions := []models.Transaction{
		tx("groceries", -12000, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
		tx("entertainment", -2000, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)),
	}
	alerts := ListAlerts([]models.Budget{over, quiet, inactive}, transactions, DefaultThreshold)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].BudgetID != "budget-over" || alerts[0].AlertType != AlertOver {
		t.Fatalf("unexpected alert: %#v", alerts[0])
	}
	if alerts[0].Message == "" {
		t.Fatalf("expected a message")
	}
}

func TestAlertMessagesDistinguishOverFromWarning(t *testing.T) {
	budget := marchBudget(10000)
	overTx := []models.Transaction{tx("groceries", -15000, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))}
	warnTx := []models.Transaction{tx("groceries", -9500, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))}

	overAlerts := ListAlerts([]models.Budget{budget}, overTx, DefaultThreshold)
	warnAlerts := ListAlerts([]models.Budget{budget}, warnTx, DefaultThreshold)
	if len(overAlerts) != 1 || len(warnAlerts) != 1 {
		t.Fatalf("expected one alert each")
	}
	if overAlerts[0].Message == warnAlerts[0].Message {
		t.Fatalf("over and warning messages must differ")
	}
}
