package validator

import (
	"errors"
	"regexp"
	"time"

	"budget/internal/models"
)

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidLimit    = errors.New("budget limit must be positive")
	ErrInvalidPeriod   = errors.New("unsupported budget period")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrMissingCategory = errors.New("category is required")
	ErrInvalidStartsOn = errors.New("invalid starts_on date")
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

// ValidateBudget rejects malformed budgets before they reach the aggregator,
// which assumes well-formed input.
func ValidateBudget(categoryID, period, currency string, limitMinor int64, startsOn time.Time) error {
	if categoryID == "" {
		return ErrMissingCategory
	}
	if period != models.PeriodMonth {
		return ErrInvalidPeriod
	}
	if limitMinor <= 0 {
		return ErrInvalidLimit
	}
	if !currencyRegex.MatchString(currency) {
		return ErrInvalidCurrency
	}
	if startsOn.IsZero() {
		return ErrInvalidStartsOn
	}
	return nil
}
