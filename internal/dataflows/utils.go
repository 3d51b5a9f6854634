package dataflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/utils"
)

// providerRetry is the backoff used for upstream HTTP calls. Client errors
// other than 429 are not retried.
func providerRetry() *utils.RetryConfig {
	cfg := utils.DefaultRetryConfig()
	cfg.MaxRetries = 2
	cfg.Retryable = func(err error) bool {
		var se *statusError
		if errors.As(err, &se) {
			return se.code == 429 || se.code >= 500
		}
		return true
	}
	return cfg
}

func withRetry(ctx context.Context, fn func() error) error {
	return utils.WithRetry(ctx, providerRetry(), fn)
}

// statusError is a non-200 upstream response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	body := e.body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("API error %d: %s", e.code, body)
}

// ValidateSymbol checks if a stock symbol is valid format
func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if len(symbol) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 12 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	return nil
}

// NormalizeSymbol converts symbol to standard format
func NormalizeSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}

// ParseDateString parses common date formats
func ParseDateString(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"01/02/2006",
		"01-02-2006",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
