// Package inputval holds pure validation helpers for domain input. These
// run before any database work so a validation failure never has side
// effects.
package inputval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kolohq/kolo/internal/domain/models"
)

var (
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrAmountNotPositive   = errors.New("amount must be greater than zero")
)

// Amount checks that a money amount (minor units) is positive.
func Amount(amount int64) error {
	if amount <= 0 {
		return ErrAmountNotPositive
	}
	return nil
}

// Title checks a required title field.
func Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// PollInput validates a poll before creation: non-empty title and
// description, and between models.PollMinOptions and models.PollMaxOptions
// non-empty option texts. Returns the trimmed options on success.
func PollInput(title, description string, options []string) ([]string, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionRequired
	}

	trimmed := make([]string, 0, len(options))
	for _, opt := range options {
		if t := strings.TrimSpace(opt); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	if len(trimmed) < models.PollMinOptions {
		return nil, fmt.Errorf("at least %d non-empty options are required", models.PollMinOptions)
	}
	if len(trimmed) > models.PollMaxOptions {
		return nil, fmt.Errorf("at most %d options are allowed", models.PollMaxOptions)
	}
	return trimmed, nil
}
