package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
	MinPromptLength  = 300
	MaxPromptLength  = 2500
	MaxMessageLength = 4000

	DefaultMinBudget       = 500
	DefaultMinDeadlineDays = 3
)

// Limits holds the configurable order-creation thresholds.
type Limits struct {
	MinBudget       int64
	MinDeadlineDays int
}

// DefaultLimits returns the canonical thresholds.
func DefaultLimits() Limits {
	return Limits{MinBudget: DefaultMinBudget, MinDeadlineDays: DefaultMinDeadlineDays}
}

// Registration carries the raw fields of a client sign-up form.
type Registration struct {
	Name     string
	Email    string
	Phone    string
	Telegram string
	Password string
}

// OrderDraft carries the raw fields of an order form.
type OrderDraft struct {
	ProjectName string
	ProjectType ProjectType
	Budget      int64
	Deadline    int
	Prompt      string
}

// NormalizeEmail is the canonical form used for uniqueness and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateClientRegistration checks a sign-up in a fixed order:
// required fields, email uniqueness, password strength, telegram handle.
// The first failing check is returned.
func ValidateClientRegistration(in Registration, emailTaken func(email string) bool) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	email := NormalizeEmail(in.Email)
	if email == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if emailTaken != nil && emailTaken(email) {
		return ErrDuplicateEmail
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(in.Password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	if !strings.HasPrefix(strings.TrimSpace(in.Telegram), "@") {
		return ErrInvalidTelegramHandle
	}
	return nil
}

// ValidateOrderCreation checks an order draft in a fixed order:
// project name, prompt length, budget, deadline, project type.
func ValidateOrderCreation(in OrderDraft, limits Limits) error {
	if strings.TrimSpace(in.ProjectName) == "" {
		return fmt.Errorf("%w: project_name", ErrMissingField)
	}
	if n := utf8.RuneCountInString(in.Prompt); n < MinPromptLength || n > MaxPromptLength {
		return fmt.Errorf("%w (got %d)", ErrPromptLengthOutOfRange, n)
	}
	if in.Budget < limits.MinBudget {
		return fmt.Errorf("%w (minimum %d)", ErrBudgetTooLow, limits.MinBudget)
	}
	if in.Deadline < limits.MinDeadlineDays {
		return fmt.Errorf("%w (minimum %d days)", ErrDeadlineTooShort, limits.MinDeadlineDays)
	}
	if !in.ProjectType.Valid() {
		return ErrInvalidProjectType
	}
	return nil
}

// ValidateMessageText checks a chat message after trimming.
func ValidateMessageText(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n == 0 || n > MaxMessageLength {
		return ErrEmptyMessage
	}
	return nil
}
