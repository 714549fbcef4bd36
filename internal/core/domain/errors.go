package domain

import "errors"

// ErrorKind groups domain errors by how a caller is expected to react.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindNotFound    ErrorKind = "not_found"
	KindConflict    ErrorKind = "conflict"
	KindPermission  ErrorKind = "permission"
	KindPersistence ErrorKind = "persistence"
)

// Error is a typed domain failure carrying a stable reason code.
// Sentinels are compared by identity, so wrapping with %w keeps errors.Is working.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrDuplicateEmail         = newError(KindConflict, "duplicate_email", "email already registered")
	ErrWeakPassword           = newError(KindValidation, "weak_password", "password must be at least 6 characters")
	ErrPasswordTooLong        = newError(KindValidation, "password_too_long", "password must be at most 72 bytes")
	ErrPasswordUnusable       = newError(KindValidation, "password_unusable", "password cannot be stored")
	ErrInvalidTelegramHandle  = newError(KindValidation, "invalid_telegram_handle", "telegram handle must start with @")
	ErrMissingField           = newError(KindValidation, "missing_field", "required field is empty")
	ErrPromptLengthOutOfRange = newError(KindValidation, "prompt_length_out_of_range", "prompt must be between 300 and 2500 characters")
	ErrBudgetTooLow           = newError(KindValidation, "budget_too_low", "budget is below the minimum")
	ErrDeadlineTooShort       = newError(KindValidation, "deadline_too_short", "deadline is below the minimum")
	ErrInvalidProjectType     = newError(KindValidation, "invalid_project_type", "project type must be static or dynamic")
	ErrEmptyMessage           = newError(KindValidation, "invalid_message", "message text must be 1-4000 characters")

	ErrClientNotFound   = newError(KindNotFound, "client_not_found", "client not found")
	ErrExecutorNotFound = newError(KindNotFound, "executor_not_found", "executor not found")
	ErrOrderNotFound    = newError(KindNotFound, "order_not_found", "order not found")

	ErrAlreadyAssigned   = newError(KindConflict, "already_assigned", "order already assigned")
	ErrInvalidTransition = newError(KindConflict, "invalid_transition", "invalid status transition")

	ErrNotAnExecutor      = newError(KindPermission, "not_an_executor", "actor is not an executor")
	ErrNotPermitted       = newError(KindPermission, "not_permitted", "action not permitted")
	ErrInvalidCredentials = newError(KindPermission, "invalid_credentials", "invalid credentials")

	// ErrSyncPending means the mutation was applied and saved locally but the
	// remote copy is behind. The accompanying result is valid.
	ErrSyncPending = newError(KindPersistence, "sync_pending", "saved locally, remote sync pending")
	// ErrPersistence means the mutation was applied in memory only.
	ErrPersistence = newError(KindPersistence, "persistence_failed", "snapshot could not be persisted")
)

// KindOf returns the kind of the first domain error in err's chain, or "" when none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// CodeOf returns the reason code of the first domain error in err's chain.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsApplied reports whether err still leaves the command's mutation in place.
func IsApplied(err error) bool {
	return err == nil || KindOf(err) == KindPersistence
}
