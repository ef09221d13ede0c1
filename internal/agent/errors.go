package agent

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error the Service returns wraps one of these.
var (
	ErrContentUnavailable = errors.New("portfolio content unavailable")
	ErrCredentialMissing  = errors.New("assistant API key is missing")
	ErrLimitReached       = errors.New("message limit reached")
	ErrBackend            = errors.New("assistant backend error")
	ErrNotReady           = errors.New("assistant session not ready")
	ErrBusy               = errors.New("assistant is already replying")
)

// Fixed visitor-facing messages.
const (
	msgContentUnavailable = "Failed to load portfolio data. Please refresh the page."
	msgCredentialMissing  = "Configuration error: API key is missing. Please check your setup and restart the server."
	msgLimitReached       = "Message limit reached (%d messages). Please start a new session."
	msgBackend            = "Sorry, I encountered an error. Please try again."
	msgNotReady           = "The assistant is not ready. Please open a chat session first."
	msgBusy               = "Please wait for the current reply to finish."
)

// LimitError reports the ceiling that was hit.
type LimitError struct {
	Max int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("message limit reached (%d messages)", e.Max)
}

// Unwrap lets errors.Is match ErrLimitReached.
func (e *LimitError) Unwrap() error { return ErrLimitReached }

// UserMessage maps err onto the fixed message shown to the visitor.
// Raw transport errors never leak through.
func UserMessage(err error) string {
	var limit *LimitError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &limit):
		return fmt.Sprintf(msgLimitReached, limit.Max)
	case errors.Is(err, ErrLimitReached):
		return fmt.Sprintf(msgLimitReached, 0)
	case errors.Is(err, ErrCredentialMissing):
		return msgCredentialMissing
	case errors.Is(err, ErrContentUnavailable):
		return msgContentUnavailable
	case errors.Is(err, ErrNotReady):
		return msgNotReady
	case errors.Is(err, ErrBusy):
		return msgBusy
	default:
		return msgBackend
	}
}
