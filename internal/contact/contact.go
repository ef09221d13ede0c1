// Package contact validates contact form submissions and hands them to a
// delivery collaborator.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ashureev/portfolio/internal/domain"
)

// Fixed messages shown to the visitor.
const (
	MsgMissingFields = "Please fill in all fields"
	MsgInvalidEmail  = "Please enter a valid email address"
	MsgSent          = "Thank you for your message! I'll get back to you soon."
	MsgFailed        = "Something went wrong. Please try again."
)

var (
	// ErrMissingFields is returned when name, email or message is empty.
	ErrMissingFields = errors.New(MsgMissingFields)
	// ErrInvalidEmail is returned when the email is not shaped like one.
	ErrInvalidEmail = errors.New(MsgInvalidEmail)
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Submission is the body of POST /api/contact.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate checks that every field is present and the email has a basic shape.
// Fields are compared after trimming surrounding whitespace.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Email) == "" || strings.TrimSpace(s.Message) == "" {
		return ErrMissingFields
	}
	if !emailPattern.MatchString(strings.TrimSpace(s.Email)) {
		return ErrInvalidEmail
	}
	return nil
}

// Mailer delivers a validated message. Its transport is opaque to this package.
type Mailer interface {
	Deliver(ctx context.Context, msg *domain.ContactMessage) error
}

// Outbox persists messages for later delivery.
type Outbox interface {
	SaveContactMessage(ctx context.Context, msg *domain.ContactMessage) error
}

// OutboxMailer delivers by appending to a durable outbox.
type OutboxMailer struct {
	outbox Outbox
}

// NewOutboxMailer creates a mailer writing to outbox.
func NewOutboxMailer(outbox Outbox) *OutboxMailer {
	return &OutboxMailer{outbox: outbox}
}

// Deliver implements Mailer.
func (m *OutboxMailer) Deliver(ctx context.Context, msg *domain.ContactMessage) error {
	if err := m.outbox.SaveContactMessage(ctx, msg); err != nil {
		return fmt.Errorf("queue contact message: %w", err)
	}
	return nil
}

// Service accepts contact submissions.
type Service struct {
	mailer Mailer
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a contact service.
func NewService(mailer Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{mailer: mailer, now: time.Now, logger: logger}
}

// Submit validates sub and hands it to the mailer. Validation errors are
// ErrMissingFields or ErrInvalidEmail; anything else is a delivery failure.
func (s *Service) Submit(ctx context.Context, sub Submission, visitorID string) (*domain.ContactMessage, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	msg := &domain.ContactMessage{
		Name:        strings.TrimSpace(sub.Name),
		Email:       strings.TrimSpace(sub.Email),
		Message:     strings.TrimSpace(sub.Message),
		VisitorID:   visitorID,
		SubmittedAt: s.now(),
	}
	if err := s.mailer.Deliver(ctx, msg); err != nil {
		s.logger.Error("Failed to deliver contact message", "visitor_id", visitorID, "error", err)
		return nil, err
	}

	s.logger.Info("Contact message accepted", "visitor_id", visitorID, "message_length", len(msg.Message))
	return msg, nil
}

// IsValidationError reports whether err was caused by the visitor's input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFields) || errors.Is(err, ErrInvalidEmail)
}
