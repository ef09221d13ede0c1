package domain

import (
	"time"
)

// Visitor is an anonymous browser identified by its cookie id.
type Visitor struct {
	VisitorID  string    `json:"visitor_id"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// ContactMessage is a validated contact form submission.
type ContactMessage struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	VisitorID   string    `json:"-"`
	SubmittedAt time.Time `json:"submitted_at"`
}
