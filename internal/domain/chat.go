package domain

import (
	"time"
)

// ChatMessage is one conversational turn.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is one bounded conversation. MessageCount mirrors len(Messages).
type ChatSession struct {
	ID           string        `json:"id"`
	Messages     []ChatMessage `json:"messages"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastActivity time.Time     `json:"lastActivity"`
	MessageCount int           `json:"messageCount"`
}

// Clone returns a copy of the session that shares no slice memory with s.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = append([]ChatMessage(nil), s.Messages...)
	return &c
}

// SessionStats summarizes a session for display.
type SessionStats struct {
	MessageCount int  `json:"messageCount"`
	Remaining    int  `json:"remainingMessages"`
	AgeMinutes   int  `json:"sessionAge"`
	IsNearLimit  bool `json:"isNearLimit"`
}
