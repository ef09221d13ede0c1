package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
)

// ConversationLogConfig controls transcript logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// ConversationLogEvent is one NDJSON transcript line.
type ConversationLogEvent struct {
	Timestamp  string         `json:"ts"`
	VisitorID  string         `json:"visitor_id"`
	SessionID  string         `json:"session_id"`
	Channel    string         `json:"channel"`
	Direction  string         `json:"direction"`
	EventType  string         `json:"event_type"`
	ContentRaw string         `json:"content_raw,omitempty"`
	Content    string         `json:"content,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// ConversationLogger records assistant transcripts.
type ConversationLogger interface {
	Log(event ConversationLogEvent)
	Close() error
}

type noopConversationLogger struct{}

func (noopConversationLogger) Log(ConversationLogEvent) {}
func (noopConversationLogger) Close() error             { return nil }

var (
	ansiPattern     = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	spacePattern    = regexp.MustCompile(`[ \t]+`)
	pathSafePattern = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// cleanForReadability strips escape sequences and collapses runs of blanks.
func cleanForReadability(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func safePathComponent(s string) string {
	s = pathSafePattern.ReplaceAllString(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}

type fileConversationLogger struct {
	cfg    ConversationLogConfig
	logger *slog.Logger
	queue  chan ConversationLogEvent
	done   chan struct{}

	closeOnce sync.Once
	dropped   atomic.Int64
}

// NewConversationLogger starts a logger that writes one NDJSON file per visitor
// session under cfg.Dir, plus an optional combined file. Events are written by
// a single goroutine; when its queue is full new events are dropped.
func NewConversationLogger(cfg ConversationLogConfig, logger *slog.Logger) (ConversationLogger, error) {
	if !cfg.Enabled {
		return noopConversationLogger{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversation log dir: %w", err)
	}
	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0o755); err != nil {
			return nil, fmt.Errorf("create global conversation log dir: %w", err)
		}
	}

	l := &fileConversationLogger{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan ConversationLogEvent, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func (l *fileConversationLogger) Log(event ConversationLogEvent) {
	if event.Content == "" && event.ContentRaw != "" {
		event.Content = cleanForReadability(event.ContentRaw)
	}
	select {
	case l.queue <- event:
	default:
		if n := l.dropped.Add(1); n == 1 || n%100 == 0 {
			l.logger.Warn("Conversation log queue full, dropping events", "dropped", n)
		}
	}
}

func (l *fileConversationLogger) Close() error {
	l.closeOnce.Do(func() {
		close(l.queue)
	})
	<-l.done
	return nil
}

func (l *fileConversationLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		line, err := json.Marshal(event)
		if err != nil {
			l.logger.Warn("Failed to encode conversation event", "error", err)
			continue
		}
		line = append(line, '\n')

		dir := filepath.Join(l.cfg.Dir, safePathComponent(event.VisitorID))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			l.logger.Warn("Failed to create conversation log dir", "error", err)
			continue
		}
		l.appendLine(filepath.Join(dir, safePathComponent(event.SessionID)+".ndjson"), line)
		if l.cfg.GlobalEnabled {
			l.appendLine(l.cfg.GlobalPath, line)
		}
	}
}

func (l *fileConversationLogger) appendLine(path string, line []byte) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l.logger.Warn("Failed to open conversation log", "path", path, "error", err)
		return
	}
	if _, err := f.Write(line); err != nil {
		l.logger.Warn("Failed to write conversation log", "path", path, "error", err)
	}
	if err := f.Close(); err != nil {
		l.logger.Warn("Failed to close conversation log", "path", path, "error", err)
	}
}
