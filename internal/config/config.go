// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Content source kinds.
const (
	ContentSourceFile      = "file"
	ContentSourceFirestore = "firestore"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	DBPath         string
	LogLevel       slog.Level
	GRPCHealthAddr string // empty disables the gRPC health service
	SweepInterval  time.Duration

	Content         ContentConfig
	Gemini          GeminiConfig
	Chat            ChatConfig
	RateLimit       RateLimitConfig
	ConversationLog ConversationLogConfig
}

// ContentConfig selects and configures the portfolio document source.
type ContentConfig struct {
	Source string // "file" or "firestore"
	File   string
	Watch  bool

	FirestoreBaseURL    string
	FirestoreProjectID  string
	FirestoreAPIKey     string
	FirestoreCollection string
	FirestoreDocument   string
}

// GeminiConfig configures the assistant backend.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// ChatConfig bounds assistant conversations.
type ChatConfig struct {
	MaxMessages        int
	SessionTimeout     time.Duration
	MaxRequestBodySize int64
}

// RateLimitConfig throttles chat requests per visitor.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/portfolio.db"),
		LogLevel:       getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		GRPCHealthAddr: getEnv("GRPC_HEALTH_ADDR", ""),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),
		Content: ContentConfig{
			Source:              strings.ToLower(getEnv("CONTENT_SOURCE", ContentSourceFile)),
			File:                getEnv("CONTENT_FILE", "./data/portfolio.yaml"),
			Watch:               getEnvBool("CONTENT_WATCH", false),
			FirestoreBaseURL:    getEnv("FIRESTORE_BASE_URL", "https://firestore.googleapis.com"),
			FirestoreProjectID:  getEnv("FIRESTORE_PROJECT_ID", ""),
			FirestoreAPIKey:     getEnv("FIRESTORE_API_KEY", ""),
			FirestoreCollection: getEnv("FIRESTORE_COLLECTION", "portfolio"),
			FirestoreDocument:   getEnv("FIRESTORE_DOCUMENT", "main"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Chat: ChatConfig{
			MaxMessages:        getEnvInt("CHAT_MAX_MESSAGES", 30),
			SessionTimeout:     getEnvDuration("CHAT_SESSION_TIMEOUT", 24*time.Hour),
			MaxRequestBodySize: int64(getEnvInt("CHAT_MAX_BODY_BYTES", 1<<20)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("CHAT_RATE_LIMIT_REQUESTS", 10),
			WindowDuration:    getEnvDuration("CHAT_RATE_LIMIT_WINDOW", time.Minute),
		},
		ConversationLog: ConversationLogConfig{
			Enabled:       getEnvBool("CONVERSATION_LOG_ENABLED", true),
			Dir:           getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			GlobalEnabled: getEnvBool("CONVERSATION_LOG_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("CONVERSATION_LOG_GLOBAL_PATH", "./data/logs/conversations/all.ndjson"),
			QueueSize:     queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	switch c.Content.Source {
	case ContentSourceFile:
		if c.Content.File == "" {
			return fmt.Errorf("CONTENT_FILE cannot be empty when CONTENT_SOURCE=file")
		}
	case ContentSourceFirestore:
		if c.Content.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID cannot be empty when CONTENT_SOURCE=firestore")
		}
		if c.Content.FirestoreCollection == "" || c.Content.FirestoreDocument == "" {
			return fmt.Errorf("FIRESTORE_COLLECTION and FIRESTORE_DOCUMENT cannot be empty")
		}
	default:
		return fmt.Errorf("CONTENT_SOURCE must be %q or %q, got %q", ContentSourceFile, ContentSourceFirestore, c.Content.Source)
	}
	if c.Chat.MaxMessages <= 1 {
		return fmt.Errorf("CHAT_MAX_MESSAGES must be > 1")
	}
	if c.Chat.SessionTimeout <= 0 {
		return fmt.Errorf("CHAT_SESSION_TIMEOUT must be > 0")
	}
	if c.Chat.MaxRequestBodySize <= 0 {
		return fmt.Errorf("CHAT_MAX_BODY_BYTES must be > 0")
	}
	if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT_REQUESTS and CHAT_RATE_LIMIT_WINDOW must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.GlobalPath == "" {
		return fmt.Errorf("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AssistantEnabled reports whether a model credential is configured.
func (c *Config) AssistantEnabled() bool {
	return c.Gemini.APIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
