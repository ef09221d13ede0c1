package content

import (
	"fmt"

	"github.com/ashureev/portfolio/internal/config"
)

// FromConfig builds the Source selected by cfg.
func FromConfig(cfg config.ContentConfig) (Source, error) {
	switch cfg.Source {
	case config.ContentSourceFile:
		return NewFileSource(cfg.File), nil
	case config.ContentSourceFirestore:
		return NewFirestoreSource(FirestoreConfig{
			BaseURL:    cfg.FirestoreBaseURL,
			ProjectID:  cfg.FirestoreProjectID,
			APIKey:     cfg.FirestoreAPIKey,
			Collection: cfg.FirestoreCollection,
			Document:   cfg.FirestoreDocument,
		}), nil
	default:
		return nil, fmt.Errorf("unknown content source %q", cfg.Source)
	}
}
