package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ashureev/portfolio/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileSource reads the portfolio document from a local YAML or JSON file.
type FileSource struct {
	Path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Fetch reads and decodes the file. JSON documents are accepted since they are valid YAML.
func (s *FileSource) Fetch(ctx context.Context) (*domain.ContentSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}

	var snap domain.ContentSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse content file %s: %w", s.Path, err)
	}
	return &snap, nil
}
