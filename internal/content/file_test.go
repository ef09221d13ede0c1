package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
personal:
  name: Ada Lovelace
  title: Engineer
intro:
  whatsNew:
    - name: Engine
      githubUrl: https://github.com/ada/engine
skills:
  graph:
    colorPalette: ["#111", "#222"]
`), 0o600))

	snap, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", snap.Personal.Name)
	require.Len(t, snap.Intro.Highlights, 1)
	assert.Equal(t, "https://github.com/ada/engine", snap.Intro.Highlights[0].GithubURL)
	assert.Equal(t, []string{"#111", "#222"}, snap.Skills.Graph.ColorPalette)
}

func TestFileSourceJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"personal": {"name": "Ada"}, "works": [{"title": "X", "isArticle": false}]}`), 0o600))

	snap, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", snap.Personal.Name)
	assert.Len(t, snap.Works, 1)
}

func TestFileSourceMissing(t *testing.T) {
	t.Parallel()

	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.yaml")).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound))
}
