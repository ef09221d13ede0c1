// Package web serves the portfolio frontend embedded from dist/.
//
// The checked-in dist/ holds a placeholder shell that loads /api/portfolio.
// A frontend build writes index.html and hashed files under dist/assets/ in
// its place before `go build`.
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

//go:embed all:dist
var distFS embed.FS

const (
	shellCache = "no-cache"
	assetCache = "public, max-age=31536000, immutable"
)

// SPAHandler returns the handler mounted behind every server route.
//
// Embedded files are served as is. Any other path is a client-side route and
// gets the index.html shell, except paths under /api/ and /ws/, which get a
// JSON 404 so API clients never parse HTML.
func SPAHandler() http.Handler {
	dist, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	files := http.FileServer(http.FS(dist))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isServerPath(r.URL.Path) {
			notFound(w)
			return
		}

		name := strings.TrimPrefix(r.URL.Path, "/")
		if name == "" || !exists(dist, name) {
			w.Header().Set("Cache-Control", shellCache)
			shell := r.Clone(r.Context())
			shell.URL.Path = "/"
			files.ServeHTTP(w, shell)
			return
		}

		if strings.HasPrefix(name, "assets/") {
			w.Header().Set("Cache-Control", assetCache)
		}
		files.ServeHTTP(w, r)
	})
}

func isServerPath(p string) bool {
	return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/ws/")
}

func exists(dist fs.FS, name string) bool {
	f, err := dist.Open(name)
	if err != nil {
		return false
	}
	if err := f.Close(); err != nil {
		slog.Debug("web: failed to close embedded file", "path", name, "error", err)
	}
	return true
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":"not found"}` + "\n"))
}
