package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSPAHandler(t *testing.T) {
	h := SPAHandler()

	tests := []struct {
		path     string
		code     int
		contains string
		cache    string
	}{
		{"/", http.StatusOK, "<title>Portfolio</title>", shellCache},
		{"/works/engine-notes", http.StatusOK, "<title>Portfolio</title>", shellCache},
		{"/assets/missing.js", http.StatusOK, "<title>Portfolio</title>", shellCache},
		{"/api/unknown", http.StatusNotFound, `"error":"not found"`, ""},
		{"/ws/unknown", http.StatusNotFound, `"error":"not found"`, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.code, rec.Code, tt.path)
		assert.Contains(t, rec.Body.String(), tt.contains, tt.path)
		assert.Equal(t, tt.cache, rec.Header().Get("Cache-Control"), tt.path)
	}
}

func TestSPAHandlerKeepsRequestPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	SPAHandler().ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "/about", req.URL.Path)
}

func TestIsServerPath(t *testing.T) {
	assert.True(t, isServerPath("/api/portfolio/x"))
	assert.True(t, isServerPath("/ws/agent/extra"))
	assert.False(t, isServerPath("/apiary"))
	assert.False(t, isServerPath("/"))
}
