package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestSPAHandler(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "<html>app</html>")
	writeFile(t, filepath.Join(dir, "assets", "app.js"), "console.log(1)")

	handler := spaHandler(dir)

	tests := []struct {
		path     string
		expected string
	}{
		{"/", "app"},
		{"/assets/app.js", "console.log"},
		{"/queue/123", "app"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.expected) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tt.expected)
			}
		})
	}
}

func TestPublicResolver(t *testing.T) {
	resolve := publicResolver("http://player.lan:3001")

	if got := resolve("blob:not-a-uuid"); got != "" {
		t.Errorf("expected invalid handle to resolve empty, got %q", got)
	}
	handle := "blob:123e4567-e89b-12d3-a456-426614174000"
	want := "http://player.lan:3001/blob/123e4567-e89b-12d3-a456-426614174000"
	if got := resolve(handle); got != want {
		t.Errorf("resolve(%q) = %q, want %q", handle, got, want)
	}
}
