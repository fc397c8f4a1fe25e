package version_test

import (
	"strings"
	"testing"

	"github.com/edumarques81/nifty/internal/version"
)

func TestVersionInfo(t *testing.T) {
	t.Run("Version should not be empty", func(t *testing.T) {
		if version.Version == "" {
			t.Error("Version should not be empty")
		}
	})

	t.Run("Name should be Nifty", func(t *testing.T) {
		if version.Name != "Nifty" {
			t.Errorf("Expected name 'Nifty', got '%s'", version.Name)
		}
	})
}

func TestGetInfo(t *testing.T) {
	info := version.GetInfo()

	if info.Name != version.Name {
		t.Errorf("Expected name '%s', got '%s'", version.Name, info.Name)
	}
	if info.Version != version.Version {
		t.Errorf("Expected version '%s', got '%s'", version.Version, info.Version)
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("Expected Go version, got '%s'", info.GoVersion)
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Expected os/arch platform, got '%s'", info.Platform)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		info     version.Info
		expected string
	}{
		{"plain", version.Info{Name: "Nifty", Version: "1.2.3"}, "Nifty v1.2.3"},
		{"commit", version.Info{Name: "Nifty", Version: "1.2.3", GitCommit: "abcdef0123456"}, "Nifty v1.2.3 (abcdef0)"},
		{"short commit", version.Info{Name: "Nifty", Version: "1.2.3", GitCommit: "abc"}, "Nifty v1.2.3 (abc)"},
		{"build time", version.Info{Name: "Nifty", Version: "1.2.3", BuildTime: "2026-01-01"}, "Nifty v1.2.3 built 2026-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
