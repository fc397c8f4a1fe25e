package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/edumarques81/nifty/internal/config"
)

func TestDefault(t *testing.T) {
	c := config.Default()

	if c.Port != "3001" {
		t.Errorf("expected port 3001, got %q", c.Port)
	}
	if c.Renderer != config.RendererMPD {
		t.Errorf("expected mpd renderer, got %q", c.Renderer)
	}
	if c.MPD.Host != "localhost" || c.MPD.Port != 6600 {
		t.Errorf("unexpected MPD defaults %+v", c.MPD)
	}
	if c.ImportWorkers != 4 {
		t.Errorf("expected 4 import workers, got %d", c.ImportWorkers)
	}
	if c.BroadcastDebounce != 50*time.Millisecond {
		t.Errorf("expected 50ms debounce, got %v", c.BroadcastDebounce)
	}
	if c.PublicURL != "http://127.0.0.1:3001" {
		t.Errorf("expected derived public url, got %q", c.PublicURL)
	}
	if c.MaxUploadBytes() != 512<<20 {
		t.Errorf("expected 512MiB upload limit, got %d", c.MaxUploadBytes())
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("NIFTY_PORT", "8080")
	t.Setenv("NIFTY_MPD_HOST", "music.local")
	t.Setenv("NIFTY_RENDERER", "speaker")
	t.Setenv("NIFTY_BROADCAST_DEBOUNCE", "200ms")

	c, err := config.Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Port != "8080" || c.MPD.Host != "music.local" || c.Renderer != "speaker" {
		t.Errorf("environment not applied: %+v", c)
	}
	if c.BroadcastDebounce != 200*time.Millisecond {
		t.Errorf("expected 200ms, got %v", c.BroadcastDebounce)
	}
	if c.PublicURL != "http://127.0.0.1:8080" {
		t.Errorf("expected public url to follow port, got %q", c.PublicURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nifty.yaml")
	content := "port: \"4000\"\npublic_url: http://player.lan:4000/\nmpd:\n  port: 6601\nimport_workers: 8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	c, err := config.Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Port != "4000" || c.MPD.Port != 6601 || c.ImportWorkers != 8 {
		t.Errorf("file not applied: %+v", c)
	}
	if c.PublicURL != "http://player.lan:4000" {
		t.Errorf("expected trailing slash trimmed, got %q", c.PublicURL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(viper.New(), "/nonexistent/nifty.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"empty port", func(c *config.Config) { c.Port = "" }},
		{"unknown renderer", func(c *config.Config) { c.Renderer = "alsa" }},
		{"missing mpd host", func(c *config.Config) { c.MPD.Host = "" }},
		{"mpd port out of range", func(c *config.Config) { c.MPD.Port = 70000 }},
		{"no workers", func(c *config.Config) { c.ImportWorkers = 0 }},
		{"no upload", func(c *config.Config) { c.MaxUploadMB = 0 }},
		{"tiny cover", func(c *config.Config) { c.CoverSize = 4 }},
		{"negative clients", func(c *config.Config) { c.MaxRemoteClients = -1 }},
		{"negative debounce", func(c *config.Config) { c.BroadcastDebounce = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			tt.modify(&c)
			if err := c.Validate(); !errors.Is(err, config.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestValidateSpeakerIgnoresMPD(t *testing.T) {
	c := config.Default()
	c.Renderer = config.RendererSpeaker
	c.MPD.Host = ""

	if err := c.Validate(); err != nil {
		t.Errorf("expected speaker config without MPD to be valid, got %v", err)
	}
}
