package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Nifty ") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestServeFlagsBound(t *testing.T) {
	cmd := newServeCommand()

	for _, name := range []string{"config", "port", "renderer", "mpd-host", "import-workers", "broadcast-debounce"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s", name)
		}
	}
	if got := cmd.Flags().Lookup("port").DefValue; got != "3001" {
		t.Errorf("expected default port 3001, got %q", got)
	}
}
