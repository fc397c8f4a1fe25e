package socketio

import (
	"fmt"
	"testing"
)

func TestClientLimiterLoopbackUnlimited(t *testing.T) {
	l := NewClientLimiter(1)

	for i := 0; i < 10; i++ {
		if evicted := l.Admit(fmt.Sprintf("local-%d", i), "127.0.0.1"); evicted != "" {
			t.Errorf("loopback client %d should not evict anyone, got %s", i, evicted)
		}
	}
	if l.Remote() != 0 {
		t.Errorf("expected no remote clients, got %d", l.Remote())
	}
}

func TestClientLimiterEvictsOldestRemote(t *testing.T) {
	l := NewClientLimiter(2)

	l.Admit("first", "10.0.0.1")
	l.Admit("second", "10.0.0.2")
	if evicted := l.Admit("local", "::1"); evicted != "" {
		t.Errorf("loopback should not evict, got %q", evicted)
	}

	if evicted := l.Admit("third", "10.0.0.3"); evicted != "first" {
		t.Errorf("expected eviction of first, got %q", evicted)
	}
	if evicted := l.Admit("fourth", "10.0.0.4"); evicted != "second" {
		t.Errorf("expected eviction of second, got %q", evicted)
	}
}

func TestClientLimiterRemoveFreesSlot(t *testing.T) {
	l := NewClientLimiter(1)

	l.Admit("ext-1", "192.168.1.100")
	l.Remove("ext-1")

	if evicted := l.Admit("ext-2", "192.168.1.101"); evicted != "" {
		t.Errorf("should not evict after removal freed a slot, got %s", evicted)
	}
	if l.Remote() != 1 {
		t.Errorf("expected 1 remote client, got %d", l.Remote())
	}
}

func TestClientLimiterDuplicateAdmit(t *testing.T) {
	l := NewClientLimiter(1)

	l.Admit("ext-1", "192.168.1.100")
	if evicted := l.Admit("ext-1", "192.168.1.100"); evicted != "" {
		t.Errorf("duplicate admit should not evict, got %s", evicted)
	}

	// Removing unknown clients is a no-op.
	l.Remove("nonexistent")
}

func TestClientLimiterUncapped(t *testing.T) {
	l := NewClientLimiter(0)

	for i := 0; i < 5; i++ {
		if evicted := l.Admit(fmt.Sprintf("ext-%d", i), "10.0.0.1"); evicted != "" {
			t.Errorf("uncapped limiter evicted %s", evicted)
		}
	}
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		address  string
		expected bool
	}{
		{"127.0.0.1", true},
		{"127.0.0.1:54321", true},
		{"::1", true},
		{"[::1]:8080", true},
		{"::ffff:127.0.0.1", true},
		{"192.168.1.100", false},
		{"10.0.0.1:80", false},
		{"0.0.0.0", false},
		{"", false},
		{"localhost", false},
	}

	for _, tt := range tests {
		if got := isLoopback(tt.address); got != tt.expected {
			t.Errorf("isLoopback(%q) = %v, want %v", tt.address, got, tt.expected)
		}
	}
}
