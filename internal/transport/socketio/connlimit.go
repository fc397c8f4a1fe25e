package socketio

import (
	"net/netip"
	"sync"

	"github.com/samber/lo"
)

// ClientLimiter caps concurrent remote control surfaces. Loopback clients are
// never counted. When a remote client exceeds the cap the oldest remote client
// is evicted, so the newest surface always gets control.
type ClientLimiter struct {
	mu        sync.Mutex
	maxRemote int
	remote    []string          // remote client IDs, oldest first
	clients   map[string]string // client ID -> address
}

// NewClientLimiter creates a limiter allowing maxRemote remote clients. A
// non-positive maxRemote disables the cap.
func NewClientLimiter(maxRemote int) *ClientLimiter {
	return &ClientLimiter{
		maxRemote: maxRemote,
		clients:   make(map[string]string),
	}
}

// Admit registers a client and returns the ID of the client it displaced, or
// "" if none.
func (l *ClientLimiter) Admit(clientID, address string) (evicted string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.clients[clientID]; ok {
		return ""
	}
	l.clients[clientID] = address

	if isLoopback(address) {
		return ""
	}

	l.remote = append(l.remote, clientID)
	if l.maxRemote <= 0 || len(l.remote) <= l.maxRemote {
		return ""
	}

	evicted = l.remote[0]
	l.remote = l.remote[1:]
	delete(l.clients, evicted)
	return evicted
}

// Remove unregisters a client.
func (l *ClientLimiter) Remove(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.clients[clientID]; !ok {
		return
	}
	delete(l.clients, clientID)
	l.remote = lo.Without(l.remote, clientID)
}

// Remote returns the number of tracked remote clients.
func (l *ClientLimiter) Remote() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.remote)
}

// isLoopback reports whether address, with or without a port, is a loopback
// address. Unparseable addresses count as remote.
func isLoopback(address string) bool {
	if ap, err := netip.ParseAddrPort(address); err == nil {
		return ap.Addr().Unmap().IsLoopback()
	}
	if addr, err := netip.ParseAddr(address); err == nil {
		return addr.Unmap().IsLoopback()
	}
	return false
}
