// Package mpd renders playback through a Music Player Daemon, using gompd with
// reconnection handling.
package mpd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned when no MPD connection is open.
var ErrNotConnected = errors.New("not connected")

// Client wraps the MPD client with reconnection logic.
type Client struct {
	mu       sync.RWMutex
	client   *mpd.Client
	watcher  *mpd.Watcher
	host     string
	port     int
	password string
}

// NewClient creates a new MPD client wrapper.
func NewClient(host string, port int, password string) *Client {
	return &Client{
		host:     host,
		port:     port,
		password: password,
	}
}

func (c *Client) addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// Connect establishes connection to MPD.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connectLocked()
}

// connectLocked establishes connection (must hold lock).
func (c *Client) connectLocked() error {
	addr := c.addr()
	log.Info().Str("addr", addr).Msg("Connecting to MPD")

	client, err := mpd.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to MPD: %w", err)
	}

	if c.password != "" {
		if err := client.Command("password %s", c.password).OK(); err != nil {
			client.Close()
			return fmt.Errorf("MPD authentication failed: %w", err)
		}
	}

	c.client = client
	log.Info().Msg("Connected to MPD")
	return nil
}

// ensureConnected checks connection and reconnects if needed.
func (c *Client) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return c.connectLocked()
	}

	if err := c.client.Ping(); err != nil {
		log.Warn().Err(err).Msg("MPD connection lost, reconnecting...")
		c.client.Close()
		c.client = nil
		return c.connectLocked()
	}

	return nil
}

// do runs fn on a live connection.
func (c *Client) do(fn func(*mpd.Client) error) error {
	if err := c.ensureConnected(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.client == nil {
		return ErrNotConnected
	}
	return fn(c.client)
}

// Close closes the MPD connection and any watcher.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}

	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// Ping checks if the connection is alive.
func (c *Client) Ping() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.client == nil {
		return ErrNotConnected
	}
	return c.client.Ping()
}

// Status returns the current MPD status.
func (c *Client) Status() (mpd.Attrs, error) {
	var attrs mpd.Attrs
	err := c.do(func(client *mpd.Client) error {
		var err error
		attrs, err = client.Status()
		return err
	})
	return attrs, err
}

// Play starts playback of the queue, or resumes when paused.
func (c *Client) Play() error {
	return c.do(func(client *mpd.Client) error {
		return client.Play(-1)
	})
}

// Pause sets the pause state.
func (c *Client) Pause(pause bool) error {
	return c.do(func(client *mpd.Client) error {
		return client.Pause(pause)
	})
}

// Stop stops playback.
func (c *Client) Stop() error {
	return c.do(func(client *mpd.Client) error {
		return client.Stop()
	})
}

// Seek seeks within the current song.
func (c *Client) Seek(pos time.Duration) error {
	return c.do(func(client *mpd.Client) error {
		return client.SeekCur(pos, false)
	})
}

// SetVolume sets the volume (0-100).
func (c *Client) SetVolume(vol int) error {
	vol = min(max(vol, 0), 100)
	return c.do(func(client *mpd.Client) error {
		return client.SetVolume(vol)
	})
}

// Replace clears the queue and, unless uri is empty, enqueues uri as its only
// entry.
func (c *Client) Replace(uri string) error {
	return c.do(func(client *mpd.Client) error {
		if err := client.Clear(); err != nil {
			return err
		}
		if uri == "" {
			return nil
		}
		return client.Add(uri)
	})
}

// Watch starts watching for MPD subsystem changes.
// Returns a channel that receives subsystem names when they change.
func (c *Client) Watch(subsystems ...string) (<-chan string, error) {
	watcher, err := mpd.NewWatcher("tcp", c.addr(), c.password, subsystems...)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	ch := make(chan string, 10)

	go func() {
		defer close(ch)
		for {
			select {
			case subsystem, ok := <-watcher.Event:
				if !ok {
					return
				}
				ch <- subsystem
			case err, ok := <-watcher.Error:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("MPD watcher error")
				time.Sleep(time.Second)
			}
		}
	}()

	return ch, nil
}
