// Package socketio provides the Socket.io server that remote control surfaces
// use to drive the player.
package socketio

import (
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/edumarques81/nifty/internal/domain/player"
	"github.com/edumarques81/nifty/internal/infra/blob"
)

// SkipSeconds is the rewind/fast forward step.
const SkipSeconds = 10

// Options configures the server.
type Options struct {
	// MaxRemoteClients caps concurrent non-loopback clients; 0 disables it.
	MaxRemoteClients int
	// DebounceWindow batches controller changes into one broadcast.
	DebounceWindow time.Duration
}

// Server handles Socket.io connections and events.
type Server struct {
	io         *socket.Server
	controller *player.Controller
	limiter    *ClientLimiter
	debouncer  *BroadcastDebouncer
	diff       stateDiff

	mu      sync.RWMutex
	clients map[string]*socket.Socket
}

// NewServer creates a Socket.io server bound to controller. Controller changes
// are broadcast to every connected client.
func NewServer(controller *player.Controller, o Options) (*Server, error) {
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(20 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	s := &Server{
		io:         socket.NewServer(nil, opts),
		controller: controller,
		limiter:    NewClientLimiter(o.MaxRemoteClients),
		clients:    make(map[string]*socket.Socket),
	}
	s.debouncer = NewBroadcastDebouncer(o.DebounceWindow, s.BroadcastState, s.BroadcastQueue)
	controller.OnChange(s.debouncer.Trigger)

	s.setupHandlers()

	return s, nil
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		address := client.Handshake().Address

		log.Info().Str("id", clientID).Str("address", address).Msg("Client connected")

		s.admit(clientID, address, client)

		// Send initial state after small delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.pushState(client)
			s.pushQueue(client)
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.limiter.Remove(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		client.On("getState", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getState")
			s.pushState(client)
		})

		client.On("getQueue", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getQueue")
			s.pushQueue(client)
		})

		// Transport commands
		commands := map[string]func(){
			"play":    s.controller.Play,
			"pause":   s.controller.Pause,
			"toggle":  s.controller.TogglePlay,
			"next":    func() { s.controller.SkipToNext() },
			"prev":    func() { s.controller.SkipToPrevious() },
			"rewind":  func() { s.controller.SeekRelative(-SkipSeconds) },
			"forward": func() { s.controller.SeekRelative(SkipSeconds) },
			"mute":    func() { s.controller.ToggleMute() },
			"shuffle": func() { s.controller.ToggleShuffle() },
		}
		for event, run := range commands {
			client.On(event, func(args ...any) {
				log.Debug().Str("id", clientID).Msg(event)
				run()
			})
		}

		client.On("seek", func(args ...any) {
			if pos, ok := numberArg(args); ok {
				log.Debug().Str("id", clientID).Float64("pos", pos).Msg("seek")
				s.controller.Seek(pos)
			}
		})

		client.On("seekFraction", func(args ...any) {
			if f, ok := numberArg(args); ok && f >= 0 && f <= 1 {
				log.Debug().Str("id", clientID).Float64("fraction", f).Msg("seekFraction")
				s.controller.SeekFraction(f)
			}
		})

		client.On("volume", func(args ...any) {
			if vol, ok := numberArg(args); ok {
				vol = math.Round(vol*100) / 100
				log.Debug().Str("id", clientID).Float64("vol", vol).Msg("volume")
				s.controller.SetVolume(vol)
			}
		})

		client.On("selectTrack", func(args ...any) {
			if url, ok := handleArg(args); ok {
				log.Debug().Str("id", clientID).Str("url", url).Msg("selectTrack")
				if !s.controller.SelectTrack(url) {
					log.Warn().Str("url", url).Msg("selectTrack: unknown track")
				}
			}
		})

		client.On("removeTrack", func(args ...any) {
			if url, ok := handleArg(args); ok {
				log.Debug().Str("id", clientID).Str("url", url).Msg("removeTrack")
				if !s.controller.RemoveTrack(url) {
					log.Warn().Str("url", url).Msg("removeTrack: unknown track")
				}
			}
		})

		client.On("search", func(args ...any) {
			query, _ := stringArg(args, "query")
			log.Debug().Str("id", clientID).Str("query", query).Msg("search")
			tracks := s.controller.Search(query)
			client.Emit("pushSearch", map[string]interface{}{
				"query":   query,
				"results": player.TracksJSON(tracks, -1, blob.Path),
			})
		})
	})
}

// admit registers a client, disconnecting whichever client it displaces.
func (s *Server) admit(clientID, address string, client *socket.Socket) {
	evicted := s.limiter.Admit(clientID, address)

	s.mu.Lock()
	s.clients[clientID] = client
	old := s.clients[evicted]
	delete(s.clients, evicted)
	s.mu.Unlock()

	if old != nil {
		log.Info().Str("id", evicted).Str("by", clientID).Msg("Evicting client")
		old.Disconnect(true)
	}
}

func (s *Server) state() map[string]interface{} {
	return s.controller.Snapshot().ToJSON(blob.Path)
}

func (s *Server) queue() []map[string]interface{} {
	return s.controller.Snapshot().QueueJSON(blob.Path)
}

// pushState sends current state to a client.
func (s *Server) pushState(client *socket.Socket) {
	client.Emit("pushState", s.state())
}

// pushQueue sends current queue to a client.
func (s *Server) pushQueue(client *socket.Socket) {
	client.Emit("pushQueue", s.queue())
}

// BroadcastState sends state to all connected clients when it differs from
// what they can interpolate.
func (s *Server) BroadcastState() {
	state := s.state()
	if !s.diff.changed(state, time.Now()) {
		return
	}

	s.io.Emit("pushState", state)

	if log.Debug().Enabled() {
		data, _ := json.Marshal(state)
		log.Debug().RawJSON("state", data).Int("clients", s.ClientCount()).Msg("Broadcast state")
	}
}

// BroadcastQueue sends queue to all connected clients.
func (s *Server) BroadcastQueue() {
	s.io.Emit("pushQueue", s.queue())
	// Positions may have shifted; resend state unconditionally next time.
	s.diff.reset()
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close stops broadcasts and closes the Socket.io server.
func (s *Server) Close() error {
	s.debouncer.Stop()
	s.io.Close(nil)
	return nil
}

// numberArg reads a number sent bare or as {"value": n}.
func numberArg(args []any) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	switch v := args[0].(type) {
	case float64:
		return v, true
	case map[string]interface{}:
		n, ok := v["value"].(float64)
		return n, ok
	}
	return 0, false
}

// stringArg reads a string sent bare or as {key: s}.
func stringArg(args []any, key string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	switch v := args[0].(type) {
	case string:
		return v, true
	case map[string]interface{}:
		s, ok := v[key].(string)
		return s, ok
	}
	return "", false
}

// handleArg reads a track handle sent as {"url": h} or bare.
func handleArg(args []any) (string, bool) {
	url, ok := stringArg(args, "url")
	return url, ok && url != ""
}
