package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/nifty/internal/config"
	"github.com/edumarques81/nifty/internal/domain/media"
	"github.com/edumarques81/nifty/internal/domain/player"
	"github.com/edumarques81/nifty/internal/infra/blob"
	"github.com/edumarques81/nifty/internal/infra/metadata"
	"github.com/edumarques81/nifty/internal/infra/mpd"
	"github.com/edumarques81/nifty/internal/infra/speaker"
	"github.com/edumarques81/nifty/internal/transport/rest"
	"github.com/edumarques81/nifty/internal/transport/socketio"
	"github.com/edumarques81/nifty/internal/version"
)

// renderer is a media handle that reports its progress.
type renderer interface {
	media.Handle
	Events(ctx context.Context) <-chan media.Event
}

// output is the selected renderer with its lifecycle hooks.
type output struct {
	renderer renderer
	health   func() error
	close    func() error
}

func serve(parent context.Context, cfg config.Config, paths []string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	info := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", info.String())
	log.Info().Msg("  Playlist Audio Player")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", cfg.Port).
		Str("renderer", cfg.Renderer).
		Str("public_url", cfg.PublicURL).
		Int("import_workers", cfg.ImportWorkers).
		Int("max_remote_clients", cfg.MaxRemoteClients).
		Msg("Configuration")

	store := blob.NewStore()
	out, err := openOutput(cfg, store)
	if err != nil {
		return err
	}
	defer out.close()

	extractor := metadata.NewExtractor(store, metadata.WithCoverSize(cfg.CoverSize))
	controller := player.NewController(out.renderer, extractor, store,
		player.WithImportWorkers(cfg.ImportWorkers))

	go func() {
		if err := controller.Run(ctx, out.renderer.Events(ctx)); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Controller stopped")
		}
	}()

	socketServer, err := socketio.NewServer(controller, socketio.Options{
		MaxRemoteClients: cfg.MaxRemoteClients,
		DebounceWindow:   cfg.BroadcastDebounce,
	})
	if err != nil {
		return fmt.Errorf("failed to create Socket.io server: %w", err)
	}
	defer socketServer.Close()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", socketServer)
	rest.NewHandler(controller, store,
		rest.WithMaxUploadBytes(cfg.MaxUploadBytes()),
		rest.WithHealthCheck(cfg.Renderer, out.health),
	).Register(mux)

	if cfg.StaticDir != "" {
		log.Info().Str("dir", cfg.StaticDir).Msg("Serving static files")
		mux.Handle("/", spaHandler(cfg.StaticDir))
	}

	if len(paths) > 0 {
		go importPaths(ctx, controller, paths)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

// openOutput connects the configured renderer.
func openOutput(cfg config.Config, store *blob.Store) (*output, error) {
	switch cfg.Renderer {
	case config.RendererSpeaker:
		r, err := speaker.New(func(handle string) ([]byte, error) {
			b, err := store.Get(handle)
			if err != nil {
				return nil, err
			}
			return b.Data, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open speaker: %w", err)
		}
		log.Info().Msg("Speaker output ready")
		return &output{renderer: r, close: r.Close}, nil

	default:
		client := mpd.NewClient(cfg.MPD.Host, cfg.MPD.Port, cfg.MPD.Password)
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to MPD: %w", err)
		}
		if err := client.Ping(); err != nil {
			client.Close()
			return nil, fmt.Errorf("MPD ping failed: %w", err)
		}
		log.Info().Str("host", cfg.MPD.Host).Int("port", cfg.MPD.Port).Msg("MPD connection verified")

		r := mpd.NewRenderer(client, publicResolver(cfg.PublicURL))
		return &output{renderer: r, health: client.Ping, close: client.Close}, nil
	}
}

// publicResolver maps blob handles to absolute URLs under base.
func publicResolver(base string) mpd.Resolver {
	return func(handle string) string {
		path := blob.Path(handle)
		if path == "" {
			return ""
		}
		return base + path
	}
}

func importPaths(ctx context.Context, controller *player.Controller, paths []string) {
	files, err := readFiles(paths)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read startup files")
	}
	if len(files) == 0 {
		return
	}
	if _, err := controller.ImportFiles(ctx, files); err != nil {
		log.Warn().Err(err).Msg("Startup import abandoned")
	}
}
