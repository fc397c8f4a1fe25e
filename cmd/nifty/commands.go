package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edumarques81/nifty/internal/config"
	"github.com/edumarques81/nifty/internal/version"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "nifty",
		Short:         "Playlist audio player with remote control",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newVersionCommand())
	return root
}

func newServeCommand() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve [files...]",
		Short: "Start the player server, optionally importing audio files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			setupLogging(cfg.Debug)
			return serve(cmd.Context(), cfg, args)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "Config file (yaml, toml or json)")
	flags.String("port", defaults.Port, "HTTP server port")
	flags.String("public-url", "", "Base URL the renderer fetches uploaded audio from")
	flags.String("static", "", "Directory to serve static files from (optional)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("renderer", defaults.Renderer, "Audio output: mpd or speaker")
	flags.String("mpd-host", defaults.MPD.Host, "MPD host")
	flags.Int("mpd-port", defaults.MPD.Port, "MPD port")
	flags.String("mpd-password", "", "MPD password")
	flags.Int("import-workers", defaults.ImportWorkers, "Concurrent metadata extractions per import")
	flags.Int64("max-upload-mb", defaults.MaxUploadMB, "Largest accepted import request in MiB")
	flags.Int("cover-size", defaults.CoverSize, "Longest edge of stored cover art in pixels")
	flags.Int("max-remote-clients", defaults.MaxRemoteClients, "Cap on non-loopback socket clients (0 disables)")
	flags.Duration("broadcast-debounce", defaults.BroadcastDebounce, "Window batching state broadcasts")

	for key, flag := range map[string]string{
		"port":               "port",
		"public_url":         "public-url",
		"static":             "static",
		"debug":              "debug",
		"renderer":           "renderer",
		"mpd.host":           "mpd-host",
		"mpd.port":           "mpd-port",
		"mpd.password":       "mpd-password",
		"import_workers":     "import-workers",
		"max_upload_mb":      "max-upload-mb",
		"cover_size":         "cover-size",
		"max_remote_clients": "max-remote-clients",
		"broadcast_debounce": "broadcast-debounce",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.GetInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s)\n", info.Name, info.Version, info.GoVersion, info.Platform)
			if info.GitCommit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "commit %s built %s\n", info.ShortCommit(), info.BuildTime)
			}
		},
	}
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
