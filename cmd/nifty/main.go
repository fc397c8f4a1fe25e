// Package main is the entry point for the Nifty audio player server.
package main

import (
	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
