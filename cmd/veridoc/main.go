package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/veridoc/veridoc/internal/cli"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if os.Getenv("VERIDOC_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := cli.Execute(); err != nil {
		// The verify command already printed its report on rejection
		if !errors.Is(err, cli.ErrDocumentRejected) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
