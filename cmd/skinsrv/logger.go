package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"skinsrv/internal/config"
)

func newLogger(c config.LogConfig) zerolog.Logger {
	var w io.Writer = os.Stderr
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("svc", "skinsrv").Logger()
}
