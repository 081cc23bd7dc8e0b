package httpapi

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "off", "":
		return LevelOff
	case "error", "warn":
		return LevelError
	case "info":
		return LevelInfo
	case "debug", "trace":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetDefaultLogLevel sets the level used when a request carries no override.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// predictLog describes the end of one prediction request.
type predictLog struct {
	analysisID string
	status     int
	start      time.Time
	err        error
	class      string
	uncertain  bool
	fallback   bool
}

func logPredict(r *http.Request, lvl LogLevel, e predictLog) {
	failed := e.status >= 400
	if lvl == LevelOff || (lvl == LevelError && !failed) {
		return
	}
	dur := time.Since(e.start)
	if zlog == nil {
		log.Printf("predict end path=%s status=%d analysis_id=%s class=%s dur=%s err=%v",
			r.URL.Path, e.status, e.analysisID, e.class, dur, e.err)
		return
	}
	z := zlog.Info()
	if failed {
		z = zlog.Warn()
	}
	z = z.Str("path", r.URL.Path).Int("status", e.status).Str("analysis_id", e.analysisID).Dur("dur", dur)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	if e.class != "" {
		z = z.Str("class", e.class).Bool("uncertain", e.uncertain).Bool("fallback", e.fallback)
	}
	if lvl >= LevelDebug {
		z = z.Str("age", r.FormValue("age")).Str("sex", r.FormValue("sex")).Str("site", siteValue(r))
	}
	if e.err != nil {
		z = z.Err(e.err)
	}
	z.Msg("predict end")
}
