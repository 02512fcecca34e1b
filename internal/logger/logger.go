// Package logger owns the process-wide zerolog instance and the HTTP access
// log middleware.
package logger

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Heidric/storefront/pkg/log"
	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Log is the process logger. It discards everything until Initialize runs so
// packages constructed in tests do not need a configured logger.
var Log = nop()

type Logger struct {
	zl zerolog.Logger
}

func nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func Initialize(cfg *log.Config) (*Logger, error) {
	return initialize(cfg, os.Stdout)
}

func initialize(cfg *log.Config, out io.Writer) (*Logger, error) {
	if cfg == nil {
		return nil, errors.New("logger config is nil")
	}
	cfg.SetDefault()

	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(out).
		Level(cfg.ZerologLevel()).
		With().
		Timestamp().
		Logger()

	Log = &zl

	return &Logger{zl: zl}, nil
}

func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// Middleware writes one access log line per request. It never logs headers, so
// bearer tokens and form bodies stay out of the log.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		ev := Log.Info()
		if status >= http.StatusInternalServerError {
			ev = Log.Error()
		}

		ev.Str("name", "http").
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
