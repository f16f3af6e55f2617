package logger

import (
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gopkg.in/lumberjack.v2"
)

var log zerolog.Logger

// Options controls where log output goes. The zero value logs info and
// above to stdout.
type Options struct {
	Level string
	// File, when set, receives a copy of every line and is rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output replaces stdout. Tests use it to capture lines.
	Output io.Writer
}

func init() {
	Init("info")
}

// Init resets the global logger to stdout at level.
func Init(level string) {
	Setup(Options{Level: level})
}

// Setup replaces the global logger. At debug level stdout is rendered for
// humans; otherwise every line is JSON.
func Setup(opts Options) {
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
		if lvl <= zerolog.DebugLevel {
			out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		}
	}
	if opts.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			LocalTime:  true,
		})
	}

	log = zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("service", "projectpulse").
		Logger()
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }

func Infof(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

// Fatalf logs and exits the process.
func Fatalf(format string, v ...interface{}) {
	log.Fatal().Msgf(format, v...)
}

// GinLogger writes one line per request, tagged with the request id and,
// behind AuthRequired, the caller. Health probes only show at debug level.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		case c.FullPath() == "/health":
			event = log.Debug()
		default:
			event = log.Info()
		}

		event = event.
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP())
		if q := c.Request.URL.RawQuery; q != "" {
			event = event.Str("query", q)
		}
		if user := c.GetString("username"); user != "" {
			event = event.Str("user", user)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			event = event.Str("errors", errs.String())
		}
		event.Msg("request")
	}
}

// GinRecovery turns a handler panic into the standard 500 error body and
// logs the stack.
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().
			Interface("panic", recovered).
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Bytes("stack", debug.Stack()).
			Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "internal server error",
		})
	})
}
