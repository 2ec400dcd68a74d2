// Package logger is the process-wide structured logger.
//
// Calls take a message followed by alternating key/value pairs:
//
//	logger.Info("selection_completed", "creator_id", id, "selected", n)
//
// A dangling value without a key is logged under "error" when it is an error
// and under "extra" otherwise.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	setup("development", os.Stderr)
}

// Init configures the logger for an environment: JSON at info level for
// "production", console output at debug level for anything else.
func Init(environment string) {
	setup(environment, os.Stderr)
}

// SetOutput redirects output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Output(w)
}

func setup(environment string, out io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	zerolog.TimeFieldFormat = time.RFC3339Nano
	if strings.EqualFold(environment, "production") {
		log = zerolog.New(out).Level(zerolog.InfoLevel).With().Timestamp().Logger()
		return
	}
	cw := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	log = zerolog.New(cw).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

func Debug(msg string, args ...any) {
	emit(zerolog.DebugLevel, msg, args)
}

func Info(msg string, args ...any) {
	emit(zerolog.InfoLevel, msg, args)
}

func Warn(msg string, args ...any) {
	emit(zerolog.WarnLevel, msg, args)
}

func Error(msg string, args ...any) {
	emit(zerolog.ErrorLevel, msg, args)
}

// Fatal logs and exits the process.
func Fatal(msg string, args ...any) {
	emit(zerolog.FatalLevel, msg, args)
}

func emit(level zerolog.Level, msg string, args []any) {
	mu.RLock()
	l := log
	mu.RUnlock()

	ev := l.WithLevel(level)
	if ev == nil {
		return
	}
	for i := 0; i < len(args); i++ {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			if err, isErr := args[i].(error); isErr {
				ev = ev.Err(err)
			} else {
				ev = ev.Interface("extra", args[i])
			}
			continue
		}
		i++
		switch v := args[i].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case fmt.Stringer:
			ev = ev.Stringer(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
	if level == zerolog.FatalLevel {
		os.Exit(1)
	}
}
