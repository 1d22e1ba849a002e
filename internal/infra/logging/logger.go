package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger.Store(&l)
}

// InitLogger configures the global logger to write JSON lines to stdout and,
// when file is set, to a size-rotated log file.
func InitLogger(file string, maxSizeMB, maxBackups, maxAgeDays int, compress bool, level string) {
	writers := []io.Writer{os.Stdout}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "log file disabled: %v\n", err)
		} else {
			writers = append(writers, &lumberjack.Logger{
				Filename:   file,
				MaxSize:    maxSizeMB,
				MaxBackups: maxBackups,
				MaxAge:     maxAgeDays,
				Compress:   compress,
			})
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	l := zerolog.New(io.MultiWriter(writers...)).
		Level(parseLevel(level)).
		With().Timestamp().Logger()
	logger.Store(&l)
}

// SetLogLevel changes the level of the global logger. Unknown levels fall back to info.
func SetLogLevel(level string) {
	l := logger.Load().Level(parseLevel(level))
	logger.Store(&l)
}

// SetLoggerForTest replaces the global logger.
func SetLoggerForTest(l zerolog.Logger) {
	logger.Store(&l)
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Debug logs msg with alternating key/value pairs.
func Debug(msg string, kv ...any) { write(logger.Load().Debug(), msg, kv) }

// Info logs msg with alternating key/value pairs.
func Info(msg string, kv ...any) { write(logger.Load().Info(), msg, kv) }

// Warn logs msg with alternating key/value pairs.
func Warn(msg string, kv ...any) { write(logger.Load().Warn(), msg, kv) }

// Error logs msg with alternating key/value pairs.
func Error(msg string, kv ...any) { write(logger.Load().Error(), msg, kv) }

func write(ev *zerolog.Event, msg string, kv []any) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		switch v := kv[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
