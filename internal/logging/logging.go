package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Setup configures the process logger. format is "json" or "console".
func Setup(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	logger = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	return logger
}

func Log(level zerolog.Level, msg string, fields map[string]any) {
	logger.WithLevel(level).Fields(fields).Msg(msg)
}

func Debug(msg string, fields map[string]any) { Log(zerolog.DebugLevel, msg, fields) }
func Info(msg string, fields map[string]any)  { Log(zerolog.InfoLevel, msg, fields) }
func Error(msg string, fields map[string]any) { Log(zerolog.ErrorLevel, msg, fields) }
