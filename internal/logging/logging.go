// Package logging строит корневой *slog.Logger процесса.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Форматы вывода
const (
	FormatJSON = "json"
	FormatText = "text"
)

// ParseLevel переводит строковый уровень (debug, info, warn, error) в slog.Level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// New создает logger: JSON для production, text для локальной разработки
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if format == FormatText {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h)
}
