// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides contextual loggers on top of the go-ethereum slog logger.
// Package level loggers created with WithContext follow the root logger
// installed later through SetDefault.
package log

import (
	"context"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Levels, ordered from the most verbose.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Legacy numeric verbosity used by command line flags.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// Logger writes key/value records.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	Enabled(level slog.Level) bool
}

type logger struct {
	ctx []any
}

// WithContext returns a logger which prepends ctx to every record.
func WithContext(ctx ...any) Logger {
	return &logger{ctx: ctx}
}

// Root returns the logger without context.
func Root() Logger {
	return &logger{}
}

func (l *logger) with(ctx []any) []any {
	if len(l.ctx) == 0 {
		return ctx
	}
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return append(merged, ctx...)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{ctx: l.with(ctx)}
}

func (l *logger) Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, l.with(ctx)...) }
func (l *logger) Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, l.with(ctx)...) }
func (l *logger) Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, l.with(ctx)...) }
func (l *logger) Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, l.with(ctx)...) }
func (l *logger) Error(msg string, ctx ...any) { ethlog.Root().Error(msg, l.with(ctx)...) }
func (l *logger) Crit(msg string, ctx ...any)  { ethlog.Root().Crit(msg, l.with(ctx)...) }

func (l *logger) Enabled(level slog.Level) bool {
	return ethlog.Root().Enabled(context.Background(), level)
}

// SetDefault installs h, filtered by level, as the root handler.
func SetDefault(h slog.Handler, level *slog.LevelVar) {
	ethlog.SetDefault(ethlog.NewLogger(&leveledHandler{Handler: h, level: level}))
}

// NewTerminalHandler returns a human readable handler.
func NewTerminalHandler(w io.Writer, useColor bool) slog.Handler {
	return ethlog.NewTerminalHandlerWithLevel(w, LevelTrace, useColor)
}

// JSONHandler returns a handler writing one JSON object per record.
func JSONHandler(w io.Writer) slog.Handler {
	return ethlog.JSONHandler(w)
}

// FromLegacyLevel converts a numeric verbosity into a level.
func FromLegacyLevel(lvl int) slog.Level {
	return ethlog.FromLegacyLevel(lvl)
}

// ParseLevel converts a level name into a level.
func ParseLevel(name string) (slog.Level, bool) {
	switch name {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "crit":
		return LevelCrit, true
	}
	return 0, false
}

// LevelName is the inverse of ParseLevel.
func LevelName(level slog.Level) string {
	switch {
	case level <= LevelTrace:
		return "trace"
	case level <= LevelDebug:
		return "debug"
	case level <= LevelInfo:
		return "info"
	case level <= LevelWarn:
		return "warn"
	case level <= LevelError:
		return "error"
	}
	return "crit"
}

type leveledHandler struct {
	slog.Handler
	level *slog.LevelVar
}

func (h *leveledHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.Handler.Enabled(ctx, level)
}

func (h *leveledHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &leveledHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *leveledHandler) WithGroup(name string) slog.Handler {
	return &leveledHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}
