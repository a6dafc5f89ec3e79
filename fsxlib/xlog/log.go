// Copyright 2024 The FSXVol Authors
// This file is part of FSXVol.
//
// FSXVol is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// FSXVol is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with FSXVol. If not, see <http://www.gnu.org/licenses/>.

// Package xlog is the structured logger threaded explicitly through the
// distribution core, the migration engine and the volume-op surface. No
// package-level logger is exposed: every component that needs one takes a
// *Logger constructor argument, so the "current context" stays an explicit
// parameter rather than ambient global state.
package xlog

import (
	"go.uber.org/zap"
)

// Logger is the minimal structured-logging surface callers in this module
// depend on. It wraps a *zap.SugaredLogger and forwards to its corresponding
// methods.
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a production logger at the given level ("debug", "info",
// "warn", "error"). An empty level defaults to "info".
func New(level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		var lv zap.AtomicLevel
		if err := lv.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
		cfg.Level = lv
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{s: l.Sugar()}, nil
}

// Nop returns a logger that discards everything, for tests and for library
// callers who don't want fsxvol's logging opinions.
func Nop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func (l *Logger) Debugw(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *Logger) Infow(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

// Sync flushes buffered log entries; call on process shutdown.
func (l *Logger) Sync() error { return l.s.Sync() }

// With returns a child logger with the given structured fields attached to
// every subsequent call, matching the way erigon threads a sub-logger
// ("log.New(log.Ctx{"subvol": id})") through a volume operation.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{s: l.s.With(kv...)}
}
