// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log defines the scanner's logger interface. By default it writes
// leveled, human-readable records to stderr but it can be replaced with
// user-defined loggers.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Logger is the logging interface used throughout the scanner.
type Logger interface {
	// Logs in different log levels, either formatted or unformatted.
	Errorf(format string, args ...any)
	Error(args ...any)
	Warnf(format string, args ...any)
	Warn(args ...any)
	Infof(format string, args ...any)
	Info(args ...any)
	Debugf(format string, args ...any)
	Debug(args ...any)
}

var logger Logger = NewDefaultLogger(os.Stderr, false)

// SetLogger overwrites the default logger with a user specified one.
func SetLogger(l Logger) { logger = l }

// Errorf is the static formatted error logging function.
func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}

// Warnf is the static formatted warning logging function.
func Warnf(format string, args ...any) {
	logger.Warnf(format, args...)
}

// Infof is the static formatted info logging function.
func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

// Debugf is the static formatted debug logging function.
func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Error is the static error logging function.
func Error(args ...any) {
	logger.Error(args...)
}

// Warn is the static warning logging function.
func Warn(args ...any) {
	logger.Warn(args...)
}

// Info is the static info logging function.
func Info(args ...any) {
	logger.Info(args...)
}

// Debug is the static debug logging function.
func Debug(args ...any) {
	logger.Debug(args...)
}

// DefaultLogger is the Logger implementation used by default.
// It writes colorized slog records through a tint handler.
type DefaultLogger struct {
	l *slog.Logger
}

// NewDefaultLogger returns a DefaultLogger writing to w. Debug records are
// only emitted when verbose is set.
func NewDefaultLogger(w io.Writer, verbose bool) *DefaultLogger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	})
	return &DefaultLogger{l: slog.New(h)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func (d *DefaultLogger) log(level slog.Level, msg string) {
	d.l.Log(context.Background(), level, msg)
}

// Errorf is the formatted error logging function.
func (d *DefaultLogger) Errorf(format string, args ...any) {
	d.log(slog.LevelError, fmt.Sprintf(format, args...))
}

// Warnf is the formatted warning logging function.
func (d *DefaultLogger) Warnf(format string, args ...any) {
	d.log(slog.LevelWarn, fmt.Sprintf(format, args...))
}

// Infof is the formatted info logging function.
func (d *DefaultLogger) Infof(format string, args ...any) {
	d.log(slog.LevelInfo, fmt.Sprintf(format, args...))
}

// Debugf is the formatted debug logging function.
func (d *DefaultLogger) Debugf(format string, args ...any) {
	d.log(slog.LevelDebug, fmt.Sprintf(format, args...))
}

// Error is the error logging function.
func (d *DefaultLogger) Error(args ...any) {
	d.log(slog.LevelError, fmt.Sprint(args...))
}

// Warn is the warning logging function.
func (d *DefaultLogger) Warn(args ...any) {
	d.log(slog.LevelWarn, fmt.Sprint(args...))
}

// Info is the info logging function.
func (d *DefaultLogger) Info(args ...any) {
	d.log(slog.LevelInfo, fmt.Sprint(args...))
}

// Debug is the debug logging function.
func (d *DefaultLogger) Debug(args ...any) {
	d.log(slog.LevelDebug, fmt.Sprint(args...))
}
