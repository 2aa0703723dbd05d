// Copyright 2025 The Mergebase Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package log provides leveled logging for mergebase.
//
// A Logger dispatches events to its writer; the package-level functions use
// the process-wide default logger, which writes to stderr until replaced.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// BaseLogger provides the basic logging functions
type BaseLogger interface {
	Log(skip int, level Level, format string, v ...any)
	GetLevel() Level
}

// LevelLogger provides level-related logging functions
type LevelLogger interface {
	LevelEnabled(level Level) bool

	Trace(format string, v ...any)
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
	Critical(format string, v ...any)
}

// Logger is the logging contract used throughout mergebase
type Logger interface {
	BaseLogger
	LevelLogger
}

// LoggerImpl writes formatted events to a single destination
type LoggerImpl struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
}

// NewLogger creates a logger writing events at or above level to out
func NewLogger(out io.Writer, level Level) *LoggerImpl {
	return &LoggerImpl{out: out, level: level}
}

// GetLevel returns the minimum level this logger emits
func (l *LoggerImpl) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel changes the minimum emitted level
func (l *LoggerImpl) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// LevelEnabled reports whether events at level would be emitted
func (l *LoggerImpl) LevelEnabled(level Level) bool {
	return level >= l.GetLevel()
}

// Log emits one event. skip is the caller stack depth for source attribution.
func (l *LoggerImpl) Log(skip int, level Level, format string, v ...any) {
	if !l.LevelEnabled(level) {
		return
	}
	caller := "?()"
	pc, filename, line, ok := runtime.Caller(skip + 1)
	if ok {
		fn := runtime.FuncForPC(pc)
		if fn != nil {
			caller = fn.Name() + "()"
		}
		caller = fmt.Sprintf("%s:%d:%s", filepath.Base(filename), line, caller)
	}
	msg := format
	if len(v) > 0 {
		msg = fmt.Sprintf(format, v...)
	}
	line0 := fmt.Sprintf("%s %s %s %s\n", time.Now().Format("2006/01/02 15:04:05"), caller, level.String(), msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line0)
}

func (l *LoggerImpl) Trace(format string, v ...any)    { l.Log(1, TRACE, format, v...) }
func (l *LoggerImpl) Debug(format string, v ...any)    { l.Log(1, DEBUG, format, v...) }
func (l *LoggerImpl) Info(format string, v ...any)     { l.Log(1, INFO, format, v...) }
func (l *LoggerImpl) Warn(format string, v ...any)     { l.Log(1, WARN, format, v...) }
func (l *LoggerImpl) Error(format string, v ...any)    { l.Log(1, ERROR, format, v...) }
func (l *LoggerImpl) Critical(format string, v ...any) { l.Log(1, CRITICAL, format, v...) }

var (
	defaultLogger Logger = NewLogger(os.Stderr, INFO)
	defaultMu     sync.RWMutex
)

// SetDefault replaces the process-wide default logger
func SetDefault(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// GetDefault returns the process-wide default logger
func GetDefault() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Trace records trace log
func Trace(format string, v ...any) {
	GetDefault().Log(1, TRACE, format, v...)
}

// Debug records debug log
func Debug(format string, v ...any) {
	GetDefault().Log(1, DEBUG, format, v...)
}

// Info records info log
func Info(format string, v ...any) {
	GetDefault().Log(1, INFO, format, v...)
}

// Warn records warning log
func Warn(format string, v ...any) {
	GetDefault().Log(1, WARN, format, v...)
}

// Error records error log
func Error(format string, v ...any) {
	GetDefault().Log(1, ERROR, format, v...)
}

// Critical records critical log
func Critical(format string, v ...any) {
	GetDefault().Log(1, CRITICAL, format, v...)
}

// Fatal records fatal log and exits the process
func Fatal(format string, v ...any) {
	GetDefault().Log(1, FATAL, format, v...)
	os.Exit(1)
}

// IsTraceEnabled reports whether the default logger emits trace events
func IsTraceEnabled() bool {
	return GetDefault().LevelEnabled(TRACE)
}
