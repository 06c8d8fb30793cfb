// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package logger

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	current atomic.Int32
	std     = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	current.Store(int32(LevelInfo))
}

// SetLevel sets the minimum level that is written out.
func SetLevel(l Level) {
	current.Store(int32(l))
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "?"
}

func DebugC(component, msg string)                             { emit(LevelDebug, component, msg, nil) }
func InfoC(component, msg string)                              { emit(LevelInfo, component, msg, nil) }
func WarnC(component, msg string)                              { emit(LevelWarn, component, msg, nil) }
func ErrorC(component, msg string)                             { emit(LevelError, component, msg, nil) }
func DebugCF(component, msg string, fields map[string]any)     { emit(LevelDebug, component, msg, fields) }
func InfoCF(component, msg string, fields map[string]any)      { emit(LevelInfo, component, msg, fields) }
func WarnCF(component, msg string, fields map[string]any)      { emit(LevelWarn, component, msg, fields) }
func ErrorCF(component, msg string, fields map[string]any)     { emit(LevelError, component, msg, fields) }

func emit(l Level, component, msg string, fields map[string]any) {
	if int32(l) < current.Load() {
		return
	}
	if len(fields) == 0 {
		std.Printf("%-5s [%s] %s", l, component, msg)
		return
	}

	// Sorted keys keep log lines stable for grepping.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fmt.Sprintf("%v", fields[k]))
	}
	std.Printf("%-5s [%s] %s%s", l, component, msg, b.String())
}
