package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "debug"
	}
}

// maxFieldLen caps message and string-field length when verbose is off.
const maxFieldLen = 2 * 1024

var (
	mu       sync.RWMutex
	minLevel           = LevelWarn
	out      io.Writer = io.Discard
	secrets  []string
	verbose  bool
)

// SetOutput sets the destination for logs.
func SetOutput(w io.Writer) { mu.Lock(); out = w; mu.Unlock() }

// SetMinLevel sets the minimum level to emit.
func SetMinLevel(l Level) { mu.Lock(); minLevel = l; mu.Unlock() }

// SetVerbose disables truncation of large messages and fields.
func SetVerbose(v bool) { mu.Lock(); verbose = v; mu.Unlock() }

// RegisterSecret adds a string to be redacted in all output. Tokens must be
// registered before any request is issued with them.
func RegisterSecret(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	mu.Lock()
	secrets = append(secrets, s)
	mu.Unlock()
}

// Fields carries optional structured context for the *w logging variants.
type Fields map[string]any

// Debugf logs a debug message.
func Debugf(format string, args ...any) { emit(LevelDebug, fmt.Sprintf(format, args...), nil) }

// Infof logs an info message.
func Infof(format string, args ...any) { emit(LevelInfo, fmt.Sprintf(format, args...), nil) }

// Warnf logs a warning message.
func Warnf(format string, args ...any) { emit(LevelWarn, fmt.Sprintf(format, args...), nil) }

// Errorf logs an error message.
func Errorf(format string, args ...any) { emit(LevelError, fmt.Sprintf(format, args...), nil) }

// Debugw logs a debug message with structured fields.
func Debugw(msg string, f Fields) { emit(LevelDebug, msg, f) }

// Infow logs an info message with structured fields.
func Infow(msg string, f Fields) { emit(LevelInfo, msg, f) }

// Warnw logs a warning message with structured fields.
func Warnw(msg string, f Fields) { emit(LevelWarn, msg, f) }

// Errorw logs an error message with structured fields.
func Errorw(msg string, f Fields) { emit(LevelError, msg, f) }

type entry struct {
	TS     string `json:"ts"`
	Level  string `json:"level"`
	Msg    string `json:"msg"`
	Fields Fields `json:"fields,omitempty"`
}

func emit(lvl Level, msg string, fields Fields) {
	mu.RLock()
	ml, v, w := minLevel, verbose, out
	mu.RUnlock()
	if lvl < ml {
		return
	}
	msg = redact(msg)
	if !v {
		msg = truncate(msg, maxFieldLen)
	}
	for k, val := range fields {
		if s, ok := val.(string); ok {
			s = redact(s)
			if !v {
				s = truncate(s, maxFieldLen)
			}
			fields[k] = s
		}
	}
	e := entry{
		TS:     time.Now().Format(time.RFC3339Nano),
		Level:  lvl.String(),
		Msg:    msg,
		Fields: fields,
	}
	b, err := json.Marshal(e)
	if err != nil {
		_, _ = io.WriteString(w, msg+"\n")
		return
	}
	_, _ = w.Write(append(b, '\n'))
}

func redact(s string) string {
	mu.RLock()
	defer mu.RUnlock()
	for _, sec := range secrets {
		s = strings.ReplaceAll(s, sec, "[REDACTED]")
	}
	return s
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	// keep the tail to aid context
	suffix := "… [truncated]"
	if limit > len(suffix)+10 {
		return s[:limit-len(suffix)-10] + suffix + s[len(s)-10:]
	}
	return s[:limit]
}
