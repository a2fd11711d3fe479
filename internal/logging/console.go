package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// timestampLayout is shared by the console and json handlers.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// passIDPrefix is how much of a pass id the console shows.
const passIDPrefix = 8

// consoleHandler renders one line per record:
//
//	ts LEVEL component: message (pass 1a2b3c4d) key=value ...
//
// String values spanning several lines, such as rendered announcements, are
// printed as an indented block under the line.
type consoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []field
	prefix    string
	addSource bool
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]field(nil), h.attrs...), flatten(h.prefix, attrs)...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	fields := append([]field(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, flatten(h.prefix, []slog.Attr{attr})...)
		return true
	})

	var component, passID string
	var inline, blocks []field
	for _, f := range fields {
		switch {
		case f.key == FieldComponent:
			if component == "" {
				component = plainString(f.value)
			}
		case f.key == FieldPassID:
			passID = plainString(f.value)
		case f.value.Kind() == slog.KindString && strings.Contains(f.value.String(), "\n"):
			blocks = append(blocks, f)
		default:
			inline = append(inline, f)
		}
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(timestamp.UTC().Format(timestampLayout))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	buf.WriteByte(' ')
	if component != "" {
		buf.WriteString(component)
		buf.WriteString(": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if passID != "" {
		if len(passID) > passIDPrefix {
			passID = passID[:passIDPrefix]
		}
		buf.WriteString(" (pass ")
		buf.WriteString(passID)
		buf.WriteByte(')')
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range inline {
		buf.WriteByte(' ')
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(f.value))
	}
	buf.WriteByte('\n')
	for _, f := range blocks {
		buf.WriteString("    ")
		buf.WriteString(f.key)
		buf.WriteString(":\n")
		for _, line := range strings.Split(strings.TrimRight(f.value.String(), "\n"), "\n") {
			buf.WriteString("      ")
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func flatten(prefix string, attrs []slog.Attr) []field {
	var out []field
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		value := attr.Value.Resolve()
		if value.Kind() == slog.KindGroup {
			next := prefix
			if attr.Key != "" {
				next = prefix + attr.Key + "."
			}
			out = append(out, flatten(next, value.Group())...)
			continue
		}
		key := prefix + attr.Key
		if attr.Key == "" {
			key = strings.TrimSuffix(prefix, ".")
		}
		out = append(out, field{key: key, value: value})
	}
	return out
}

func plainString(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return formatValue(v)
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(timestampLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
