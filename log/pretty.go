package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by the pretty handler. Styles are bound to
// a renderer for the handler's output, so they render plain text unless the
// output is a terminal with color support.
type palette struct {
	key   lipgloss.Style
	str   lipgloss.Style
	num   lipgloss.Style
	yes   lipgloss.Style
	no    lipgloss.Style
	dur   lipgloss.Style
	when  lipgloss.Style
	null  lipgloss.Style
	msg   lipgloss.Style
	trace lipgloss.Style
	debug lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)

	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return &palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		yes:   fg("2"),
		no:    fg("1"),
		dur:   fg("5"),
		when:  fg("4"),
		null:  fg("8"),
		msg:   r.NewStyle().Bold(true),
		trace: fg("5"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3").Bold(true),
		err:   fg("1").Bold(true),
	}
}

func (p *palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.err
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

func (p *palette) value(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(v.String())

	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")

	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())

	case slog.KindTime:
		return p.when.Render(v.Time().Format(time.RFC3339))

	default:
		if v.Any() == nil {
			return p.null.Render("null")
		}

		return p.str.Render(v.String())
	}
}

// field is one rendered key/value pair of a record.
type field struct {
	key, value string
}

// prettyHandler renders records for reading in a terminal. In text format a
// record is one line of key=value pairs; in JSON format it is an indented
// object with unquoted values. Group members are flattened to dotted keys.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	pal    *palette
	format Format
	attrs  []slog.Attr
	prefix string
}

func newPrettyHandler(w io.Writer, format Format, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		pal:    newPalette(w),
		format: format,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		t := slog.Time(slog.TimeKey, r.Time)
		if h.opts.ReplaceAttr != nil {
			t = h.opts.ReplaceAttr(nil, t)
		}

		if t.Key != "" {
			fields = append(fields, field{t.Key, h.pal.when.Render(t.Value.String())})
		}
	}

	fields = append(fields, field{slog.LevelKey, h.pal.level(r.Level).Render(label(r.Level))})

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			fields = append(fields, field{slog.SourceKey, h.pal.str.Render(fmt.Sprintf("%s:%d", src.File, src.Line))})
		}
	}

	fields = append(fields, field{slog.MessageKey, h.pal.msg.Render(r.Message)})

	for _, a := range h.attrs {
		fields = append(fields, field{a.Key, h.pal.value(a.Value)})
	}

	var extra []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		extra = flatten(extra, h.prefix, a)

		return true
	})

	for _, a := range extra {
		fields = append(fields, field{a.Key, h.pal.value(a.Value)})
	}

	var buf bytes.Buffer

	if h.format == FormatJSON {
		buf.WriteString("{\n")

		for i, f := range fields {
			if i > 0 {
				buf.WriteString(",\n")
			}

			buf.WriteString("  ")
			buf.WriteString(h.pal.key.Render(f.key))
			buf.WriteString(": ")
			buf.WriteString(f.value)
		}

		buf.WriteString("\n}\n")
	} else {
		for i, f := range fields {
			if i > 0 {
				buf.WriteByte(' ')
			}

			buf.WriteString(h.pal.key.Render(f.key))
			buf.WriteByte('=')
			buf.WriteString(f.value)
		}

		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h
	c.attrs = h.attrs[:len(h.attrs):len(h.attrs)]

	for _, a := range attrs {
		c.attrs = flatten(c.attrs, h.prefix, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

// flatten appends a to dst, resolving its value and expanding groups into
// attributes whose keys are joined with dots.
func flatten(dst []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return dst
		}

		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range group {
			dst = flatten(dst, prefix, g)
		}

		return dst
	}

	if a.Key == "" {
		return dst
	}

	a.Key = prefix + a.Key

	return append(dst, a)
}
