package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func useDefault(t *testing.T, opts ...Option) *bytes.Buffer {
	t.Helper()

	original := defaultLog

	t.Cleanup(func() { defaultLog = original })

	var buf bytes.Buffer

	Config(append([]Option{WithOutput(&buf), WithPretty(false), WithFormat(FormatJSON)}, opts...)...)

	return &buf
}

func TestPackage_Functions(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
	}{
		{"Trace", Trace, "TRACE"},
		{"Debug", Debug, "DEBUG"},
		{"Info", Info, "INFO"},
		{"Warn", Warn, "WARN"},
		{"Error", Error, "ERROR"},
		{"TraceContext", func(m string, a ...slog.Attr) { TraceContext(context.Background(), m, a...) }, "TRACE"},
		{"DebugContext", func(m string, a ...slog.Attr) { DebugContext(context.Background(), m, a...) }, "DEBUG"},
		{"InfoContext", func(m string, a ...slog.Attr) { InfoContext(context.Background(), m, a...) }, "INFO"},
		{"WarnContext", func(m string, a ...slog.Attr) { WarnContext(context.Background(), m, a...) }, "WARN"},
		{"ErrorContext", func(m string, a ...slog.Attr) { ErrorContext(context.Background(), m, a...) }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := useDefault(t, WithLevel(LevelTrace))

			tt.fn("package message", slog.String("key", "value"))

			out := buf.String()
			for _, want := range []string{"package message", `"level":"` + tt.level + `"`, `"key":"value"`} {
				if !strings.Contains(out, want) {
					t.Errorf("output %q lacks %q", out, want)
				}
			}
		})
	}
}

func TestPackage_With(t *testing.T) {
	buf := useDefault(t, WithLevel(LevelInfo))

	With(slog.String("cmd", "render")).Info("start")

	if !strings.Contains(buf.String(), `"cmd":"render"`) {
		t.Errorf("attribute missing: %q", buf.String())
	}

	if Default().Level() != LevelInfo {
		t.Errorf("Default().Level() = %v", Default().Level())
	}
}
