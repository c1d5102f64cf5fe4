// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Loggers are configured with functional options when they are created.
// Diagnostics go to stderr by default so they never interleave with
// templates rendered to stdout.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr, log.WithLevel(log.LevelDebug))
//	logger.Info("rendering", slog.String("template", path))
//	logger.Error("render failed", slog.Any("error", err))
//
// The package-level functions ([Info], [Debug], and so on) log through a
// default logger that [Config] reconfigures.
//
// # Levels
//
// Five levels are defined, from most to least verbose: [LevelTrace],
// [LevelDebug], [LevelInfo], [LevelWarn], and [LevelError]. The trace level
// reports individual directives and macro calls as templates are evaluated.
//
// # Output
//
// Records are written as [FormatText] (the default) or [FormatJSON]. With
// [WithPretty], records are styled for reading in a terminal: values are
// unquoted, JSON objects are indented, and colors are applied when the
// output supports them. Attributes of groups and [slog.LogValuer] values are
// flattened into dotted keys such as "error.line".
//
// # Time Formatting
//
// [WithTimeLayout] accepts any named layout from the [time] package (such as
// "RFC3339" or "Kitchen"), a custom layout string, or "none" to omit
// timestamps.
package log
