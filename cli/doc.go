// Package cli contains the command line interface for tpt.
//
// # Commands
//
//	tpt [render] [flags] [template ...]   render templates (default command)
//	tpt serve [flags]                     render templates on request over HTTP
//	tpt repl [flags]                      render template text interactively
//	tpt init [--force]                    write the configuration file
//	tpt version                           print version information
//
// Templates named on the command line share one variable table and macro
// store, so definitions made by one are visible to the next. A template
// named "-", or no template at all, is read from standard input.
//
// # Variables
//
//	-D name=value        set a variable
//	--vars file.yaml     load each key of a YAML or JSON mapping
//	--define name=expr   set a variable to an expr-lang expression result
//
// # Configuration
//
// Flags may also be given in config.yaml under the user configuration
// directory, in a mapping named tpt. Keys are flag names; nested mappings
// are joined with hyphens. The init command writes the current global flags
// to that file. Command-line flags take precedence.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o tpt .
//
//   - --pprof-mode: Enable profiling (cpu, mem, trace, ...)
//   - --pprof-dir: Set profile output directory
package cli
