// Package cmd implements the tpt subcommands: render, serve, repl, init and
// version.
//
// Every command that evaluates templates builds its variables the same way
// (see [Vars]) and registers the same native functions (see [Functions]).
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file written by init.
	ConfigIdentifier = "config"
)
