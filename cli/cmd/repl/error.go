package repl

import "github.com/ardnew/tpt/pkg"

// Sentinel errors.
var (
	ErrOutOfBounds = pkg.NewError("index out of range")
	ErrNotTerminal = pkg.NewError("standard input is not a terminal")
)
