package cmd

import (
	"context"

	"github.com/ardnew/tpt/cli/cmd/repl"
	"github.com/ardnew/tpt/lang/macro"
	"github.com/ardnew/tpt/log"
)

// Repl renders template text interactively, one line at a time. Variables
// and macros defined on one line are visible on the next.
type Repl struct {
	Engine `embed:""`
	Vars   `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	syms, err := r.Table(ctx)
	if err != nil {
		return err
	}

	return repl.Run(ctx, repl.Config{
		Symbols:     syms,
		Macros:      macro.New(),
		Functions:   Functions(syms),
		IncludePath: r.Include,
		MaxDepth:    r.MaxDepth,
		CacheDir:    kongVar(ctx, CacheIdentifier),
		Logger:      log.Default(),
	})
}
