package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ardnew/tpt/lang"
	"github.com/ardnew/tpt/lang/symbols"
	"github.com/ardnew/tpt/log"
)

// versionTemplate is rendered by the engine itself, so the output always
// agrees with the built-in identifiers templates see.
const versionTemplate = "${template_fullname}"

// Version prints the name and version of the template processor.
type Version struct {
	stdout io.Writer
}

// Run executes the version command.
func (v *Version) Run(ctx context.Context) error {
	out := v.stdout
	if out == nil {
		out = os.Stdout
	}

	s, err := lang.NewString(versionTemplate, symbols.New(),
		lang.WithLogger(log.Default())).RunString(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, s)

	return err
}
