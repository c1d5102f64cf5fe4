package cmd

import (
	"context"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the interpolation variable named id, or "" when ctx
// carries no kong context.
func kongVar(ctx context.Context, id string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[id]
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueSources returns the template paths to render in command-line order
// with duplicates removed. Paths naming the same file through symlinks or
// different spellings are rendered once. Every "-" (or a path naming the
// same file as stdin) collapses to a single trailing "-".
//
// Paths that cannot be resolved are kept so that opening them reports the
// error.
func uniqueSources(sources []string) []string {
	if len(sources) == 0 {
		return []string{stdinSource}
	}

	seen := make(map[fileKey]struct{}, len(sources))
	paths := make([]string, 0, len(sources))

	var (
		stdinKey fileKey
		hasKey   bool
		stdin    bool
	)

	if info, err := os.Stdin.Stat(); err == nil {
		stdinKey, hasKey = makeFileKey(info)
	}

	for _, src := range sources {
		if src == stdinSource {
			stdin = true

			continue
		}

		key, ok := statKey(src)
		if !ok {
			paths = append(paths, src)

			continue
		}

		if hasKey && key == stdinKey {
			stdin = true

			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		paths = append(paths, src)
	}

	if stdin {
		paths = append(paths, stdinSource)
	}

	return paths
}

// statKey resolves path through any symlinks and returns its identity.
func statKey(path string) (fileKey, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
