package cli

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func flag(name string) *kong.Flag {
	return &kong.Flag{Value: &kong.Value{Name: name}}
}

func TestResolve(t *testing.T) {
	const doc = `
tpt:
  log-level: debug
  log:
    format: json
  max_depth: 50
  ratio: 1.5
  log-pretty: false
  include:
    - a
    - b
other:
  log-level: error
`

	resolver, err := resolve("tpt")(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want any
	}{
		{"log-level", "debug"},
		{"log-format", "json"},
		{"max-depth", "50"},
		{"ratio", "1.5"},
		{"log-pretty", false},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(nil, nil, flag(tt.name))
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("Resolve(%q) = %#v, want %#v", tt.name, got, tt.want)
			}
		})
	}

	got, _ := resolver.Resolve(nil, nil, flag("include"))
	if items, ok := got.([]any); !ok || !slices.Equal(items, []any{"a", "b"}) {
		t.Errorf("include = %#v", got)
	}
}

func TestResolve_Unusable(t *testing.T) {
	for name, doc := range map[string]string{
		"invalid":     "tpt: [unclosed",
		"no section":  "other:\n  log-level: debug\n",
		"not mapping": "tpt: 3\n",
		"empty":       "",
	} {
		t.Run(name, func(t *testing.T) {
			resolver, err := resolve("tpt")(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("unusable config should not fail: %v", err)
			}

			if got, _ := resolver.Resolve(nil, nil, flag("log-level")); got != nil {
				t.Errorf("Resolve = %#v, want nil", got)
			}
		})
	}
}

func TestResolve_Kong(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := os.WriteFile(path, []byte("tpt:\n  name: fromfile\n  count: 7\n  tags: [x, y]\n"), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	var cli struct {
		Name  string
		Count int
		Tags  []string
	}

	parser, err := kong.New(&cli, kong.Configuration(resolve("tpt"), path))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--name=flag"}); err != nil {
		t.Fatal(err)
	}

	if cli.Name != "flag" || cli.Count != 7 || !slices.Equal(cli.Tags, []string{"x", "y"}) {
		t.Errorf("parsed %+v", cli)
	}
}
