package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve returns a [kong.ConfigurationLoader] that reads the YAML mapping
// named name from a config file, as written by the init command:
//
//	tpt:
//	  log-level: debug
//	  include:
//	    - ./partials
//	  max-depth: 50
//
// Nested mappings are joined with hyphens, so
//
//	tpt:
//	  log:
//	    level: debug
//
// sets --log-level as well. Keys may use underscores in place of hyphens.
// A file that cannot be parsed, or that lacks the mapping, configures
// nothing; command-line flags override config file values.
func resolve(name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		err := yaml.NewDecoder(r).Decode(&doc)
		if err != nil {
			return config{}, nil //nolint:nilerr
		}

		section, ok := doc[name].(map[string]any)
		if !ok {
			return config{}, nil
		}

		c := make(config)
		c.flatten("", section)

		return c, nil
	}
}

// config implements [kong.Resolver] over a flattened YAML mapping.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	if value, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

func (c config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := value.(map[string]any); ok {
			c.flatten(key, sub)

			continue
		}

		c[key] = flagValue(value)
	}
}

// flagValue converts a decoded YAML scalar to a form kong can map. Kong
// parses numbers from their text, so they are passed as strings.
func flagValue(v any) any {
	switch val := v.(type) {
	case uint64:
		return strconv.FormatUint(val, 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = flagValue(item)
		}

		return items
	default:
		return val
	}
}
