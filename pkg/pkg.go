//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

// Version is the semantic version of the tpt module embedded at build time.
// It is printed by the CLI version subcommand and seeded into every symbol
// table as a built-in identifier.
//
//go:embed VERSION
var version string

// Version returns the embedded semantic version with surrounding whitespace
// removed.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the canonical command and module identifier used across the
	// project. For example, it appears in help text and default config paths.
	Name = "tpt"
	// Library is the library name reported by the template_library built-in.
	Library = "TPTLib"
	// Description is a short, human-readable summary of the project used in
	// help output and documentation.
	Description = "Text template processor"
	// Copyright is the copyright notice reported by the template_copyright
	// built-in.
	Copyright = "Copyright (c) the tpt authors"
	// License is the license identifier reported by the template_license
	// built-in.
	License = "BSD-3-Clause"
)

// FullName returns the descriptive name of the template processor including
// its version, e.g. "TPTLib Text template processor Version 0.7.0".
func FullName() string {
	return Library + " " + Description + " Version " + Version()
}

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	// Name is the author's preferred name or handle.
	Name string
	// Email is the author's contact email address.
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}

// AuthorNames returns the comma-separated names of all authors.
func AuthorNames() string {
	names := make([]string, len(Author))
	for i, a := range Author {
		names[i] = a.Name
	}

	return strings.Join(names, ", ")
}
