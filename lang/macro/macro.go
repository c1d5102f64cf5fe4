// Package macro stores user-defined template macros and binds their
// parameters for the duration of a call.
package macro

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/tpt/pkg"
)

var (
	ErrEmptyBody   = pkg.NewError("macro body is empty")
	ErrEmptyName   = pkg.NewError("macro requires a name")
	ErrTooManyArgs = pkg.NewError("too many arguments")
)

// Macro is a named, parameterized block of unparsed template text.
// Body is re-scanned from scratch on every call.
type Macro struct {
	Name   string
	Params []string
	Body   string
	Line   int
}

// Store holds every macro defined while rendering one template tree.
type Store struct {
	macros map[string]Macro
}

// New returns an empty Store.
func New() *Store {
	return &Store{macros: make(map[string]Macro)}
}

// Define adds m to the store, replacing any macro of the same name.
func (s *Store) Define(m Macro) error {
	if m.Name == "" {
		return ErrEmptyName
	}

	if m.Body == "" {
		return ErrEmptyBody.With(slog.String("macro", m.Name))
	}

	m.Params = slices.Clone(m.Params)
	s.macros[m.Name] = m

	return nil
}

// Lookup returns the macro called name.
func (s *Store) Lookup(name string) (Macro, bool) {
	m, ok := s.macros[name]

	return m, ok
}

// Names returns the defined macro names in sorted order.
func (s *Store) Names() []string {
	return slices.Sorted(maps.Keys(s.macros))
}

// Len returns the number of macros defined.
func (s *Store) Len() int { return len(s.macros) }
