// Package symbols implements the variable store shared by every evaluator
// processing one template.
//
// Each identifier maps to an ordered sequence of strings; a scalar is a
// sequence of one. Identifiers may be written as "name", "${name}",
// "name[index]", or with embedded references such as "user_${n}.email". An
// index that is not an integer literal is evaluated through an [Expander],
// which lets a template write ${list[${i} + 1]}.
//
// A Table is not safe for concurrent use. Hosts that render concurrently
// should serialize access or give each goroutine its own [Table.Clone].
package symbols

import (
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/tpt/pkg"
)

// MaxArraySize bounds the number of elements any array may hold.
const MaxArraySize = 65536

var (
	ErrArrayBounds   = pkg.NewError("array index out of range")
	ErrReadOnly      = pkg.NewError("identifier is read-only")
	ErrBadIdentifier = pkg.NewError("malformed identifier")
	ErrIndex         = pkg.NewError("invalid array index")
)

// Expander evaluates the expression found inside an identifier's brackets.
type Expander interface {
	Expand(expr string) (string, error)
}

type entry struct {
	values   []string
	array    bool
	readonly bool
}

func (e *entry) clone() *entry {
	c := *e
	c.values = slices.Clone(e.values)

	return &c
}

// Table stores template variables.
type Table struct {
	entries map[string]*entry
}

// Option configures a [Table] at construction.
type Option func(*Table)

// WithBuiltins replaces the default read-only built-in identifiers.
// A nil map seeds no built-ins.
func WithBuiltins(builtins map[string]string) Option {
	return func(t *Table) {
		for name, e := range t.entries {
			if e.readonly {
				delete(t.entries, name)
			}
		}

		for name, value := range builtins {
			t.entries[name] = &entry{values: []string{value}, readonly: true}
		}
	}
}

// DefaultBuiltins returns the identifiers seeded into every new [Table].
func DefaultBuiltins() map[string]string {
	return map[string]string{
		"template_version":   pkg.Version(),
		"template_library":   pkg.Library,
		"template_fullname":  pkg.FullName(),
		"template_author":    pkg.AuthorNames(),
		"template_copyright": pkg.Copyright,
		"template_license":   pkg.License,
	}
}

// New returns a Table seeded with [DefaultBuiltins].
func New(opts ...Option) *Table {
	t := &Table{entries: make(map[string]*entry)}

	WithBuiltins(DefaultBuiltins())(t)

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	c := &Table{entries: make(map[string]*entry, len(t.entries))}
	for name, e := range t.entries {
		c.entries[name] = e.clone()
	}

	return c
}

// Len returns the number of identifiers defined.
func (t *Table) Len() int { return len(t.entries) }

// Names returns all defined identifier names in sorted order.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.entries))
}

// Get returns the value of id. An identifier without an index that names an
// array yields its first element; an index outside the array yields "".
// The boolean reports whether the identifier (and index) exist.
func (t *Table) Get(id string, x Expander) (string, bool) {
	r, err := t.resolve(id, x)
	if err != nil {
		return "", false
	}

	e, ok := t.entries[r.name]
	if !ok {
		return "", false
	}

	i := 0
	if r.indexed {
		i = r.index
	}

	if i < 0 || i >= len(e.values) {
		return "", false
	}

	return e.values[i], true
}

// GetArray returns a copy of every element of id.
func (t *Table) GetArray(id string, x Expander) []string {
	r, err := t.resolve(id, x)
	if err != nil {
		return nil
	}

	e, ok := t.entries[r.name]
	if !ok {
		return nil
	}

	if r.indexed {
		if r.index < 0 || r.index >= len(e.values) {
			return nil
		}

		return []string{e.values[r.index]}
	}

	return slices.Clone(e.values)
}

// Set assigns value to id. Without an index the identifier becomes a scalar;
// with an index the array is extended as needed up to [MaxArraySize].
func (t *Table) Set(id, value string, x Expander) error {
	r, err := t.writable(id, x)
	if err != nil {
		return err
	}

	if !r.indexed {
		t.entries[r.name] = &entry{values: []string{value}}

		return nil
	}

	if r.index < 0 || r.index >= MaxArraySize {
		return ErrArrayBounds.With(slog.String("id", id), slog.Int("index", r.index))
	}

	e, ok := t.entries[r.name]
	if !ok {
		e = &entry{}
		t.entries[r.name] = e
	}

	for len(e.values) <= r.index {
		e.values = append(e.values, "")
	}

	e.values[r.index] = value
	e.array = true

	return nil
}

// SetArray assigns values to id as an array. Elements beyond [MaxArraySize]
// are dropped and reported as an error.
func (t *Table) SetArray(id string, values []string, x Expander) error {
	r, err := t.writable(id, x)
	if err != nil {
		return err
	}

	if r.indexed {
		return ErrBadIdentifier.With(slog.String("id", id), slog.String("reason", "array assignment to element"))
	}

	var overflow error

	if len(values) > MaxArraySize {
		values = values[:MaxArraySize]
		overflow = ErrArrayBounds.With(slog.String("id", id), slog.Int("index", MaxArraySize))
	}

	t.entries[r.name] = &entry{values: slices.Clone(values), array: true}

	return overflow
}

// Push appends value to the array id, creating it if necessary. A scalar
// becomes the first element of the new array.
func (t *Table) Push(id, value string, x Expander) error {
	r, err := t.writable(id, x)
	if err != nil {
		return err
	}

	e, ok := t.entries[r.name]
	if !ok {
		e = &entry{}
		t.entries[r.name] = e
	}

	if len(e.values) >= MaxArraySize {
		return ErrArrayBounds.With(slog.String("id", id), slog.Int("index", len(e.values)))
	}

	e.values = append(e.values, value)
	e.array = true

	return nil
}

// Pop removes and returns the last element of id.
func (t *Table) Pop(id string, x Expander) (string, bool) {
	r, err := t.writable(id, x)
	if err != nil {
		return "", false
	}

	e, ok := t.entries[r.name]
	if !ok || len(e.values) == 0 {
		return "", false
	}

	last := e.values[len(e.values)-1]
	e.values = e.values[:len(e.values)-1]

	return last, true
}

// Exists reports whether id (and its index, if any) is defined.
func (t *Table) Exists(id string, x Expander) bool {
	_, ok := t.Get(id, x)
	if ok {
		return true
	}

	r, err := t.resolve(id, x)
	if err != nil || r.indexed {
		return false
	}

	_, ok = t.entries[r.name]

	return ok
}

// Empty reports whether id is undefined or holds only an empty value.
func (t *Table) Empty(id string, x Expander) bool {
	r, err := t.resolve(id, x)
	if err != nil {
		return true
	}

	e, ok := t.entries[r.name]
	if !ok || len(e.values) == 0 {
		return true
	}

	if r.indexed {
		return r.index < 0 || r.index >= len(e.values) || e.values[r.index] == ""
	}

	return len(e.values) == 1 && e.values[0] == ""
}

// IsArray reports whether id holds an array.
func (t *Table) IsArray(id string, x Expander) bool {
	r, err := t.resolve(id, x)
	if err != nil || r.indexed {
		return false
	}

	e, ok := t.entries[r.name]

	return ok && (e.array || len(e.values) > 1)
}

// Size returns the number of elements held by id, or 0 if undefined.
func (t *Table) Size(id string, x Expander) int {
	r, err := t.resolve(id, x)
	if err != nil {
		return 0
	}

	if e, ok := t.entries[r.name]; ok {
		return len(e.values)
	}

	return 0
}

// Unset removes id. With an index only that element is cleared.
func (t *Table) Unset(id string, x Expander) error {
	r, err := t.writable(id, x)
	if err != nil {
		return err
	}

	if !r.indexed {
		delete(t.entries, r.name)

		return nil
	}

	if e, ok := t.entries[r.name]; ok && r.index >= 0 && r.index < len(e.values) {
		e.values[r.index] = ""
	}

	return nil
}

// Binding is a saved copy of one identifier's state, including whether it
// existed at all.
type Binding struct {
	name  string
	entry *entry
}

// Name returns the identifier the binding was taken from.
func (b Binding) Name() string { return b.name }

// Snapshot records the current state of the plain identifier name.
func (t *Table) Snapshot(name string) Binding {
	b := Binding{name: name}
	if e, ok := t.entries[name]; ok {
		b.entry = e.clone()
	}

	return b
}

// Restore returns an identifier to the state recorded by [Table.Snapshot].
// An identifier that did not exist is removed.
func (t *Table) Restore(b Binding) {
	if b.entry == nil {
		delete(t.entries, b.name)

		return
	}

	t.entries[b.name] = b.entry.clone()
}

// ref is a resolved identifier.
type ref struct {
	name    string
	index   int
	indexed bool
}

func (t *Table) writable(id string, x Expander) (ref, error) {
	r, err := t.resolve(id, x)
	if err != nil {
		return r, err
	}

	if e, ok := t.entries[r.name]; ok && e.readonly {
		return r, ErrReadOnly.With(slog.String("id", r.name))
	}

	return r, nil
}

// resolve converts an identifier as written in a template into a canonical
// name and optional index.
func (t *Table) resolve(id string, x Expander) (ref, error) {
	id = unwrap(strings.TrimSpace(id))
	if id == "" {
		return ref{}, ErrBadIdentifier.With(slog.String("id", id))
	}

	name, index, indexed, err := splitIndex(id)
	if err != nil {
		return ref{}, err
	}

	name, err = t.expandName(name, x)
	if err != nil {
		return ref{}, err
	}

	r := ref{name: name}

	if !indexed {
		return r, nil
	}

	r.indexed = true

	if n, ok := parseLiteral(index); ok {
		r.index = n

		return r, nil
	}

	var value string

	switch {
	case x != nil:
		value, err = x.Expand(index)
		if err != nil {
			return ref{}, ErrIndex.Wrap(err).With(slog.String("id", id))
		}

	case strings.HasPrefix(strings.TrimSpace(index), "${"):
		value, _ = t.Get(index, nil)

	default:
		return ref{}, ErrIndex.With(slog.String("id", id), slog.String("index", index))
	}

	r.index = int(ParseInt(value))

	return r, nil
}

// expandName replaces each embedded ${...} reference in name with its value.
func (t *Table) expandName(name string, x Expander) (string, error) {
	if !strings.Contains(name, "${") {
		return name, nil
	}

	var sb strings.Builder

	for i := 0; i < len(name); {
		if !strings.HasPrefix(name[i:], "${") {
			sb.WriteByte(name[i])
			i++

			continue
		}

		end := matchBrace(name, i+1)
		if end < 0 {
			return "", ErrBadIdentifier.With(slog.String("id", name))
		}

		value, _ := t.Get(name[i:end+1], x)
		sb.WriteString(value)

		i = end + 1
	}

	return sb.String(), nil
}

// unwrap strips any number of enclosing ${ } wrappers.
func unwrap(id string) string {
	for strings.HasPrefix(id, "${") && matchBrace(id, 1) == len(id)-1 {
		id = strings.TrimSpace(id[2 : len(id)-1])
	}

	return id
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(s string, open int) int {
	depth := 0

	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// splitIndex separates a trailing [index] from name. Brackets inside embedded
// references do not count.
func splitIndex(id string) (name, index string, indexed bool, err error) {
	depth := 0

	for i := 0; i < len(id); i++ {
		switch id[i] {
		case '{':
			depth++
		case '}':
			depth--
		case '[':
			if depth > 0 {
				continue
			}

			if !strings.HasSuffix(id, "]") || i == 0 {
				return "", "", false, ErrBadIdentifier.With(slog.String("id", id))
			}

			return id[:i], id[i+1 : len(id)-1], true, nil
		}
	}

	return id, "", false, nil
}

// parseLiteral parses an optionally negative decimal integer literal.
func parseLiteral(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}

	return n, true
}

// ParseInt converts a string to an integer the way template arithmetic does:
// an optional leading '-' followed by decimal digits. Scanning stops at the
// first non-digit, so "12ab" is 12 and "abc" is 0.
func ParseInt(s string) int64 {
	neg := false
	i := 0

	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}

	var n int64

	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int64(s[i]-'0')
	}

	if neg {
		return -n
	}

	return n
}

// FormatInt renders n in decimal.
func FormatInt(n int64) string { return strconv.FormatInt(n, 10) }
