package symbols

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the shape of an [Object].
type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindHash
)

// Object is a host value tree used to move structured data between Go code
// and a [Table]: decoded configuration files, native function arguments, and
// so on.
type Object struct {
	Hash   map[string]Object
	Scalar string
	Array  []Object
	Kind   Kind
}

// Scalar returns a scalar Object.
func Scalar(s string) Object { return Object{Kind: KindScalar, Scalar: s} }

// Array returns an array Object holding items.
func Array(items ...Object) Object { return Object{Kind: KindArray, Array: items} }

// Strings returns an array Object of scalars.
func Strings(items ...string) Object {
	o := Object{Kind: KindArray, Array: make([]Object, len(items))}
	for i, s := range items {
		o.Array[i] = Scalar(s)
	}

	return o
}

// Hash returns a hash Object holding m.
func Hash(m map[string]Object) Object { return Object{Kind: KindHash, Hash: m} }

// FromAny converts decoded YAML or JSON data into an Object. Booleans become
// "1" and "0", integral floats are rendered without a fraction, and nil
// becomes the empty scalar.
func FromAny(v any) Object {
	switch val := v.(type) {
	case nil:
		return Scalar("")
	case Object:
		return val
	case string:
		return Scalar(val)
	case bool:
		if val {
			return Scalar("1")
		}

		return Scalar("0")
	case int:
		return Scalar(strconv.Itoa(val))
	case int64:
		return Scalar(strconv.FormatInt(val, 10))
	case uint64:
		return Scalar(strconv.FormatUint(val, 10))
	case float64:
		if val == float64(int64(val)) {
			return Scalar(strconv.FormatInt(int64(val), 10))
		}

		return Scalar(strconv.FormatFloat(val, 'g', -1, 64))
	case []string:
		return Strings(val...)
	case []any:
		items := make([]Object, len(val))
		for i, item := range val {
			items[i] = FromAny(item)
		}

		return Array(items...)
	case map[string]any:
		m := make(map[string]Object, len(val))
		for k, item := range val {
			m[k] = FromAny(item)
		}

		return Hash(m)
	case map[any]any:
		m := make(map[string]Object, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = FromAny(item)
		}

		return Hash(m)
	default:
		return Scalar(fmt.Sprint(val))
	}
}

// Values returns the scalar strings held by o: itself for a scalar, the
// scalar elements of an array, or nothing for a hash.
func (o Object) Values() []string {
	switch o.Kind {
	case KindScalar:
		return []string{o.Scalar}
	case KindArray:
		out := make([]string, 0, len(o.Array))
		for _, item := range o.Array {
			if item.Kind == KindScalar {
				out = append(out, item.Scalar)
			}
		}

		return out
	default:
		return nil
	}
}

// String renders o compactly for diagnostics.
func (o Object) String() string {
	switch o.Kind {
	case KindArray:
		parts := make([]string, len(o.Array))
		for i, item := range o.Array {
			parts[i] = item.String()
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case KindHash:
		keys := slices.Sorted(maps.Keys(o.Hash))
		parts := make([]string, len(keys))

		for i, k := range keys {
			parts[i] = k + ": " + o.Hash[k].String()
		}

		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return o.Scalar
	}
}

// SetObject stores o under id. Arrays of scalars become arrays; a hash is
// stored as one identifier per key, "id.key". Containers nested inside an
// array are stored under "id.N" for element N.
func (t *Table) SetObject(id string, o Object, x Expander) error {
	switch o.Kind {
	case KindScalar:
		return t.Set(id, o.Scalar, x)

	case KindArray:
		scalars := make([]string, len(o.Array))

		for i, item := range o.Array {
			if item.Kind == KindScalar {
				scalars[i] = item.Scalar

				continue
			}

			err := t.SetObject(id+"."+strconv.Itoa(i), item, x)
			if err != nil {
				return err
			}
		}

		return t.SetArray(id, scalars, x)

	case KindHash:
		for _, k := range slices.Sorted(maps.Keys(o.Hash)) {
			err := t.SetObject(id+"."+k, o.Hash[k], x)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Object returns the value of id as an Object: an array for arrays, otherwise
// a scalar.
func (t *Table) Object(id string, x Expander) Object {
	if t.IsArray(id, x) {
		return Strings(t.GetArray(id, x)...)
	}

	v, _ := t.Get(id, x)

	return Scalar(v)
}
