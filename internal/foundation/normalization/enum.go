// Package normalization maps free-form configuration strings onto typed
// string enums.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Enum maps case-insensitive spellings, aliases included, onto values of T.
type Enum[T ~string] struct {
	name   string
	values map[string]T
	keys   []string
}

// NewEnum builds an Enum. name appears in error messages.
func NewEnum[T ~string](name string, spellings map[string]T) *Enum[T] {
	e := &Enum[T]{name: name, values: make(map[string]T, len(spellings))}
	for k, v := range spellings {
		k = clean(k)
		e.values[k] = v
		e.keys = append(e.keys, k)
	}
	sort.Strings(e.keys)
	return e
}

// Parse resolves raw. Blank input yields the zero value and no error so
// callers can apply their own default.
func (e *Enum[T]) Parse(raw string) (T, error) {
	key := clean(raw)
	if key == "" {
		return "", nil
	}
	if v, ok := e.values[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q, valid options: %v", e.name, raw, e.keys)
}

// ParseOr resolves raw and falls back to def for blank or unknown input.
func (e *Enum[T]) ParseOr(raw string, def T) T {
	v, err := e.Parse(raw)
	if err != nil || v == "" {
		return def
	}
	return v
}

// Spellings lists every accepted spelling, sorted.
func (e *Enum[T]) Spellings() []string {
	return append([]string(nil), e.keys...)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
