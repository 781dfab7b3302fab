// Package synthesis turns natural-language instructions into structured
// data by prompting a generative model and validating what comes back.
package synthesis

import (
	"fmt"
	"strings"
)

// Kind enumerates the container kinds a Shape can describe.
type Kind string

// KindArray and KindObject are the supported container kinds.
const (
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// Shape is a minimal structural descriptor for generated output: a
// container kind plus required keys. It sanity-checks model output
// before it is handed to callers; it is not a full type schema and
// never inspects leaf values.
type Shape struct {
	// Kind is the expected container kind.
	Kind Kind

	// RequiredKeys lists keys an object must contain. Ignored for arrays.
	RequiredKeys []string

	// Example optionally overrides the rendered shape description shown
	// to the model (e.g. a sample document with annotated values).
	Example string
}

// ArrayShape returns a shape matching any JSON array.
func ArrayShape() Shape {
	return Shape{Kind: KindArray}
}

// ObjectShape returns a shape matching a JSON object containing every
// given key.
func ObjectShape(requiredKeys ...string) Shape {
	return Shape{Kind: KindObject, RequiredKeys: requiredKeys}
}

// WithExample returns a copy of the shape with an explicit prompt rendering.
func (s Shape) WithExample(example string) Shape {
	s.Example = example
	return s
}

// Matches reports whether value conforms to the shape. Validation is
// structural only: container kind and presence of required keys. It is
// advisory — a false result feeds a fallback decision, so no error is
// ever returned.
func (s Shape) Matches(value any) bool {
	switch s.Kind {
	case KindArray:
		_, ok := value.([]any)
		return ok
	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return false
		}
		for _, key := range s.RequiredKeys {
			if _, present := obj[key]; !present {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Describe renders the expected JSON shape for inclusion in a prompt.
func (s Shape) Describe() string {
	if s.Example != "" {
		return s.Example
	}

	switch s.Kind {
	case KindArray:
		return "[...]"
	case KindObject:
		if len(s.RequiredKeys) == 0 {
			return "{...}"
		}
		fields := make([]string, len(s.RequiredKeys))
		for i, key := range s.RequiredKeys {
			fields[i] = fmt.Sprintf("%q: \"...\"", key)
		}
		return "{" + strings.Join(fields, ", ") + "}"
	default:
		return ""
	}
}
