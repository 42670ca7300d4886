// Package model contains domain models passed between layers.
package model

// Category is one of the fixed academic/interest streams.
type Category string

// Streams in declared order. The order is the tie-break order used when
// ranking equal scores.
const (
	Science    Category = "science"
	Commerce   Category = "commerce"
	Arts       Category = "arts"
	Vocational Category = "vocational"
)

// Categories lists every stream in declared order.
var Categories = []Category{Science, Commerce, Arts, Vocational} //nolint:gochecknoglobals // fixed table

// Valid reports whether c is a declared stream.
func (c Category) Valid() bool {
	return c.Index() >= 0
}

// Index returns the declaration position of c, or -1 when unknown.
func (c Category) Index() int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return -1
}

func (c Category) String() string { return string(c) }

// ClassLevel identifies the school year a marks record belongs to.
type ClassLevel string

// Supported class levels.
const (
	Class10 ClassLevel = "Class10"
	Class12 ClassLevel = "Class12"
)

// Valid reports whether l is a supported class level.
func (l ClassLevel) Valid() bool {
	return l == Class10 || l == Class12
}
