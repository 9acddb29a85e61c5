package types

import (
	"sort"

	"golang.org/x/exp/slices"
)

// NewUnion builds a canonical Union: nested unions are flattened, duplicate
// summands (by structural Equal) are removed, and the result is
// deterministically ordered by String() so that two independently built
// unions of the same summands compare equal and serialize identically.
// A single remaining summand collapses to that summand; zero summands is a
// caller error (an empty union is structurally ill-formed, see
// TypeInconsistency in the caller).
func NewUnion(elems ...Type) Type {
	flat := flattenSummands(elems, func(t Type) ([]Type, bool) {
		u, ok := t.(Union)
		return u.Elems, ok
	})
	deduped := dedupSummands(flat)
	if len(deduped) == 1 {
		return deduped[0]
	}
	return Union{Elems: deduped}
}

// NewIntersection builds a canonical Intersection the same way NewUnion
// builds a canonical Union.
func NewIntersection(elems ...Type) Type {
	flat := flattenSummands(elems, func(t Type) ([]Type, bool) {
		i, ok := t.(Intersection)
		return i.Elems, ok
	})
	deduped := dedupSummands(flat)
	if len(deduped) == 1 {
		return deduped[0]
	}
	return Intersection{Elems: deduped}
}

func flattenSummands(elems []Type, unwrap func(Type) ([]Type, bool)) []Type {
	out := make([]Type, 0, len(elems))
	for _, e := range elems {
		if inner, ok := unwrap(e); ok {
			out = append(out, flattenSummands(inner, unwrap)...)
			continue
		}
		out = append(out, e)
	}
	return out
}

func dedupSummands(elems []Type) []Type {
	out := make([]Type, 0, len(elems))
	for _, e := range elems {
		if !slices.ContainsFunc(out, func(o Type) bool { return Equal(o, e) }) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// SortFields returns a copy of fields ordered by name, the canonical order
// a Record's fields are compared and serialized in.
func SortFields(fields []Field) []Field {
	out := append([]Field(nil), fields...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
