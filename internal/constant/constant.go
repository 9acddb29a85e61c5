// Package constant implements the first-class literal value model of the
// verification core: the type each opcode's Const operand carries, with
// structural equality and a minimal static type.
package constant

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"vcgen/internal/types"
)

// Constant is the closed sum over literal shapes in §3. Concrete types all
// live in this package, the same closed-sum idiom internal/types uses for
// Type.
type Constant interface {
	isConstant()
	// TypeOf returns the minimal Type this literal value carries.
	TypeOf() types.Type
	// Key returns a canonical string encoding suitable as a map key for
	// constant-pool deduplication in the binary codec (§4.D): equal
	// constants always produce identical keys.
	Key() string
}

type Null struct{}
type Bool struct{ Value bool }
type Byte struct{ Value byte }
type Char struct{ Value rune }

// Int is an arbitrary-precision integer literal held in a big.Int; the
// codec writes it as the binary format's signed big-endian
// two's-complement byte sequence (§4.D).
type Int struct{ Value *big.Int }

// Rational is a numerator/denominator pair, kept reduced to lowest terms.
type Rational struct{ Value *big.Rat }

type Str struct{ Value string }

// List is an ordered, possibly-empty sequence of constants.
type List struct{ Elems []Constant }

// Set is an unordered, duplicate-free collection of constants, kept in
// canonical (Key-sorted) order so two structurally equal sets compare
// Key-equal regardless of construction order.
type Set struct{ Elems []Constant }

// Tuple is a fixed-length, heterogeneous positional product.
type Tuple struct{ Elems []Constant }

// Field is one named member of a Record constant.
type Field struct {
	Name  string
	Value Constant
}

// Record is a fixed-length, heterogeneous named product, kept in
// canonical (name-sorted) field order.
type Record struct{ Fields []Field }

func (Null) isConstant()     {}
func (Bool) isConstant()     {}
func (Byte) isConstant()     {}
func (Char) isConstant()     {}
func (Int) isConstant()      {}
func (Rational) isConstant() {}
func (Str) isConstant()      {}
func (List) isConstant()     {}
func (Set) isConstant()      {}
func (Tuple) isConstant()    {}
func (Record) isConstant()   {}

func (Null) TypeOf() types.Type     { return types.Null{} }
func (Bool) TypeOf() types.Type     { return types.Bool{} }
func (Byte) TypeOf() types.Type     { return types.Byte{} }
func (Char) TypeOf() types.Type     { return types.Char{} }
func (Int) TypeOf() types.Type      { return types.Int{} }
func (Rational) TypeOf() types.Type { return types.Rational{} }
func (Str) TypeOf() types.Type      { return types.Str{} }

func (l List) TypeOf() types.Type {
	return types.List{Elem: elemType(l.Elems)}
}

func (s Set) TypeOf() types.Type {
	return types.Set{Elem: elemType(s.Elems)}
}

func (t Tuple) TypeOf() types.Type {
	elems := make([]types.Type, len(t.Elems))
	for i, e := range t.Elems {
		elems[i] = e.TypeOf()
	}
	return types.Tuple{Elems: elems}
}

func (r Record) TypeOf() types.Type {
	fields := make([]types.Field, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = types.Field{Name: f.Name, Type: f.Value.TypeOf()}
	}
	return types.Record{Fields: types.SortFields(fields), Open: false}
}

// elemType computes the minimal common element type of a homogeneous
// container literal: the canonical union of every element's minimal type,
// or Void for an empty container (Void is a subtype of every type, so
// List{Void{}} is freely assignable into a list of any element type).
func elemType(elems []Constant) types.Type {
	if len(elems) == 0 {
		return types.Void{}
	}
	ts := make([]types.Type, len(elems))
	for i, e := range elems {
		ts[i] = e.TypeOf()
	}
	return types.NewUnion(ts...)
}

func (Null) Key() string { return "null" }
func (b Bool) Key() string {
	if b.Value {
		return "true"
	}
	return "false"
}
func (b Byte) Key() string     { return fmt.Sprintf("byte:%d", b.Value) }
func (c Char) Key() string     { return fmt.Sprintf("char:%d", c.Value) }
func (i Int) Key() string      { return "int:" + i.Value.String() }
func (r Rational) Key() string { return "rat:" + r.Value.RatString() }
func (s Str) Key() string      { return "str:" + s.Value }

func (l List) Key() string { return "list:[" + joinKeys(l.Elems) + "]" }
func (s Set) Key() string  { return "set:{" + joinKeys(canonicalSet(s.Elems)) + "}" }
func (t Tuple) Key() string { return "tuple:(" + joinKeys(t.Elems) + ")" }
func (r Record) Key() string {
	parts := make([]string, len(r.Fields))
	for i, f := range sortedFields(r.Fields) {
		parts[i] = f.Name + "=" + f.Value.Key()
	}
	return "record:{" + strings.Join(parts, ",") + "}"
}

func joinKeys(cs []Constant) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.Key()
	}
	return strings.Join(parts, ",")
}

// NewSet canonicalizes a Set literal's element order and removes
// structural duplicates, mirroring the Type model's NewUnion.
func NewSet(elems ...Constant) Set {
	return Set{Elems: canonicalSet(elems)}
}

func canonicalSet(elems []Constant) []Constant {
	out := make([]Constant, 0, len(elems))
	seen := map[string]bool{}
	for _, e := range elems {
		if k := e.Key(); !seen[k] {
			seen[k] = true
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// NewRecord canonicalizes field order by name.
func NewRecord(fields ...Field) Record {
	return Record{Fields: sortedFields(fields)}
}

func sortedFields(fields []Field) []Field {
	out := append([]Field(nil), fields...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Equal reports structural equality between two constants. Rationals
// compare by cross multiplication rather than by Key, since two
// differently-constructed fractions must be recognized as the same value
// before a Key comparison would have any basis to agree.
func Equal(a, b Constant) bool {
	ar, aok := a.(Rational)
	br, bok := b.(Rational)
	if aok && bok {
		return CompareRational(ar, br) == 0
	}
	return a.Key() == b.Key()
}
