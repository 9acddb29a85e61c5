package types

// Intersect computes a normalized intersection of a and b. It returns Void
// when a and b are provably disjoint — required by the engine's `if-is`
// narrowing, which intersects an operand's static type with a tested type
// (or its negation) on each side of the fork (§4.F).
func Intersect(a, b Type) Type {
	if Equal(a, b) {
		return a
	}
	if _, ok := a.(Void); ok {
		return Void{}
	}
	if _, ok := b.(Void); ok {
		return Void{}
	}
	if _, ok := a.(Any); ok {
		return b
	}
	if _, ok := b.(Any); ok {
		return a
	}

	if au, ok := a.(Union); ok {
		parts := make([]Type, 0, len(au.Elems))
		for _, x := range au.Elems {
			if v := Intersect(x, b); !Equal(v, Void{}) {
				parts = append(parts, v)
			}
		}
		if len(parts) == 0 {
			return Void{}
		}
		return NewUnion(parts...)
	}
	if bu, ok := b.(Union); ok {
		return Intersect(bu, a)
	}

	if an, ok := a.(Negation); ok {
		if bn, ok := b.(Negation); ok {
			return Negate(NewUnion(an.Elem, bn.Elem)) // !A & !B = !(A|B)
		}
	}
	if an, ok := a.(Negation); ok && Equal(an.Elem, b) {
		return Void{} // intersect(T, negate(T)) = void
	}
	if bn, ok := b.(Negation); ok && Equal(bn.Elem, a) {
		return Void{}
	}

	if disjointPrimitives(a, b) {
		return Void{}
	}

	switch av := a.(type) {
	case List:
		if bv, ok := b.(List); ok {
			return List{Elem: Intersect(av.Elem, bv.Elem)}
		}
		return Void{}
	case Set:
		if bv, ok := b.(Set); ok {
			return Set{Elem: Intersect(av.Elem, bv.Elem)}
		}
		return Void{}
	case Map:
		if bv, ok := b.(Map); ok {
			return Map{Key: Intersect(av.Key, bv.Key), Value: Intersect(av.Value, bv.Value)}
		}
		return Void{}
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return Void{}
		}
		out := make([]Type, len(av.Elems))
		for i := range av.Elems {
			out[i] = Intersect(av.Elems[i], bv.Elems[i])
			if Equal(out[i], Void{}) {
				return Void{}
			}
		}
		return Tuple{Elems: out}
	case Record:
		bv, ok := b.(Record)
		if !ok {
			return Void{}
		}
		return intersectRecords(av, bv)
	case Reference:
		if bv, ok := b.(Reference); ok {
			return Reference{Elem: Intersect(av.Elem, bv.Elem)}
		}
		return Void{}
	case Nominal:
		if bv, ok := b.(Nominal); ok && av.Name.String() == bv.Name.String() {
			return av
		}
		return NewIntersection(a, b)
	default:
		return NewIntersection(a, b)
	}
}

func intersectRecords(a, b Record) Type {
	byName := map[string]Field{}
	for _, f := range a.Fields {
		byName[f.Name] = f
	}
	for _, bf := range b.Fields {
		if af, ok := byName[bf.Name]; ok {
			merged := Intersect(af.Type, bf.Type)
			if Equal(merged, Void{}) {
				return Void{}
			}
			byName[bf.Name] = Field{Name: bf.Name, Type: merged}
		} else if !a.Open {
			return Void{} // b requires a field a's closed record doesn't have
		} else {
			byName[bf.Name] = bf
		}
	}
	if !b.Open {
		for _, af := range a.Fields {
			if _, ok := byName[af.Name]; !ok {
				continue
			}
			found := false
			for _, bf := range b.Fields {
				if bf.Name == af.Name {
					found = true
					break
				}
			}
			if !found {
				return Void{} // a requires a field b's closed record doesn't have
			}
		}
	}
	out := make([]Field, 0, len(byName))
	for _, f := range byName {
		out = append(out, f)
	}
	return Record{Fields: SortFields(out), Open: a.Open && b.Open}
}

// disjointPrimitives reports whether a and b are both primitives (or both
// container/composite shapes of structurally distinct kinds) and therefore
// trivially disjoint.
func disjointPrimitives(a, b Type) bool {
	ka, oka := primKind(a)
	kb, okb := primKind(b)
	if oka && okb {
		return ka != kb
	}
	if oka != okb {
		// one side primitive, the other a composite shape: never overlap.
		_, aComposite := compositeKind(a)
		_, bComposite := compositeKind(b)
		if oka && bComposite {
			return true
		}
		if okb && aComposite {
			return true
		}
	}
	return false
}

func primKind(t Type) (string, bool) {
	switch t.(type) {
	case Null:
		return "null", true
	case Bool:
		return "bool", true
	case Byte:
		return "byte", true
	case Char:
		return "char", true
	case Int:
		return "int", true
	case Rational:
		return "real", true
	case Str:
		return "string", true
	default:
		return "", false
	}
}

func compositeKind(t Type) (string, bool) {
	switch t.(type) {
	case List:
		return "list", true
	case Set:
		return "set", true
	case Map:
		return "map", true
	case Tuple:
		return "tuple", true
	case Record:
		return "record", true
	case Reference:
		return "reference", true
	case Function:
		return "function", true
	case Method:
		return "method", true
	default:
		return "", false
	}
}

// Negate returns the complement of t within the universe of Any, applying
// the double-negation law and De Morgan's laws (§4.A).
func Negate(t Type) Type {
	switch v := t.(type) {
	case Void:
		return Any{}
	case Any:
		return Void{}
	case Negation:
		return v.Elem
	case Union:
		parts := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = Negate(e)
		}
		return NewIntersection(parts...)
	case Intersection:
		parts := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			parts[i] = Negate(e)
		}
		return NewUnion(parts...)
	default:
		return Negation{Elem: t}
	}
}

// LabelRef constructs the Nominal reference a Recursive binder's body uses
// to refer to its own label.
func LabelRef(label string) Type { return Nominal{Name: QualifiedName{Symbol: label}} }

// Substitute replaces every bare reference to label (a Nominal with no
// Path and Symbol == label) within t by sub, not descending into a nested
// Recursive binder that shadows the same label.
func Substitute(t Type, label string, sub Type) Type {
	switch v := t.(type) {
	case Nominal:
		if len(v.Name.Path) == 0 && v.Name.Symbol == label {
			return sub
		}
		return v
	case List:
		return List{Elem: Substitute(v.Elem, label, sub)}
	case Set:
		return Set{Elem: Substitute(v.Elem, label, sub)}
	case Map:
		return Map{Key: Substitute(v.Key, label, sub), Value: Substitute(v.Value, label, sub)}
	case Tuple:
		return Tuple{Elems: substituteAll(v.Elems, label, sub)}
	case Record:
		fields := make([]Field, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = Field{Name: f.Name, Type: Substitute(f.Type, label, sub)}
		}
		return Record{Fields: fields, Open: v.Open}
	case Reference:
		return Reference{Elem: Substitute(v.Elem, label, sub)}
	case Function:
		return Function{
			Params:  substituteAll(v.Params, label, sub),
			Returns: Substitute(v.Returns, label, sub),
			Throws:  substituteOptional(v.Throws, label, sub),
		}
	case Method:
		return Method{
			Receiver: substituteOptional(v.Receiver, label, sub),
			Params:   substituteAll(v.Params, label, sub),
			Returns:  Substitute(v.Returns, label, sub),
			Throws:   substituteOptional(v.Throws, label, sub),
		}
	case Union:
		return NewUnion(substituteAll(v.Elems, label, sub)...)
	case Intersection:
		return NewIntersection(substituteAll(v.Elems, label, sub)...)
	case Negation:
		return Negate(Substitute(v.Elem, label, sub))
	case Recursive:
		if v.Label == label {
			return v // shadowed
		}
		return Recursive{Label: v.Label, Body: Substitute(v.Body, label, sub)}
	default:
		return t
	}
}

func substituteAll(ts []Type, label string, sub Type) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Substitute(t, label, sub)
	}
	return out
}

func substituteOptional(t Type, label string, sub Type) Type {
	if t == nil {
		return nil
	}
	return Substitute(t, label, sub)
}

// Flatten unrolls the outermost recursive binder of t once: Recursive{L, B}
// becomes B with L's occurrences replaced by the original Recursive type,
// so further unrolling remains available on demand. Non-recursive types are
// returned unchanged.
func Flatten(t Type) Type {
	r, ok := t.(Recursive)
	if !ok {
		return t
	}
	return Substitute(r.Body, r.Label, r)
}
