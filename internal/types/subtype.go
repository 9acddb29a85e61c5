package types

// Resolver looks up the elaborated Type behind a nominal declaration. The
// type model itself never loads declarations — that's the loader/global
// generator's job (§6) — it only needs to ask "what does this name stand
// for" while walking a subtype judgement.
type Resolver interface {
	Resolve(QualifiedName) (Type, bool)
}

// Subtype reports whether a is a subtype of b. Recursive types are handled
// coinductively (§4.A): a judgement in progress is assumed to hold if the
// same pair of nominal names is encountered again before it completes.
// resolver may be nil, in which case distinct Nominal names are never
// related to one another (only Equal nominal references are).
func Subtype(a, b Type, resolver Resolver) bool {
	return subtype(a, b, resolver, recEnv{})
}

func subtype(a, b Type, resolver Resolver, env recEnv) bool {
	if _, ok := a.(Void); ok {
		return true
	}
	if _, ok := b.(Any); ok {
		return true
	}
	if Equal(a, b) {
		return true
	}

	// Union/intersection distribution, tried before unwrapping either side's
	// concrete shape so e.g. `int|bool <= any` short-circuits above but
	// `int|bool <= int|bool|null` still distributes correctly.
	if au, ok := a.(Union); ok {
		for _, x := range au.Elems {
			if !subtype(x, b, resolver, env) {
				return false
			}
		}
		return true
	}
	if bu, ok := b.(Union); ok {
		for _, y := range bu.Elems {
			if subtype(a, y, resolver, env) {
				return true
			}
		}
		return false
	}
	if ai, ok := a.(Intersection); ok {
		for _, x := range ai.Elems {
			if subtype(x, b, resolver, env) {
				return true
			}
		}
		return false
	}
	if bi, ok := b.(Intersection); ok {
		for _, y := range bi.Elems {
			if !subtype(a, y, resolver, env) {
				return false
			}
		}
		return true
	}

	if an, ok := a.(Nominal); ok {
		if resolver != nil {
			if body, found := resolver.Resolve(an.Name); found {
				return subtypeNominal(an.Name.String(), "", body, b, resolver, env)
			}
		}
		bn, ok := b.(Nominal)
		return ok && an.Name.String() == bn.Name.String()
	}
	if bn, ok := b.(Nominal); ok {
		if resolver != nil {
			if body, found := resolver.Resolve(bn.Name); found {
				return subtypeNominal("", bn.Name.String(), a, body, resolver, env)
			}
		}
		return false
	}

	if ar, ok := a.(Recursive); ok {
		return subtype(Flatten(ar), b, resolver, env)
	}
	if br, ok := b.(Recursive); ok {
		return subtype(a, Flatten(br), resolver, env)
	}

	if an, ok := a.(Negation); ok {
		// !A <= B holds in general only when Intersect(!A, !B) = void, i.e.
		// B's complement is already covered by A's complement — approximated
		// here via double negation: !A <= B  iff  !B <= A doesn't hold in
		// general, so fall back to the semantic definition through Intersect.
		_ = an
		return Equal(Intersect(a, Negate(b)), Void{})
	}
	if _, ok := b.(Negation); ok {
		return Equal(Intersect(a, Negate(b)), Void{})
	}

	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		return ok && subtype(av.Elem, bv.Elem, resolver, env)
	case Set:
		bv, ok := b.(Set)
		return ok && subtype(av.Elem, bv.Elem, resolver, env)
	case Map:
		bv, ok := b.(Map)
		return ok && Equal(av.Key, bv.Key) && subtype(av.Value, bv.Value, resolver, env)
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !subtype(av.Elems[i], bv.Elems[i], resolver, env) {
				return false
			}
		}
		return true
	case Record:
		bv, ok := b.(Record)
		if !ok {
			return false
		}
		seen := 0
		for _, bf := range bv.Fields {
			found := false
			for _, af := range av.Fields {
				if af.Name == bf.Name {
					if !subtype(af.Type, bf.Type, resolver, env) {
						return false
					}
					found = true
					seen++
					break
				}
			}
			if !found {
				return false
			}
		}
		if !bv.Open && seen != len(av.Fields) {
			return false
		}
		return true
	case Reference:
		bv, ok := b.(Reference)
		return ok && Equal(av.Elem, bv.Elem)
	case Function:
		bv, ok := b.(Function)
		if !ok || len(av.Params) != len(bv.Params) {
			return false
		}
		for i := range av.Params {
			if !subtype(bv.Params[i], av.Params[i], resolver, env) { // contravariant
				return false
			}
		}
		return subtype(av.Returns, bv.Returns, resolver, env) &&
			subtype(optional(av.Throws), optional(bv.Throws), resolver, env)
	case Method:
		bv, ok := b.(Method)
		if !ok || len(av.Params) != len(bv.Params) {
			return false
		}
		if !equalOptional(av.Receiver, bv.Receiver, env) {
			return false
		}
		for i := range av.Params {
			if !subtype(bv.Params[i], av.Params[i], resolver, env) {
				return false
			}
		}
		return subtype(av.Returns, bv.Returns, resolver, env) &&
			subtype(optional(av.Throws), optional(bv.Throws), resolver, env)
	default:
		return false
	}
}

func subtypeNominal(aLabel, bLabel string, a, b Type, resolver Resolver, env recEnv) bool {
	key := [2]string{aLabel, bLabel}
	if env[key] {
		return true
	}
	next := cloneEnv(env)
	next[key] = true
	return subtype(a, b, resolver, next)
}

func optional(t Type) Type {
	if t == nil {
		return Void{}
	}
	return t
}
