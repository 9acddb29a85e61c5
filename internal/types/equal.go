package types

// recEnv tracks, during an Equal or Subtype traversal, which pairs of
// recursive labels are currently assumed equal/related — the coinductive
// discharge rule of §4.A: "a subtype judgement is established on the
// assumption that all currently-in-progress judgements hold; when a cycle
// is re-encountered, the assumption discharges it."
type recEnv map[[2]string]bool

// Equal reports whether a and b are the same type up to recursive
// bisimulation: Recursive types are equal iff their bodies are equal once
// each type's own label is assumed equal to the other's (§3).
func Equal(a, b Type) bool {
	return equal(a, b, recEnv{})
}

func equal(a, b Type, env recEnv) bool {
	ra, aIsRec := a.(Recursive)
	rb, bIsRec := b.(Recursive)
	if aIsRec || bIsRec {
		if !aIsRec || !bIsRec {
			return false
		}
		key := [2]string{ra.Label, rb.Label}
		if env[key] {
			return true
		}
		next := cloneEnv(env)
		next[key] = true
		return equal(ra.Body, rb.Body, next)
	}

	switch av := a.(type) {
	case Void:
		_, ok := b.(Void)
		return ok
	case Any:
		_, ok := b.(Any)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		_, ok := b.(Bool)
		return ok
	case Byte:
		_, ok := b.(Byte)
		return ok
	case Char:
		_, ok := b.(Char)
		return ok
	case Int:
		_, ok := b.(Int)
		return ok
	case Rational:
		_, ok := b.(Rational)
		return ok
	case Str:
		_, ok := b.(Str)
		return ok
	case List:
		bv, ok := b.(List)
		return ok && equal(av.Elem, bv.Elem, env)
	case Set:
		bv, ok := b.(Set)
		return ok && equal(av.Elem, bv.Elem, env)
	case Map:
		bv, ok := b.(Map)
		return ok && equal(av.Key, bv.Key, env) && equal(av.Value, bv.Value, env)
	case Tuple:
		bv, ok := b.(Tuple)
		return ok && equalSlices(av.Elems, bv.Elems, env)
	case Record:
		bv, ok := b.(Record)
		if !ok || av.Open != bv.Open || len(av.Fields) != len(bv.Fields) {
			return false
		}
		af, bf := SortFields(av.Fields), SortFields(bv.Fields)
		for i := range af {
			if af[i].Name != bf[i].Name || !equal(af[i].Type, bf[i].Type, env) {
				return false
			}
		}
		return true
	case Reference:
		bv, ok := b.(Reference)
		return ok && equal(av.Elem, bv.Elem, env)
	case Function:
		bv, ok := b.(Function)
		return ok && equalSlices(av.Params, bv.Params, env) &&
			equal(av.Returns, bv.Returns, env) && equalThrows(av.Throws, bv.Throws, env)
	case Method:
		bv, ok := b.(Method)
		return ok && equalOptional(av.Receiver, bv.Receiver, env) &&
			equalSlices(av.Params, bv.Params, env) &&
			equal(av.Returns, bv.Returns, env) && equalThrows(av.Throws, bv.Throws, env)
	case Union:
		bv, ok := b.(Union)
		return ok && equalUnordered(av.Elems, bv.Elems, env)
	case Intersection:
		bv, ok := b.(Intersection)
		return ok && equalUnordered(av.Elems, bv.Elems, env)
	case Negation:
		bv, ok := b.(Negation)
		return ok && equal(av.Elem, bv.Elem, env)
	case Nominal:
		bv, ok := b.(Nominal)
		if !ok {
			return false
		}
		if len(av.Name.Path) == 0 && len(bv.Name.Path) == 0 && env[[2]string{av.Name.Symbol, bv.Name.Symbol}] {
			return true // references to a pair of labels assumed equal
		}
		return av.Name.String() == bv.Name.String()
	default:
		return false
	}
}

func equalOptional(a, b Type, env recEnv) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return equal(a, b, env)
}

func equalThrows(a, b Type, env recEnv) bool { return equalOptional(a, b, env) }

func equalSlices(a, b []Type, env recEnv) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i], env) {
			return false
		}
	}
	return true
}

func equalUnordered(a, b []Type, env recEnv) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for j, y := range b {
			if used[j] {
				continue
			}
			if equal(x, y, env) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func cloneEnv(env recEnv) recEnv {
	out := make(recEnv, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	return out
}
