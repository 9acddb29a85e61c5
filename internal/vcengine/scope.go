package vcengine

import (
	"vcgen/internal/ir"
	"vcgen/internal/solver"
)

// Kind distinguishes the five Scope subkinds the engine pushes while
// stepping a branch (§3, Design Note "Scope polymorphism": "model as a
// tagged variant with one case per kind and a shared payload").
type Kind int

const (
	EntryKind Kind = iota
	LoopKind
	ForKind
	TryKind
	AssertOrAssumeKind
)

func (k Kind) String() string {
	switch k {
	case EntryKind:
		return "entry"
	case LoopKind:
		return "loop"
	case ForKind:
		return "for"
	case TryKind:
		return "try"
	case AssertOrAssumeKind:
		return "assert-or-assume"
	default:
		return "unknown"
	}
}

// Scope is the shared payload every scope kind carries (end index, the
// accumulated constraint list) plus the fields specific to one kind.
// Constraints is a slice of pointers so that Join can test "shared prefix"
// by pointer identity (§8 property 5) rather than by deep equality.
type Scope struct {
	Kind        Kind
	End         int // pc index; see engine.go for how End is compared per kind
	Constraints []*solver.Expr

	// Entry is the assert/assume opcode that pushed this scope (§7:
	// obligations are "reported with location attributes preserved from the
	// originating Entry"). Set for AssertOrAssumeKind only; zero value for
	// every other kind.
	Entry ir.Entry

	// ForKind only.
	Index, Source ir.Register

	// TryKind only.
	CatchTarget ir.Label

	// AssertOrAssumeKind only.
	IsAssert bool
}

func newScope(kind Kind, end int) Scope {
	return Scope{Kind: kind, End: end}
}

// clone copies a scope's constraint list into a fresh, exactly-sized
// backing array so that a later append on either the original or the copy
// can never alias the other's storage (§4.F fork semantics: "shallow-copy
// of the constraint lists").
func (s Scope) clone() Scope {
	cp := make([]*solver.Expr, len(s.Constraints))
	copy(cp, s.Constraints)
	s.Constraints = cp
	return s
}

func cloneScopes(scopes []Scope) []Scope {
	out := make([]Scope, len(scopes))
	for i, s := range scopes {
		out[i] = s.clone()
	}
	return out
}
