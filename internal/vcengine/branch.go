package vcengine

import (
	"vcgen/internal/ir"
	"vcgen/internal/solver"
	"vcgen/internal/types"
)

// Status is a branch's terminal disposition once it stops stepping.
type Status int

const (
	Running Status = iota
	Killed          // return/fail: top scope forced to [false]
	Thrown          // throw, with or without an enclosing TryScope; constraints kept
	Completed       // pc walked off the end of the block without return/fail
)

// VcBranch is one path of symbolic execution through a Block (§3, §4.F).
// Cloning on fork is shallow: Env, Types and every Scope's constraint
// list get fresh map/slice headers, but the solver.Expr values themselves
// are shared and compared by pointer.
type VcBranch struct {
	id       int
	engine   *Engine
	parentID int
	hasParent bool

	Block *ir.Block
	PC    int
	Origin int // pc at which this branch was forked from its parent

	Env    map[ir.Register]*solver.Expr
	Types  map[ir.Register]types.Type
	scopes []Scope

	Status Status
}

// ID is this branch's arena index, stable for its lifetime.
func (b *VcBranch) ID() int { return b.id }

// Engine returns the engine instance that owns this branch, letting a
// transformer spawn fresh variables/skolems or recursively evaluate a
// nested block (e.g. a callee's precondition) with the same namespacing.
func (b *VcBranch) Engine() *Engine { return b.engine }

// Scopes returns the live scope stack, innermost (top) last.
func (b *VcBranch) Scopes() []Scope { return b.scopes }

// TopScope returns a pointer to the innermost scope, for appending
// constraints or inspecting its kind-specific fields.
func (b *VcBranch) TopScope() *Scope { return &b.scopes[len(b.scopes)-1] }

// NearestTryScope returns the innermost TryKind scope, if one is active —
// the scope a Throw is propagated into (§4.F: "throw is propagated by the
// transformer into the enclosing TryScope").
func (b *VcBranch) NearestTryScope() (*Scope, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if b.scopes[i].Kind == TryKind {
			return &b.scopes[i], true
		}
	}
	return nil, false
}

// Assert appends e to the innermost scope's constraint list.
func (b *VcBranch) Assert(e solver.Expr) {
	top := b.TopScope()
	top.Constraints = append(top.Constraints, &e)
}

// Get reads a register's current logical expression. A register with no
// prior write reads as an engine-unique fresh variable rather than a
// collision-prone fixed placeholder.
func (b *VcBranch) Get(r ir.Register) solver.Expr {
	if e, ok := b.Env[r]; ok {
		return *e
	}
	v := b.engine.freshVar(r, b.PC)
	b.Env[r] = &v
	return v
}

// Set overwrites a register's logical expression.
func (b *VcBranch) Set(r ir.Register, e solver.Expr) { b.Env[r] = &e }

// TypeOf returns a register's currently-tracked static type (§9.Q3: direct
// register→type mapping, not the source's string-parsing path).
func (b *VcBranch) TypeOf(r ir.Register) types.Type { return b.Types[r] }

// SetType overwrites a register's tracked static type.
func (b *VcBranch) SetType(r ir.Register, t types.Type) { b.Types[r] = t }

// Invalidate assigns a fresh skolem to r (a loop-entry write, or the
// non-taken side of if-is) and retypes it (§4.F: "Invalidation (SSA
// reset)").
func (b *VcBranch) Invalidate(r ir.Register, t types.Type) {
	b.Env[r] = ref(b.engine.freshVar(r, b.PC))
	b.Types[r] = t
}

// Kill drops every scope's constraints and installs [false] on the top
// scope (§4.F: "Kill"). Calling Kill twice is idempotent (§8 property 6):
// the second call finds every scope already emptied and the top scope
// already holding exactly [false], so it has nothing further to do.
func (b *VcBranch) Kill() {
	for i := range b.scopes {
		b.scopes[i].Constraints = nil
	}
	top := b.TopScope()
	f := solver.Lit(falseConst)
	top.Constraints = []*solver.Expr{&f}
	b.Status = Killed
}

// pushScope pushes a new scope of the given kind ending at end.
func (b *VcBranch) pushScope(kind Kind, end int) *Scope {
	b.scopes = append(b.scopes, newScope(kind, end))
	return b.TopScope()
}

// popScopesAbove pops every scope whose End < pc, returning them in the
// order they were popped (top-down, per §4.F single-step semantics).
func (b *VcBranch) popScopesAbove(pc int) []Scope {
	var popped []Scope
	for len(b.scopes) > 0 && b.scopes[len(b.scopes)-1].End < pc {
		n := len(b.scopes) - 1
		popped = append(popped, b.scopes[n])
		b.scopes = b.scopes[:n]
	}
	return popped
}

// Value conjoins every scope's constraint list, outer-to-inner (§4.F:
// "The final value yielded is the logical expression obtained by
// conjoining every Scope's constraint list, outer-to-inner").
func (b *VcBranch) Value() solver.Expr {
	var all []solver.Expr
	for _, s := range b.scopes {
		for _, c := range s.Constraints {
			all = append(all, *c)
		}
	}
	if len(all) == 0 {
		return solver.Lit(trueConst)
	}
	return solver.And(all...)
}

func ref(e solver.Expr) *solver.Expr { return &e }
