package transformer

import (
	"vcgen/internal/constant"
	"vcgen/internal/ir"
	"vcgen/internal/solver"
	"vcgen/internal/types"
	"vcgen/internal/vcengine"
)

func ref(e solver.Expr) *solver.Expr { return &e }

func cmpExpr(cmp ir.Comparator, l, r solver.Expr) solver.Expr {
	switch cmp {
	case ir.CmpEq:
		return solver.Eq(l, r)
	case ir.CmpNeq:
		return solver.Not(solver.Eq(l, r))
	case ir.CmpLt:
		return solver.Lt(l, r)
	case ir.CmpLe:
		return solver.Le(l, r)
	case ir.CmpGt:
		return solver.Lt(r, l)
	case ir.CmpGe:
		return solver.Le(r, l)
	default:
		return solver.Lit(constant.Bool{Value: true})
	}
}

// Fork populates the falsethrough/taken constraints of a conditional `if`
// (§4.F: "transformer populates the falsethrough constraint on this
// branch and the taken constraint on the child").
func (t *Transformer) Fork(b, child *vcengine.VcBranch, entry ir.Entry) error {
	code := entry.Code.(ir.If)
	taken := cmpExpr(code.Cmp, b.Get(code.Left), b.Get(code.Right))
	b.Assert(solver.Not(taken))
	child.Assert(taken)
	return nil
}

// ForkSwitch populates each case child's constraint and the default
// branch's "none of the cases matched" constraint.
func (t *Transformer) ForkSwitch(b *vcengine.VcBranch, children []*vcengine.VcBranch, entry ir.Entry) error {
	code := entry.Code.(ir.Switch)
	operand := b.Get(code.Operand)
	misses := make([]solver.Expr, len(code.Cases))
	for i, c := range code.Cases {
		match := solver.Eq(operand, solver.Lit(c.Value))
		children[i].Assert(match)
		misses[i] = solver.Not(match)
	}
	if len(misses) > 0 {
		b.Assert(solver.And(misses...))
	}
	return nil
}

// Narrow tags the operand with an uninterpreted type-membership predicate
// on each side an `if-is` produces, supplementing the register retyping
// the engine itself already performed.
func (t *Transformer) Narrow(b, child *vcengine.VcBranch, entry ir.Entry, trueType, falseType types.Type) error {
	code := entry.Code.(ir.IfType)
	operand := b.Get(code.Operand)
	b.Assert(solver.Apply("hastype."+falseType.String(), operand))
	if child != nil {
		child.Assert(solver.Apply("hastype."+trueType.String(), operand))
	}
	return nil
}

// Enter runs when a Loop/ForAll/Try/AssertOrAssume scope is pushed. A
// ForAll scope gets its index variable's set-membership recorded as a
// fact so that an obligation proved inside the loop body — under the
// fresh skolem index — stands for the universally-quantified property
// over the whole source set (scenario (d)).
func (t *Transformer) Enter(b *vcengine.VcBranch, scope *vcengine.Scope) error {
	if scope.Kind == vcengine.ForKind {
		b.Assert(solver.SetIn(b.Get(scope.Index), b.Get(scope.Source)))
	}
	return nil
}

// Exit runs for every Entry/Try/AssertOrAssume scope the generic
// end-of-scope sweep pops. An assertion scope discharges its accumulated
// constraints as an obligation against the now-popped-to outer scope; an
// assumption scope instead promotes them as assumed facts.
func (t *Transformer) Exit(b *vcengine.VcBranch, scope *vcengine.Scope) error {
	if scope.Kind != vcengine.AssertOrAssumeKind || len(scope.Constraints) == 0 {
		return nil
	}
	exprs := make([]solver.Expr, len(scope.Constraints))
	for i, c := range scope.Constraints {
		exprs[i] = *c
	}
	property := solver.And(exprs...)
	if scope.IsAssert {
		return t.checkObligation(b, scope.Entry, "assert", property)
	}
	b.Assert(property)
	return nil
}

// EndFor runs when loop-end pops a ForAll scope; the branch continues past
// the loop with nothing further to assert (the per-iteration obligations
// were already discharged by Assert opcodes inside the body, see Exit).
func (t *Transformer) EndFor(b *vcengine.VcBranch, scope *vcengine.Scope, entry ir.Entry) error {
	return nil
}

// EndLoop runs when loop-end pops a plain (non-ForAll) loop scope; the
// branch terminates afterward per §4.F, so there is nothing further for
// the transformer to record.
func (t *Transformer) EndLoop(b *vcengine.VcBranch, scope *vcengine.Scope, entry ir.Entry) error {
	return nil
}

// Return and Fail have no lowering work of their own: the engine kills the
// branch immediately afterward, and any postcondition obligation for the
// function currently under analysis is the driver's responsibility, not a
// single opcode's.
func (t *Transformer) Return(b *vcengine.VcBranch, entry ir.Entry) error { return nil }
func (t *Transformer) Fail(b *vcengine.VcBranch, entry ir.Entry) error   { return nil }

// Throw records the thrown value on the nearest enclosing TryScope, if
// any (§4.F, §9: "throw is propagated by the transformer into the
// enclosing TryScope"). An uncaught throw (no TryScope on this branch)
// simply leaves the branch Thrown with nothing further recorded.
func (t *Transformer) Throw(b *vcengine.VcBranch, entry ir.Entry) error {
	code := entry.Code.(ir.Throw)
	if scope, ok := b.NearestTryScope(); ok {
		scope.Constraints = append(scope.Constraints, ref(solver.Apply("thrown", b.Get(code.Source))))
	}
	return nil
}
