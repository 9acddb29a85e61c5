package transformer

import (
	"fmt"

	"vcgen/internal/ir"
	"vcgen/internal/solver"
	"vcgen/internal/types"
	"vcgen/internal/vcengine"
)

// directInvoke resolves code.Name against the current unit's declarations
// (or an external loader), checks every case's precondition as a call-site
// obligation (scenario (a)/(b): "the engine emits the obligation ... at
// the call site of f"), assumes the matching case's postcondition as a
// fact about the result, and binds the target register to an
// uninterpreted application of the callee's name to its arguments.
//
// A function may carry more than one Case (§6: "cases: [{precondition,
// postcondition, body}]"); this call site is well-typed under the callee
// if at least one case's precondition holds, so the obligation checked is
// the disjunction of every case's precondition rather than each one in
// isolation — a call site that satisfies any one case is not a failure.
func (t *Transformer) directInvoke(b *vcengine.VcBranch, entry ir.Entry, code ir.DirectInvoke) error {
	args := make([]solver.Expr, len(code.Sources))
	for i, s := range code.Sources {
		args[i] = b.Get(s)
	}

	decl, err := t.lookupFunc(code.Name)
	if err != nil {
		return err
	}
	paramTypes := paramsOf(decl.Signature)

	pres := make([]*solver.Expr, len(decl.Cases))
	if len(decl.Cases) > 0 {
		preconditions := make([]solver.Expr, 0, len(decl.Cases))
		unconditional := false
		for i, c := range decl.Cases {
			if c.Precondition == nil {
				unconditional = true
				continue
			}
			v, err := b.Engine().EvaluateBlock(c.Precondition, args, paramTypes, t)
			if err != nil {
				return err
			}
			pres[i] = &v
			preconditions = append(preconditions, v)
		}
		if !unconditional && len(preconditions) > 0 {
			context := fmt.Sprintf("precondition of %s", code.Name)
			if err := t.checkObligation(b, entry, context, solver.Or(preconditions...)); err != nil {
				return err
			}
		}
	}

	result := solver.Apply(code.Name.String(), args...)
	if code.HasTarget {
		b.Set(code.Target, result)
		b.SetType(code.Target, returnsOf(decl.Signature))
	}

	for i, c := range decl.Cases {
		if c.Postcondition == nil {
			continue
		}
		postInputs := append(append([]solver.Expr{}, args...), result)
		postTypes := append(append([]types.Type{}, paramTypes...), returnsOf(decl.Signature))
		v, err := b.Engine().EvaluateBlock(c.Postcondition, postInputs, postTypes, t)
		if err != nil {
			return err
		}
		if len(decl.Cases) > 1 && pres[i] != nil {
			v = solver.Implies(*pres[i], v)
		}
		b.Assert(v)
	}
	return nil
}
