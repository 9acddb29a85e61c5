package transformer

import (
	"vcgen/internal/ir"
	"vcgen/internal/solver"
	"vcgen/internal/vcengine"
	"vcgen/internal/verrors"
)

// checkObligation discharges one verification condition: property must
// hold given everything already asserted on b (§4.G: "Obligations are the
// conjunction of all constraints in all scopes at the moment of emission,
// conjoined with the specific property being checked"). It checks the
// negation for satisfiability — unsat means property holds on every model
// of the accumulated path, i.e. the property is valid.
func (t *Transformer) checkObligation(b *vcengine.VcBranch, entry ir.Entry, context string, property solver.Expr) error {
	query := solver.And(b.Value(), solver.Not(property))
	verdict, err := t.cfg.Solver.Check(obligationCtx, query)
	if err != nil {
		return err
	}
	switch verdict {
	case solver.Unsat:
		return nil
	case solver.Sat:
		t.recordFailure(verrors.VerificationFailure, entry, context, "solver found a model violating "+property.String())
		return nil
	default:
		t.recordFailure(verrors.VerificationUnknown, entry, context, "solver returned unknown for "+property.String())
		return nil
	}
}
