package vcengine

import (
	"vcgen/internal/ir"
	"vcgen/internal/types"
)

// Transformer is the VcTransformer interface of §4.G: a pure function per
// opcode class, plus enter/exit/end hooks for scopes. It is declared here
// (the consumer) rather than in internal/transformer (the implementer) so
// that package stays a leaf dependency of internal/vcengine instead of the
// reverse, per Go's usual "accept interfaces" convention.
//
// Every handler may read/write the given branch's registers, append
// constraints to its top scope, or emit a verification obligation to the
// external solver; none of them return a value — their effect is entirely
// the mutation they perform on the branch(es) they are given.
type Transformer interface {
	// StraightLine handles every opcode that is neither a control-flow fork
	// nor a scope push/pop/kill: arithmetic, load/store, field/tuple/index
	// access, construction, const, move/assign/convert/invert/negate,
	// invoke (direct and indirect), update, new-object, dereference, nop,
	// debug, label.
	StraightLine(b *VcBranch, entry ir.Entry) error

	// Fork is called once a conditional `if` has produced its child: b is
	// the branch continuing on the falsethrough side, child is the branch
	// that jumped to the taken target. The transformer populates each
	// side's constraint.
	Fork(b, child *VcBranch, entry ir.Entry) error

	// ForkSwitch is called once a `switch` has produced one child per case;
	// b continues on the default path. The transformer populates each
	// child's per-case constraint.
	ForkSwitch(b *VcBranch, children []*VcBranch, entry ir.Entry) error

	// Narrow handles `if-is`: b is the non-taken (falsethrough) branch
	// (already retyped to falseType by the engine), child is nil unless a
	// genuine fork occurred, in which case child is the taken branch
	// (retyped to trueType). The transformer may still append constraints
	// reflecting the narrowing to either side.
	Narrow(b, child *VcBranch, entry ir.Entry, trueType, falseType types.Type) error

	// Enter runs immediately after a Loop/ForScope, TryScope or
	// AssertOrAssumeScope is pushed.
	Enter(b *VcBranch, scope *Scope) error

	// Exit runs for every EntryScope, TryScope or AssertOrAssumeScope
	// popped by the generic end-of-scope sweep (LoopScope/ForScope are
	// popped by the dedicated EndLoop/EndFor hooks below instead).
	Exit(b *VcBranch, scope *Scope) error

	// EndFor runs when `loop-end` pops a ForScope; b continues past the
	// loop.
	EndFor(b *VcBranch, scope *Scope, entry ir.Entry) error

	// EndLoop runs when `loop-end` pops a plain LoopScope; b terminates
	// afterward (§4.F: "loop invariants are responsible for what a
	// successor would otherwise learn").
	EndLoop(b *VcBranch, scope *Scope, entry ir.Entry) error

	// Return and Fail run before the engine kills b.
	Return(b *VcBranch, entry ir.Entry) error
	Fail(b *VcBranch, entry ir.Entry) error

	// Throw runs before the engine marks b Thrown (without killing it);
	// the transformer is responsible for locating b.NearestTryScope and
	// recording whatever it needs there (§4.F, §9: "propagated by the
	// transformer into the enclosing TryScope").
	Throw(b *VcBranch, entry ir.Entry) error
}
