// Package vcengine implements the VcBranch symbolic-execution engine of
// §4.F: master/child branch construction, single-step opcode dispatch,
// fork/join/kill, SSA-style invalidation, and the top-level transform
// driver. It depends on internal/solver only for the Expr type a
// Transformer writes into a branch's environment; everything about *how*
// those expressions are built is the Transformer's business
// (internal/transformer), not this package's.
package vcengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vcgen/internal/constant"
	"vcgen/internal/ir"
	"vcgen/internal/solver"
	"vcgen/internal/types"
	"vcgen/internal/verrors"
)

var (
	trueConst  = constant.Bool{Value: true}
	falseConst = constant.Bool{Value: false}
)

// Engine is one compilation unit's worth of symbolic-execution state: the
// arena of branches it has forked and the monotone counters (skolem
// names, arena ids) namespaced by a per-instance uuid so that two engines
// compiling different units in parallel never collide on a variable name
// (Design Note "Fresh-label/skolem counters": "scope the counters per
// engine instance ... the Determinism property depends on this").
type Engine struct {
	namespace string
	cfg       Config

	branches      []*VcBranch
	skolemCounter uint64
}

// New builds an Engine, namespacing its skolem/fresh-variable counters
// under a freshly generated uuid.
func New(cfg Config) *Engine {
	return &Engine{namespace: uuid.New().String(), cfg: cfg}
}

// Namespace is the engine instance's uuid-derived variable namespace.
func (e *Engine) Namespace() string { return e.namespace }

// Branches returns every branch the engine has registered so far (master
// plus every fork, live or killed/returned/thrown), in registration order.
func (e *Engine) Branches() []*VcBranch { return e.branches }

func (e *Engine) freshVar(r ir.Register, pc int) solver.Expr {
	return solver.Var(fmt.Sprintf("r%d_%d.%s", r, pc, e.namespace))
}

// freshSkolem mints an engine-unique variable under prefix, for uses that
// aren't tied to one particular register (e.g. a standalone quantifier
// bound variable a transformer wants to name itself).
func (e *Engine) freshSkolem(prefix string) solver.Expr {
	e.skolemCounter++
	return solver.Var(fmt.Sprintf("%s%d.%s", prefix, e.skolemCounter, e.namespace))
}

func (e *Engine) register(b *VcBranch) *VcBranch {
	b.id = len(e.branches)
	b.engine = e
	e.branches = append(e.branches, b)
	return b
}

// NewMaster builds the root branch for a function/method body: pc=0,
// origin=0, per-parameter registers bound to fresh logical variables, and
// a single EntryScope spanning the whole block (§4.F: "Master
// construction").
func (e *Engine) NewMaster(block *ir.Block, paramTypes []types.Type) *VcBranch {
	b := &VcBranch{
		Block:  block,
		PC:     0,
		Origin: 0,
		Env:    map[ir.Register]*solver.Expr{},
		Types:  map[ir.Register]types.Type{},
		scopes: []Scope{newScope(EntryKind, block.Size())},
		Status: Running,
	}
	for i, t := range paramTypes {
		r := ir.Register(i)
		b.Env[r] = ref(e.freshVar(r, 0))
		b.Types[r] = t
	}
	return e.register(b)
}

// fork clones parent's environment, types and scopes, jumps the clone's pc
// to childPC, and registers it in the arena (§4.F: "Fork semantics").
func (e *Engine) fork(parent *VcBranch, childPC int) *VcBranch {
	envCopy := make(map[ir.Register]*solver.Expr, len(parent.Env))
	for r, v := range parent.Env {
		envCopy[r] = v
	}
	typesCopy := make(map[ir.Register]types.Type, len(parent.Types))
	for r, t := range parent.Types {
		typesCopy[r] = t
	}
	child := &VcBranch{
		Block:     parent.Block,
		PC:        childPC,
		Origin:    parent.PC,
		Env:       envCopy,
		Types:     typesCopy,
		scopes:    cloneScopes(parent.scopes),
		Status:    Running,
		parentID:  parent.id,
		hasParent: true,
	}
	return e.register(child)
}

// Join merges child's top-scope constraints back into parent's, splitting
// both lists on their shared (pointer-identical) prefix and replacing
// parent's top scope with common ++ [Or(And(parentRemainder),
// And(childRemainder))] (§4.F: "Join semantics", §8 property 5, scenario
// f).
func (e *Engine) Join(parent, child *VcBranch) {
	pTop := parent.TopScope()
	cTop := child.TopScope()

	n := 0
	for n < len(pTop.Constraints) && n < len(cTop.Constraints) && pTop.Constraints[n] == cTop.Constraints[n] {
		n++
	}
	common := pTop.Constraints[:n]
	leftRem := pTop.Constraints[n:]
	rightRem := cTop.Constraints[n:]

	if len(leftRem) == 0 && len(rightRem) == 0 {
		// Both sides already agree past the shared prefix: nothing to
		// disjoin, and appending Or(true, true) would make the top scope's
		// constraints no longer pointer-identical to what they were before
		// the fork (§8 property 5).
		pTop.Constraints = common
		return
	}

	combined := solver.Or(conj(leftRem), conj(rightRem))
	merged := make([]*solver.Expr, 0, n+1)
	merged = append(merged, common...)
	merged = append(merged, &combined)
	pTop.Constraints = merged
}

func conj(list []*solver.Expr) solver.Expr {
	if len(list) == 0 {
		return solver.Lit(trueConst)
	}
	exprs := make([]solver.Expr, len(list))
	for i, p := range list {
		exprs[i] = *p
	}
	return solver.And(exprs...)
}

// labelIndex finds the pc of l's LabelDef within block. Every branching
// opcode's target must be defined later in the same block (§3:
// "forward-only control flow"); a miss is an internal invariant violation,
// not a program error.
func labelIndex(block *ir.Block, l ir.Label) int {
	for i, e := range block.Entries {
		if ld, ok := e.Code.(ir.LabelDef); ok && ld.Name == l {
			return i
		}
	}
	verrors.Crash(nil, "label %q not defined in block", l)
	panic("unreachable")
}

// Step advances b by exactly one opcode, first popping every scope whose
// End has fallen behind pc (§4.F: "Single-step semantics"). done reports
// whether b has nothing further to execute this call (it killed, threw,
// or walked off the end of the block). forked lists the ids of any
// children this step produced, in fork order.
func (e *Engine) Step(b *VcBranch, tr Transformer) (done bool, forked []int, err error) {
	if b.Status != Running {
		return true, nil, nil
	}
	if b.PC >= b.Block.Size() {
		b.Status = Completed
		return true, nil, nil
	}

	for _, s := range b.popScopesAbove(b.PC) {
		s := s
		switch s.Kind {
		case LoopKind, ForKind:
			// Popped explicitly by loop-end instead; the generic sweep
			// never reaches these (loop-end sits before their End label,
			// so it pops them before pc passes End).
		default:
			if err := tr.Exit(b, &s); err != nil {
				return true, nil, err
			}
		}
	}
	if b.Status != Running {
		return true, nil, nil
	}

	entry := b.Block.Get(b.PC)
	switch code := entry.Code.(type) {

	case ir.Goto:
		b.PC = labelIndex(b.Block, code.Target)
		return false, nil, nil

	case ir.If:
		child := e.fork(b, labelIndex(b.Block, code.Target))
		if err := tr.Fork(b, child, entry); err != nil {
			return true, nil, err
		}
		b.PC++
		return false, []int{child.id}, nil

	case ir.Switch:
		children := make([]*VcBranch, len(code.Cases))
		ids := make([]int, len(code.Cases))
		for i, c := range code.Cases {
			child := e.fork(b, labelIndex(b.Block, c.Target))
			children[i] = child
			ids[i] = child.id
		}
		if err := tr.ForkSwitch(b, children, entry); err != nil {
			return true, nil, err
		}
		b.PC = labelIndex(b.Block, code.Default)
		return false, ids, nil

	case ir.IfType:
		trueType := types.Intersect(b.TypeOf(code.Operand), code.Test)
		falseType := types.Intersect(b.TypeOf(code.Operand), types.Negate(code.Test))
		targetIdx := labelIndex(b.Block, code.Target)

		if types.Equal(trueType, types.Void{}) {
			b.SetType(code.Operand, falseType)
			if err := tr.Narrow(b, nil, entry, trueType, falseType); err != nil {
				return true, nil, err
			}
			b.PC++
			return false, nil, nil
		}
		if types.Equal(falseType, types.Void{}) {
			b.SetType(code.Operand, trueType)
			if err := tr.Narrow(b, nil, entry, trueType, falseType); err != nil {
				return true, nil, err
			}
			b.PC = targetIdx
			return false, nil, nil
		}
		child := e.fork(b, targetIdx)
		child.SetType(code.Operand, trueType)
		b.SetType(code.Operand, falseType)
		if err := tr.Narrow(b, child, entry, trueType, falseType); err != nil {
			return true, nil, err
		}
		b.PC++
		return false, []int{child.id}, nil

	case ir.Loop:
		for _, r := range code.Modified {
			b.Invalidate(r, b.TypeOf(r))
		}
		end := labelIndex(b.Block, code.End)
		kind := LoopKind
		if code.IsForAll {
			kind = ForKind
		}
		scope := b.pushScope(kind, end)
		if code.IsForAll {
			scope.Source, scope.Index = code.Source, code.Index
			b.Invalidate(code.Index, b.TypeOf(code.Index))
		}
		if err := tr.Enter(b, scope); err != nil {
			return true, nil, err
		}
		b.PC++
		return false, nil, nil

	case ir.LoopEnd:
		if len(b.scopes) == 0 {
			verrors.Crash(nil, "loop-end with an empty scope stack at pc %d", b.PC)
		}
		scope := b.scopes[len(b.scopes)-1]
		b.scopes = b.scopes[:len(b.scopes)-1]
		switch scope.Kind {
		case ForKind:
			if err := tr.EndFor(b, &scope, entry); err != nil {
				return true, nil, err
			}
			b.PC++
			return false, nil, nil
		case LoopKind:
			if err := tr.EndLoop(b, &scope, entry); err != nil {
				return true, nil, err
			}
			b.Status = Completed
			return true, nil, nil
		default:
			verrors.Crash(nil, "loop-end popped a non-loop scope %s at pc %d", scope.Kind, b.PC)
			panic("unreachable")
		}

	case ir.TryCatch:
		scope := b.pushScope(TryKind, labelIndex(b.Block, code.End))
		scope.CatchTarget = code.Target
		if err := tr.Enter(b, scope); err != nil {
			return true, nil, err
		}
		b.PC++
		return false, nil, nil

	case ir.Assert:
		scope := b.pushScope(AssertOrAssumeKind, labelIndex(b.Block, code.End))
		scope.IsAssert = true
		scope.Entry = entry
		if err := tr.Enter(b, scope); err != nil {
			return true, nil, err
		}
		b.PC++
		return false, nil, nil

	case ir.Assume:
		scope := b.pushScope(AssertOrAssumeKind, labelIndex(b.Block, code.End))
		scope.IsAssert = false
		scope.Entry = entry
		if err := tr.Enter(b, scope); err != nil {
			return true, nil, err
		}
		b.PC++
		return false, nil, nil

	case ir.Return:
		if err := tr.Return(b, entry); err != nil {
			return true, nil, err
		}
		b.Kill()
		return true, nil, nil

	case ir.Fail:
		if err := tr.Fail(b, entry); err != nil {
			return true, nil, err
		}
		b.Kill()
		return true, nil, nil

	case ir.Throw:
		if err := tr.Throw(b, entry); err != nil {
			return true, nil, err
		}
		b.Status = Thrown
		return true, nil, nil

	default:
		if err := tr.StraightLine(b, entry); err != nil {
			return true, nil, err
		}
		b.PC++
		return false, nil, nil
	}
}

// run steps b to completion, returning the ids of every branch it forked
// (direct and transitive), in the order they were forked.
func (e *Engine) run(b *VcBranch, tr Transformer) ([]int, error) {
	var all []int
	for {
		done, forked, err := e.Step(b, tr)
		if err != nil {
			return all, err
		}
		all = append(all, forked...)
		if done {
			return all, nil
		}
	}
}

// Transform walks master to completion, then — in the order they were
// forked — steps every queued child to completion, then joins each back
// into its parent in reverse of that order so that a branch absorbs all
// of its own children before it is in turn joined into its parent (§4.F:
// "Transform driver"; §5: children are stepped "in the order in which
// they were forked", joins are "LIFO in pc"). The returned value is
// master's final conjoined constraint expression.
func (e *Engine) Transform(master *VcBranch, tr Transformer) (solver.Expr, error) {
	e.logProgress("stepping master branch %d", master.id)
	forked, err := e.run(master, tr)
	if err != nil {
		return solver.Expr{}, err
	}

	stepped := append([]int{}, forked...)
	for i := 0; i < len(stepped); i++ {
		child := e.branches[stepped[i]]
		e.logProgress("stepping forked branch %d (origin pc %d)", child.id, child.Origin)
		more, err := e.run(child, tr)
		if err != nil {
			return solver.Expr{}, err
		}
		stepped = append(stepped, more...)
	}

	for i := len(stepped) - 1; i >= 0; i-- {
		child := e.branches[stepped[i]]
		if !child.hasParent {
			continue
		}
		parent := e.branches[child.parentID]
		e.logProgress("joining branch %d into parent %d", child.id, parent.id)
		e.Join(parent, child)
	}

	e.logProgress("transform complete, %d branches total", len(e.branches))
	return master.Value(), nil
}

// EvaluateBlock runs block as a standalone master (registers 0..len(inputs)-1
// pre-bound to inputs instead of fresh variables) under this engine's
// namespace, returning its final conjoined value. Used by a transformer to
// elaborate a callee's precondition/postcondition block against the
// actual argument expressions at a call site (scenario (a)/(b)): the
// precondition's own parameter registers are the callee's, so pre-binding
// them to the call's argument exprs and transforming is exactly
// "checking the refinement holds for these arguments".
func (e *Engine) EvaluateBlock(block *ir.Block, inputs []solver.Expr, inputTypes []types.Type, tr Transformer) (solver.Expr, error) {
	b := &VcBranch{
		Block:  block,
		PC:     0,
		Origin: 0,
		Env:    map[ir.Register]*solver.Expr{},
		Types:  map[ir.Register]types.Type{},
		scopes: []Scope{newScope(EntryKind, block.Size())},
		Status: Running,
	}
	for i, v := range inputs {
		b.Env[ir.Register(i)] = ref(v)
		if i < len(inputTypes) {
			b.Types[ir.Register(i)] = inputTypes[i]
		}
	}
	e.register(b)
	return e.Transform(b, tr)
}

// Unit is one independent compilation unit driven by RunBatch: its own
// block, parameter types and transformer (transformers may carry
// per-unit state, e.g. obligation sinks, so each unit supplies its own).
type Unit struct {
	Block      *ir.Block
	ParamTypes []types.Type
	Transformer Transformer
}

// Result is one Unit's outcome.
type Result struct {
	Value solver.Expr
	Err   error
}

// RunBatch drives one Engine per Unit concurrently via an errgroup — the
// only sanctioned point of concurrency (§5: "parallelism ... is at the
// granularity of independent compilation units, each with its own engine
// instance"). A single engine instance is still only ever touched by the
// one goroutine processing its unit.
func RunBatch(ctx context.Context, units []Unit, cfg Config) ([]Result, error) {
	results := make([]Result, len(units))
	g, ctx := errgroup.WithContext(ctx)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = Result{Err: ctx.Err()}
				return ctx.Err()
			default:
			}
			eng := New(cfg)
			master := eng.NewMaster(u.Block, u.ParamTypes)
			v, err := eng.Transform(master, u.Transformer)
			results[i] = Result{Value: v, Err: err}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
