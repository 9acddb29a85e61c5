package vcengine

import (
	"strings"
	"testing"

	"vcgen/internal/ir"
	"vcgen/internal/solver"
	"vcgen/internal/types"
)

// recordingTransformer is a minimal Transformer that logs which hooks ran
// and writes a deterministic placeholder into any target register a
// StraightLine opcode touches, just enough to drive Step through blocks
// built by the tests below.
type recordingTransformer struct {
	calls []string
}

func (r *recordingTransformer) StraightLine(b *VcBranch, entry ir.Entry) error {
	r.calls = append(r.calls, "straight:"+entry.Code.Mnemonic())
	return nil
}
func (r *recordingTransformer) Fork(b, child *VcBranch, entry ir.Entry) error {
	r.calls = append(r.calls, "fork")
	b.Assert(solver.Var("falsethrough"))
	child.Assert(solver.Var("taken"))
	return nil
}
func (r *recordingTransformer) ForkSwitch(b *VcBranch, children []*VcBranch, entry ir.Entry) error {
	r.calls = append(r.calls, "switch")
	return nil
}
func (r *recordingTransformer) Narrow(b, child *VcBranch, entry ir.Entry, trueType, falseType types.Type) error {
	r.calls = append(r.calls, "narrow")
	return nil
}
func (r *recordingTransformer) Enter(b *VcBranch, scope *Scope) error {
	r.calls = append(r.calls, "enter:"+scope.Kind.String())
	return nil
}
func (r *recordingTransformer) Exit(b *VcBranch, scope *Scope) error {
	r.calls = append(r.calls, "exit:"+scope.Kind.String())
	return nil
}
func (r *recordingTransformer) EndFor(b *VcBranch, scope *Scope, entry ir.Entry) error {
	r.calls = append(r.calls, "end-for")
	return nil
}
func (r *recordingTransformer) EndLoop(b *VcBranch, scope *Scope, entry ir.Entry) error {
	r.calls = append(r.calls, "end-loop")
	return nil
}
func (r *recordingTransformer) Return(b *VcBranch, entry ir.Entry) error {
	r.calls = append(r.calls, "return")
	return nil
}
func (r *recordingTransformer) Fail(b *VcBranch, entry ir.Entry) error {
	r.calls = append(r.calls, "fail")
	return nil
}
func (r *recordingTransformer) Throw(b *VcBranch, entry ir.Entry) error {
	r.calls = append(r.calls, "throw")
	return nil
}

var _ Transformer = (*recordingTransformer)(nil)

func TestForkClonesIndependently(t *testing.T) {
	e := New(Config{})
	master := e.NewMaster(&ir.Block{Entries: []ir.Entry{{Code: ir.Return{}}}}, []types.Type{types.Int{}})
	child := e.fork(master, 0)

	child.Set(0, solver.Var("childOnly"))
	if master.Get(0).String() == "childOnly" {
		t.Fatal("mutating the child's env leaked into the parent")
	}

	child.Types[0] = types.Bool{}
	if master.TypeOf(0) == (types.Bool{}) {
		t.Fatal("mutating the child's types leaked into the parent")
	}
}

func TestJoinSplitsOnPointerIdenticalPrefix(t *testing.T) {
	e := New(Config{})
	master := e.NewMaster(&ir.Block{Entries: []ir.Entry{{Code: ir.Return{}}}}, nil)
	p, q := solver.Var("p"), solver.Var("q")
	master.TopScope().Constraints = []*solver.Expr{&p, &q}

	child := e.fork(master, 0)
	preForkHead := master.TopScope().Constraints

	r := solver.Var("r")
	child.Assert(r)
	s := solver.Var("s")
	master.Assert(s)

	e.Join(master, child)

	got := master.TopScope().Constraints
	if len(got) != 3 {
		t.Fatalf("expected 3 entries after join, got %d", len(got))
	}
	if got[0] != preForkHead[0] || got[1] != preForkHead[1] {
		t.Fatal("expected the common prefix to be pointer-identical to the pre-fork list head")
	}
	want := "(or s r)"
	if got[2].String() != want {
		t.Fatalf("joined tail = %s, want %s", got[2].String(), want)
	}
}

// TestJoinNoRemainderLeavesScopeUntouched is §8 property 5: two branches
// whose constraint lists fully coincide must join back to exactly the
// pre-fork list, not common++[Or(true,true)].
func TestJoinNoRemainderLeavesScopeUntouched(t *testing.T) {
	e := New(Config{})
	master := e.NewMaster(&ir.Block{Entries: []ir.Entry{{Code: ir.Return{}}}}, nil)
	p, q := solver.Var("p"), solver.Var("q")
	master.TopScope().Constraints = []*solver.Expr{&p, &q}

	child := e.fork(master, 0)
	preFork := master.TopScope().Constraints

	e.Join(master, child)

	got := master.TopScope().Constraints
	if len(got) != len(preFork) {
		t.Fatalf("expected join with no remainder to leave the list untouched, got %d entries", len(got))
	}
	for i := range preFork {
		if got[i] != preFork[i] {
			t.Fatalf("expected pointer-identical constraints at index %d after a no-remainder join", i)
		}
	}
}

func TestKillIsIdempotent(t *testing.T) {
	e := New(Config{})
	master := e.NewMaster(&ir.Block{Entries: []ir.Entry{{Code: ir.Return{}}}}, nil)
	master.Assert(solver.Var("p"))
	master.Kill()
	master.Kill()

	top := master.TopScope()
	if len(top.Constraints) != 1 || (*top.Constraints[0]).String() != "false" {
		t.Fatalf("expected exactly [false] after a double kill, got %#v", top.Constraints)
	}
}

func TestStepIfForksAndJoinsDeterministically(t *testing.T) {
	// No trailing Return: both sides fall through past "end" so their
	// asserted constraints survive to be joined, instead of being wiped
	// by Return's Kill.
	block := &ir.Block{Entries: []ir.Entry{
		{Code: ir.If{Left: 0, Right: 0, Cmp: ir.CmpEq, Target: "taken"}},
		{Code: ir.Const{Target: 1, Value: falseConst}},
		{Code: ir.Goto{Target: "end"}},
		{Code: ir.LabelDef{Name: "taken"}},
		{Code: ir.Const{Target: 1, Value: trueConst}},
		{Code: ir.LabelDef{Name: "end"}},
	}}

	run := func() string {
		e := New(Config{})
		master := e.NewMaster(block, []types.Type{types.Int{}})
		tr := &recordingTransformer{}
		v, err := e.Transform(master, tr)
		if err != nil {
			t.Fatalf("Transform: %v", err)
		}
		return strings.ReplaceAll(v.String(), e.namespace, "NS")
	}

	first := run()
	second := run()
	if first != second {
		t.Fatalf("Transform is not deterministic: %q vs %q", first, second)
	}
	if !strings.Contains(first, "falsethrough") || !strings.Contains(first, "taken") {
		t.Fatalf("expected the joined value to carry both fork branches' constraints, got %q", first)
	}
}

func TestStepLoopEndForPopsForScope(t *testing.T) {
	block := &ir.Block{Entries: []ir.Entry{
		{Code: ir.Loop{End: "end", IsForAll: true, Source: 0, Index: 1}},
		{Code: ir.LoopEnd{}},
		{Code: ir.LabelDef{Name: "end"}},
		{Code: ir.Return{}},
	}}
	e := New(Config{})
	master := e.NewMaster(block, []types.Type{types.Set{Elem: types.Int{}}})
	tr := &recordingTransformer{}
	if _, err := e.Transform(master, tr); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	foundEnter, foundEndFor := false, false
	for _, c := range tr.calls {
		if c == "enter:for" {
			foundEnter = true
		}
		if c == "end-for" {
			foundEndFor = true
		}
	}
	if !foundEnter || !foundEndFor {
		t.Fatalf("expected enter:for and end-for hooks, got %v", tr.calls)
	}
}

func TestIfTypeVoidSideSkipsFork(t *testing.T) {
	block := &ir.Block{Entries: []ir.Entry{
		{Code: ir.IfType{Operand: 0, Test: types.Int{}, Target: "isInt"}},
		{Code: ir.Fail{}},
		{Code: ir.LabelDef{Name: "isInt"}},
		{Code: ir.Return{}},
	}}
	e := New(Config{})
	master := e.NewMaster(block, []types.Type{types.Int{}})
	tr := &recordingTransformer{}
	if _, err := e.Transform(master, tr); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if master.TypeOf(0) != (types.Int{}) {
		t.Fatalf("expected the operand to retype to int, got %v", master.TypeOf(0))
	}
	for _, c := range tr.calls {
		if c == "fork" {
			t.Fatal("an if-is whose false side is void must not fork")
		}
	}
}

// argTransformer asserts the If's left operand's current expression onto
// whichever side takes it, so a test can confirm an argument bound via
// EvaluateBlock's inputs actually flows into the obligation.
type argTransformer struct{ recordingTransformer }

func (a *argTransformer) Fork(b, child *VcBranch, entry ir.Entry) error {
	left := entry.Code.(ir.If).Left
	child.Assert(b.Get(left))
	return a.recordingTransformer.Fork(b, child, entry)
}

func TestStepSwitchForksOnePerCaseAndDefaultContinues(t *testing.T) {
	block := &ir.Block{Entries: []ir.Entry{
		{Code: ir.Switch{
			Operand: 0,
			Cases: []ir.SwitchCase{
				{Value: trueConst, Target: "caseA"},
				{Value: falseConst, Target: "caseB"},
			},
			Default: "def",
		}},
		{Code: ir.LabelDef{Name: "def"}},
		{Code: ir.Const{Target: 1, Value: trueConst}},
		{Code: ir.Goto{Target: "end"}},
		{Code: ir.LabelDef{Name: "caseA"}},
		{Code: ir.Const{Target: 1, Value: trueConst}},
		{Code: ir.Goto{Target: "end"}},
		{Code: ir.LabelDef{Name: "caseB"}},
		{Code: ir.Const{Target: 1, Value: trueConst}},
		{Code: ir.LabelDef{Name: "end"}},
	}}
	e := New(Config{})
	master := e.NewMaster(block, []types.Type{types.Int{}})
	tr := &recordingTransformer{}
	if _, err := e.Transform(master, tr); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	found := false
	for _, c := range tr.calls {
		if c == "switch" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a switch hook call, got %v", tr.calls)
	}
	if len(master.engine.branches) != 3 {
		t.Fatalf("expected master plus 2 case children, got %d branches", len(master.engine.branches))
	}
}

func TestStepTryCatchPushesTryScope(t *testing.T) {
	block := &ir.Block{Entries: []ir.Entry{
		{Code: ir.TryCatch{End: "end", Target: "catch"}},
		{Code: ir.LabelDef{Name: "end"}},
		{Code: ir.Return{}},
		{Code: ir.LabelDef{Name: "catch"}},
		{Code: ir.Fail{}},
	}}
	e := New(Config{})
	master := e.NewMaster(block, nil)
	tr := &recordingTransformer{}
	if _, err := e.Transform(master, tr); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	found := false
	for _, c := range tr.calls {
		if c == "enter:try" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected enter:try hook, got %v", tr.calls)
	}
}

func TestStepAssertAndAssumePushScopesTaggedCorrectly(t *testing.T) {
	block := &ir.Block{Entries: []ir.Entry{
		{Code: ir.Assert{End: "endAssert"}},
		{Code: ir.LabelDef{Name: "endAssert"}},
		{Code: ir.Assume{End: "endAssume"}},
		{Code: ir.LabelDef{Name: "endAssume"}},
		{Code: ir.Return{}},
	}}
	e := New(Config{})
	master := e.NewMaster(block, nil)
	tr := &recordingTransformer{}
	if _, err := e.Transform(master, tr); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	count := 0
	for _, c := range tr.calls {
		if c == "enter:assert-or-assume" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 enter:assert-or-assume hooks, got %d (%v)", count, tr.calls)
	}
}

func TestThrowMarksThrownWithoutKillingConstraints(t *testing.T) {
	block := &ir.Block{Entries: []ir.Entry{
		{Code: ir.TryCatch{End: "end", Target: "catch"}},
		{Code: ir.Throw{Source: 0}},
		{Code: ir.LabelDef{Name: "end"}},
		{Code: ir.LabelDef{Name: "catch"}},
	}}
	e := New(Config{})
	master := e.NewMaster(block, []types.Type{types.Int{}})
	master.Assert(solver.Var("pre-throw"))
	tr := &recordingTransformer{}
	for {
		done, _, err := e.Step(master, tr)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if done {
			break
		}
	}
	if master.Status != Thrown {
		t.Fatalf("expected Thrown status, got %v", master.Status)
	}
	if _, ok := master.NearestTryScope(); !ok {
		t.Fatal("expected NearestTryScope to find the enclosing try scope after a throw")
	}
	found := false
	for _, s := range master.Scopes() {
		for _, c := range s.Constraints {
			if (*c).String() == "pre-throw" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected throw to preserve prior constraints instead of killing the branch")
	}
}

func TestEvaluateBlockBindsInputsInsteadOfFreshVars(t *testing.T) {
	// No trailing Return on the taken side, so the asserted constraint
	// survives the join instead of being wiped by Kill.
	block := &ir.Block{Entries: []ir.Entry{
		{Code: ir.If{Left: 0, Right: 0, Cmp: ir.CmpEq, Target: "ok"}},
		{Code: ir.Fail{Message: "constraint not satisfied"}},
		{Code: ir.LabelDef{Name: "ok"}},
	}}
	e := New(Config{})
	arg := solver.Var("argExpr")
	v, err := e.EvaluateBlock(block, []solver.Expr{arg}, []types.Type{types.Int{}}, &argTransformer{})
	if err != nil {
		t.Fatalf("EvaluateBlock: %v", err)
	}
	if !strings.Contains(v.String(), "argExpr") {
		t.Fatalf("expected the evaluated obligation to reference the bound argument, got %q", v.String())
	}
}
