package ir

import (
	"vcgen/internal/constant"
	"vcgen/internal/types"
)

// Code is the closed sum over bytecode kinds (§3). Every variant fixes its
// own operand shape and exposes Slots/Remap/Relabel so the engine and the
// codec can stay opcode-agnostic about everything except dispatch.
type Code interface {
	isCode()
	// Slots returns every register this opcode reads or writes.
	Slots() []Register
	// Remap returns a copy of this opcode with every register renumbered.
	Remap(RegisterMap) Code
	// Relabel returns a copy of this opcode with every label renamed.
	Relabel(LabelMap) Code
	Mnemonic() string
}

// BinOpKind enumerates the binary-assign arithmetic/comparison/logical
// operators (§3: "binary-assign (target, source1, source2)").
type BinOpKind uint8

const (
	Add BinOpKind = iota
	Sub
	Mul
	Div
	Rem
	Eq
	Neq
	Lt
	Le
	Gt
	Ge
	And
	Or
)

// BinOp computes Target = Left <Op> Right.
type BinOp struct {
	Op            BinOpKind
	Target, Left, Right Register
}

func (BinOp) isCode() {}
func (b BinOp) Slots() []Register { return []Register{b.Target, b.Left, b.Right} }
func (b BinOp) Remap(m RegisterMap) Code {
	return BinOp{Op: b.Op, Target: m(b.Target), Left: m(b.Left), Right: m(b.Right)}
}
func (b BinOp) Relabel(LabelMap) Code { return b }
func (BinOp) Mnemonic() string        { return "binop" }

// UnaryOpKind enumerates the unary-opcode family (§3: "unary (target,
// source, type)").
type UnaryOpKind uint8

const (
	Move UnaryOpKind = iota
	Assign
	Convert
	Invert
	Negate
	LengthOf
	Dereference
	NewObject
)

// Unary computes Target = <Op>(Source), elaborated at Type.
type Unary struct {
	Op             UnaryOpKind
	Target, Source Register
	Type           types.Type
}

func (Unary) isCode() {}
func (u Unary) Slots() []Register { return []Register{u.Target, u.Source} }
func (u Unary) Remap(m RegisterMap) Code {
	return Unary{Op: u.Op, Target: m(u.Target), Source: m(u.Source), Type: u.Type}
}
func (u Unary) Relabel(LabelMap) Code { return u }
func (Unary) Mnemonic() string        { return "unary" }

// IndexOf computes Target = Sequence[Index] (binary-assign shape).
type IndexOf struct{ Target, Sequence, Index Register }

func (IndexOf) isCode() {}
func (x IndexOf) Slots() []Register { return []Register{x.Target, x.Sequence, x.Index} }
func (x IndexOf) Remap(m RegisterMap) Code {
	return IndexOf{Target: m(x.Target), Sequence: m(x.Sequence), Index: m(x.Index)}
}
func (x IndexOf) Relabel(LabelMap) Code { return x }
func (IndexOf) Mnemonic() string        { return "indexof" }

// FieldLoad computes Target = Source.Field (n-ary-assign with field tail).
type FieldLoad struct {
	Target, Source Register
	Field          string
}

func (FieldLoad) isCode() {}
func (f FieldLoad) Slots() []Register { return []Register{f.Target, f.Source} }
func (f FieldLoad) Remap(m RegisterMap) Code {
	return FieldLoad{Target: m(f.Target), Source: m(f.Source), Field: f.Field}
}
func (f FieldLoad) Relabel(LabelMap) Code { return f }
func (FieldLoad) Mnemonic() string        { return "fieldload" }

// TupleLoad computes Target = Source.Index (n-ary-assign, positional tail).
type TupleLoad struct {
	Target, Source Register
	Index          int
}

func (TupleLoad) isCode() {}
func (t TupleLoad) Slots() []Register { return []Register{t.Target, t.Source} }
func (t TupleLoad) Remap(m RegisterMap) Code {
	return TupleLoad{Target: m(t.Target), Source: m(t.Source), Index: t.Index}
}
func (t TupleLoad) Relabel(LabelMap) Code { return t }
func (TupleLoad) Mnemonic() string        { return "tupleload" }

// ConstructKind enumerates the composite-value construction opcodes.
type ConstructKind uint8

const (
	ConstructList ConstructKind = iota
	ConstructSet
	ConstructMap
	ConstructTuple
	ConstructRecord
)

// Construct builds a composite value of Kind from Sources (n-ary-assign,
// type tail). Fields is populated (parallel to Sources) only when
// Kind == ConstructRecord.
type Construct struct {
	Kind    ConstructKind
	Target  Register
	Sources []Register
	Fields  []string
	Type    types.Type
}

func (Construct) isCode() {}
func (c Construct) Slots() []Register {
	return append([]Register{c.Target}, c.Sources...)
}
func (c Construct) Remap(m RegisterMap) Code {
	srcs := make([]Register, len(c.Sources))
	for i, s := range c.Sources {
		srcs[i] = m(s)
	}
	return Construct{Kind: c.Kind, Target: m(c.Target), Sources: srcs, Fields: c.Fields, Type: c.Type}
}
func (c Construct) Relabel(LabelMap) Code { return c }
func (Construct) Mnemonic() string        { return "construct" }

// Update writes Value into Container at Key (field name or index register),
// an n-ary-assign opcode whose tail carries which kind of update this is.
type Update struct {
	Target, Container, Value Register
	Key                      Register // index, when updating by position
	Field                    string   // field name, when updating a record
	ByField                  bool
}

func (Update) isCode() {}
func (u Update) Slots() []Register {
	s := []Register{u.Target, u.Container, u.Value}
	if !u.ByField {
		s = append(s, u.Key)
	}
	return s
}
func (u Update) Remap(m RegisterMap) Code {
	out := Update{Target: m(u.Target), Container: m(u.Container), Value: m(u.Value), Field: u.Field, ByField: u.ByField}
	if !u.ByField {
		out.Key = m(u.Key)
	}
	return out
}
func (u Update) Relabel(LabelMap) Code { return u }
func (Update) Mnemonic() string        { return "update" }

// Const loads a literal value into Target (n-ary-assign, constant tail).
type Const struct {
	Target Register
	Value  constant.Constant
}

func (Const) isCode() {}
func (c Const) Slots() []Register { return []Register{c.Target} }
func (c Const) Remap(m RegisterMap) Code { return Const{Target: m(c.Target), Value: c.Value} }
func (c Const) Relabel(LabelMap) Code    { return c }
func (Const) Mnemonic() string           { return "const" }

// DirectInvoke calls a statically-named function/method (n-ary-assign,
// qualified-name tail). Target is the zero Register when the callee
// returns void; HasTarget distinguishes that from "writes register 0".
type DirectInvoke struct {
	Target    Register
	HasTarget bool
	Sources   []Register
	Name      types.QualifiedName
}

func (DirectInvoke) isCode() {}
func (d DirectInvoke) Slots() []Register {
	if d.HasTarget {
		return append([]Register{d.Target}, d.Sources...)
	}
	return d.Sources
}
func (d DirectInvoke) Remap(m RegisterMap) Code {
	srcs := make([]Register, len(d.Sources))
	for i, s := range d.Sources {
		srcs[i] = m(s)
	}
	return DirectInvoke{Target: m(d.Target), HasTarget: d.HasTarget, Sources: srcs, Name: d.Name}
}
func (d DirectInvoke) Relabel(LabelMap) Code { return d }
func (DirectInvoke) Mnemonic() string        { return "invoke" }

// IndirectInvoke calls a first-class function value held in a register.
type IndirectInvoke struct {
	Target    Register
	HasTarget bool
	Func      Register
	Sources   []Register
}

func (IndirectInvoke) isCode() {}
func (d IndirectInvoke) Slots() []Register {
	s := append([]Register{d.Func}, d.Sources...)
	if d.HasTarget {
		s = append([]Register{d.Target}, s...)
	}
	return s
}
func (d IndirectInvoke) Remap(m RegisterMap) Code {
	srcs := make([]Register, len(d.Sources))
	for i, s := range d.Sources {
		srcs[i] = m(s)
	}
	return IndirectInvoke{Target: m(d.Target), HasTarget: d.HasTarget, Func: m(d.Func), Sources: srcs}
}
func (d IndirectInvoke) Relabel(LabelMap) Code { return d }
func (IndirectInvoke) Mnemonic() string        { return "invoke.indirect" }

// Nop does nothing; it exists purely as an attribute-carrying placeholder.
type Nop struct{}

func (Nop) isCode()                     {}
func (Nop) Slots() []Register           { return nil }
func (n Nop) Remap(RegisterMap) Code    { return n }
func (n Nop) Relabel(LabelMap) Code     { return n }
func (Nop) Mnemonic() string            { return "nop" }

// Debug carries a non-semantic register reference for debugger tooling;
// the engine dispatches it but the transformer never constrains it.
type Debug struct{ Source Register }

func (Debug) isCode()               {}
func (d Debug) Slots() []Register   { return []Register{d.Source} }
func (d Debug) Remap(m RegisterMap) Code { return Debug{Source: m(d.Source)} }
func (d Debug) Relabel(LabelMap) Code    { return d }
func (Debug) Mnemonic() string           { return "debug" }

// LabelDef marks a position in the block reachable by a jump.
type LabelDef struct{ Name Label }

func (LabelDef) isCode()             {}
func (LabelDef) Slots() []Register   { return nil }
func (l LabelDef) Remap(RegisterMap) Code { return l }
func (l LabelDef) Relabel(m LabelMap) Code { return LabelDef{Name: m.apply(l.Name)} }
func (LabelDef) Mnemonic() string          { return "label" }

// Goto is an unconditional jump.
type Goto struct{ Target Label }

func (Goto) isCode()             {}
func (Goto) Slots() []Register   { return nil }
func (g Goto) Remap(RegisterMap) Code { return g }
func (g Goto) Relabel(m LabelMap) Code { return Goto{Target: m.apply(g.Target)} }
func (Goto) Mnemonic() string          { return "goto" }

// Comparator enumerates the conditional-branch comparison operators of a
// binary-condition opcode.
type Comparator uint8

const (
	CmpEq Comparator = iota
	CmpNeq
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

// If is the binary-condition opcode (§3): fork on Left <Cmp> Right, jumping
// to Target on the taken side.
type If struct {
	Left, Right Register
	Cmp         Comparator
	Target      Label
}

func (If) isCode() {}
func (i If) Slots() []Register { return []Register{i.Left, i.Right} }
func (i If) Remap(m RegisterMap) Code {
	return If{Left: m(i.Left), Right: m(i.Right), Cmp: i.Cmp, Target: i.Target}
}
func (i If) Relabel(m LabelMap) Code { return If{Left: i.Left, Right: i.Right, Cmp: i.Cmp, Target: m.apply(i.Target)} }
func (If) Mnemonic() string          { return "if" }

// IfType is the `if-is` narrowing opcode.
type IfType struct {
	Operand Register
	Test    types.Type
	Target  Label
}

func (IfType) isCode() {}
func (i IfType) Slots() []Register { return []Register{i.Operand} }
func (i IfType) Remap(m RegisterMap) Code {
	return IfType{Operand: m(i.Operand), Test: i.Test, Target: i.Target}
}
func (i IfType) Relabel(m LabelMap) Code {
	return IfType{Operand: i.Operand, Test: i.Test, Target: m.apply(i.Target)}
}
func (IfType) Mnemonic() string { return "if-is" }

// SwitchCase is one arm of a Switch opcode.
type SwitchCase struct {
	Value  constant.Constant
	Target Label
}

// Switch forks one child per case plus the fallthrough default.
type Switch struct {
	Operand Register
	Cases   []SwitchCase
	Default Label
}

func (Switch) isCode() {}
func (s Switch) Slots() []Register { return []Register{s.Operand} }
func (s Switch) Remap(m RegisterMap) Code {
	return Switch{Operand: m(s.Operand), Cases: s.Cases, Default: s.Default}
}
func (s Switch) Relabel(m LabelMap) Code {
	cases := make([]SwitchCase, len(s.Cases))
	for i, c := range s.Cases {
		cases[i] = SwitchCase{Value: c.Value, Target: m.apply(c.Target)}
	}
	return Switch{Operand: s.Operand, Cases: cases, Default: m.apply(s.Default)}
}
func (Switch) Mnemonic() string { return "switch" }

// Return kills the branch after handing control back to the caller.
type Return struct{ Sources []Register }

func (Return) isCode() {}
func (r Return) Slots() []Register { return r.Sources }
func (r Return) Remap(m RegisterMap) Code {
	out := make([]Register, len(r.Sources))
	for i, s := range r.Sources {
		out[i] = m(s)
	}
	return Return{Sources: out}
}
func (r Return) Relabel(LabelMap) Code { return r }
func (Return) Mnemonic() string        { return "return" }

// Throw propagates Source to the nearest enclosing TryScope.
type Throw struct{ Source Register }

func (Throw) isCode()             {}
func (t Throw) Slots() []Register { return []Register{t.Source} }
func (t Throw) Remap(m RegisterMap) Code { return Throw{Source: m(t.Source)} }
func (t Throw) Relabel(LabelMap) Code    { return t }
func (Throw) Mnemonic() string           { return "throw" }

// Fail kills the branch unconditionally, e.g. a refinement predicate's
// "constraint not satisfied" exit.
type Fail struct{ Message string }

func (Fail) isCode()             {}
func (Fail) Slots() []Register   { return nil }
func (f Fail) Remap(RegisterMap) Code { return f }
func (f Fail) Relabel(LabelMap) Code  { return f }
func (Fail) Mnemonic() string         { return "fail" }

// Loop pushes a LoopScope (or, when IsForAll, a ForScope) over Modified —
// the set of registers the body may write, invalidated on entry (§4.F).
type Loop struct {
	End      Label
	Modified []Register
	IsForAll bool
	Source   Register // ForAll only
	Index    Register // ForAll only
}

func (Loop) isCode() {}
func (l Loop) Slots() []Register {
	s := append([]Register{}, l.Modified...)
	if l.IsForAll {
		s = append(s, l.Source, l.Index)
	}
	return s
}
func (l Loop) Remap(m RegisterMap) Code {
	mods := make([]Register, len(l.Modified))
	for i, r := range l.Modified {
		mods[i] = m(r)
	}
	out := Loop{End: l.End, Modified: mods, IsForAll: l.IsForAll}
	if l.IsForAll {
		out.Source, out.Index = m(l.Source), m(l.Index)
	}
	return out
}
func (l Loop) Relabel(m LabelMap) Code {
	l.End = m.apply(l.End)
	return l
}
func (Loop) Mnemonic() string { return "loop" }

// LoopEnd is the explicit terminator placed just before the label that
// marks a Loop/ForAll scope's End (Design §4.F: this is the one scope kind whose exit can't be
// expressed by the generic end-of-scope sweep alone).
type LoopEnd struct{}

func (LoopEnd) isCode()               {}
func (LoopEnd) Slots() []Register     { return nil }
func (l LoopEnd) Remap(RegisterMap) Code { return l }
func (l LoopEnd) Relabel(LabelMap) Code  { return l }
func (LoopEnd) Mnemonic() string         { return "loop-end" }

// TryCatch pushes a TryScope; Target is where control transfers on a
// Throw raised within the scope's body.
type TryCatch struct {
	End    Label
	Target Label
}

func (TryCatch) isCode()           {}
func (TryCatch) Slots() []Register { return nil }
func (t TryCatch) Remap(RegisterMap) Code { return t }
func (t TryCatch) Relabel(m LabelMap) Code {
	return TryCatch{End: m.apply(t.End), Target: m.apply(t.Target)}
}
func (TryCatch) Mnemonic() string { return "try" }

// Assert pushes an AssertOrAssumeScope tagged as an assertion.
type Assert struct{ End Label }

func (Assert) isCode()           {}
func (Assert) Slots() []Register { return nil }
func (a Assert) Remap(RegisterMap) Code { return a }
func (a Assert) Relabel(m LabelMap) Code { return Assert{End: m.apply(a.End)} }
func (Assert) Mnemonic() string          { return "assert" }

// Assume pushes an AssertOrAssumeScope tagged as an assumption.
type Assume struct{ End Label }

func (Assume) isCode()           {}
func (Assume) Slots() []Register { return nil }
func (a Assume) Remap(RegisterMap) Code { return a }
func (a Assume) Relabel(m LabelMap) Code { return Assume{End: m.apply(a.End)} }
func (Assume) Mnemonic() string          { return "assume" }
