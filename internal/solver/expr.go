// Package solver defines the SMT/automaton solver interface the
// transformer consumes (§6: "Solver interface (consumed)": check(Expr) ->
// {sat, unsat, unknown}, plus an expression constructor for boolean
// connectives, arithmetic, uninterpreted functions, and the domain-specific
// list/set/map operators the transformer emits), and a WebSocket-backed
// client implementation.
package solver

import (
	"fmt"
	"strings"

	"vcgen/internal/constant"
)

// Op is one expression node kind. The set is closed: every Expr the
// transformer builds is one of these.
type Op string

const (
	OpLiteral  Op = "literal"
	OpVar      Op = "var"
	OpNot      Op = "not"
	OpAnd      Op = "and"
	OpOr       Op = "or"
	OpImplies  Op = "implies"
	OpEq       Op = "eq"
	OpLt       Op = "lt"
	OpLe       Op = "le"
	OpAdd      Op = "add"
	OpSub      Op = "sub"
	OpMul      Op = "mul"
	OpDiv      Op = "div"
	OpRem      Op = "rem"
	OpNeg      Op = "neg"
	OpApply    Op = "apply" // uninterpreted function application
	OpListLen  Op = "list.len"
	OpListGet  Op = "list.get"
	OpListSet  Op = "list.set"
	OpSetIn    Op = "set.in"
	OpSetUnion Op = "set.union"
	OpMapGet   Op = "map.get"
	OpMapHas   Op = "map.has"
	OpMapPut   Op = "map.put"
)

// Expr is an immutable solver query term. Leaves are OpLiteral/OpVar;
// every other Op carries its operands in Args.
type Expr struct {
	Op      Op
	Literal constant.Constant // set when Op == OpLiteral
	Name    string            // set when Op == OpVar or OpApply (function name)
	Args    []Expr
}

func Lit(c constant.Constant) Expr { return Expr{Op: OpLiteral, Literal: c} }
func Var(name string) Expr         { return Expr{Op: OpVar, Name: name} }

func Not(e Expr) Expr { return Expr{Op: OpNot, Args: []Expr{e}} }

func And(es ...Expr) Expr {
	if len(es) == 1 {
		return es[0]
	}
	return Expr{Op: OpAnd, Args: es}
}

func Or(es ...Expr) Expr {
	if len(es) == 1 {
		return es[0]
	}
	return Expr{Op: OpOr, Args: es}
}

func Implies(antecedent, consequent Expr) Expr {
	return Expr{Op: OpImplies, Args: []Expr{antecedent, consequent}}
}

func Eq(a, b Expr) Expr  { return Expr{Op: OpEq, Args: []Expr{a, b}} }
func Lt(a, b Expr) Expr  { return Expr{Op: OpLt, Args: []Expr{a, b}} }
func Le(a, b Expr) Expr  { return Expr{Op: OpLe, Args: []Expr{a, b}} }
func Add(a, b Expr) Expr { return Expr{Op: OpAdd, Args: []Expr{a, b}} }
func Sub(a, b Expr) Expr { return Expr{Op: OpSub, Args: []Expr{a, b}} }
func Mul(a, b Expr) Expr { return Expr{Op: OpMul, Args: []Expr{a, b}} }
func Div(a, b Expr) Expr { return Expr{Op: OpDiv, Args: []Expr{a, b}} }
func Rem(a, b Expr) Expr { return Expr{Op: OpRem, Args: []Expr{a, b}} }
func Neg(a Expr) Expr    { return Expr{Op: OpNeg, Args: []Expr{a}} }

// Apply constructs an uninterpreted function application, used by the
// transformer for any operation the solver should treat opaquely (e.g. a
// user-defined function called from within a postcondition).
func Apply(name string, args ...Expr) Expr {
	return Expr{Op: OpApply, Name: name, Args: args}
}

func ListLen(list Expr) Expr           { return Expr{Op: OpListLen, Args: []Expr{list}} }
func ListGet(list, index Expr) Expr    { return Expr{Op: OpListGet, Args: []Expr{list, index}} }
func ListSet(list, index, v Expr) Expr { return Expr{Op: OpListSet, Args: []Expr{list, index, v}} }
func SetIn(elem, set Expr) Expr        { return Expr{Op: OpSetIn, Args: []Expr{elem, set}} }
func SetUnion(a, b Expr) Expr          { return Expr{Op: OpSetUnion, Args: []Expr{a, b}} }
func MapGet(m, key Expr) Expr          { return Expr{Op: OpMapGet, Args: []Expr{m, key}} }
func MapHas(m, key Expr) Expr          { return Expr{Op: OpMapHas, Args: []Expr{m, key}} }
func MapPut(m, key, v Expr) Expr       { return Expr{Op: OpMapPut, Args: []Expr{m, key, v}} }

// String renders a compact s-expression, for log lines and test failure
// messages.
func (e Expr) String() string {
	switch e.Op {
	case OpLiteral:
		return e.Literal.Key()
	case OpVar:
		return e.Name
	}
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	name := string(e.Op)
	if e.Op == OpApply {
		name = e.Name
	}
	return fmt.Sprintf("(%s %s)", name, strings.Join(parts, " "))
}
