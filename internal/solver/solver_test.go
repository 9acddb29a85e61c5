package solver

import (
	"math/big"
	"testing"

	"vcgen/internal/constant"
)

func TestExprString(t *testing.T) {
	e := And(Eq(Var("x"), Lit(constant.NewInt(big.NewInt(1)))), Not(SetIn(Var("y"), Var("s"))))
	got := e.String()
	want := "(and (eq x int:1) (not (set.in y s)))"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestAndOrSingleArgCollapse(t *testing.T) {
	e := Var("x")
	if got := And(e); got.Op != OpVar {
		t.Fatalf("And of one arg should collapse to the arg, got Op=%v", got.Op)
	}
	if got := Or(e); got.Op != OpVar {
		t.Fatalf("Or of one arg should collapse to the arg, got Op=%v", got.Op)
	}
}

func TestToWireLiteralShapes(t *testing.T) {
	rec := constant.NewRecord(
		constant.Field{Name: "b", Value: constant.Bool{Value: true}},
		constant.Field{Name: "a", Value: constant.Str{Value: "hi"}},
	)
	w := toWire(Lit(rec))
	fields, ok := w.Literal.(map[string]interface{})
	if !ok {
		t.Fatalf("expected record literal to encode as a map, got %T", w.Literal)
	}
	if fields["a"] != "hi" || fields["b"] != true {
		t.Fatalf("unexpected field encoding: %#v", fields)
	}
}

func TestToWireListLiteral(t *testing.T) {
	l := constant.List{Elems: []constant.Constant{
		constant.NewInt(big.NewInt(1)),
		constant.NewInt(big.NewInt(2)),
	}}
	w := toWire(Lit(l))
	elems, ok := w.Literal.([]interface{})
	if !ok || len(elems) != 2 {
		t.Fatalf("expected a 2-element slice literal, got %#v", w.Literal)
	}
	if elems[0] != "1" || elems[1] != "2" {
		t.Fatalf("expected big.Int literals encoded as decimal strings, got %#v", elems)
	}
}
