package wyil

import (
	"bytes"
	"math/big"
	"testing"

	"vcgen/internal/constant"
	"vcgen/internal/ir"
	"vcgen/internal/types"
)

func natDecl() TypeDecl {
	return TypeDecl{
		Name:       types.QualifiedName{Symbol: "nat"},
		Underlying: types.Int{},
		Constraint: &ir.Block{Entries: []ir.Entry{
			{Code: ir.Const{Target: 1, Value: constant.NewInt(big.NewInt(0))}},
			{Code: ir.If{Left: 0, Right: 1, Cmp: ir.CmpGe, Target: "ok"}},
			{Code: ir.Fail{Message: "constraint not satisfied"}},
			{Code: ir.LabelDef{Name: "ok"}},
			{Code: ir.Return{}},
		}},
	}
}

func sampleFile(t *testing.T) *WyilFile {
	t.Helper()
	f, err := New("example.wyil", []Declaration{
		ConstantDecl{Name: types.QualifiedName{Symbol: "PI"}, Value: constant.NewRational(big.NewInt(22), big.NewInt(7))},
		natDecl(),
		FunctionOrMethodDecl{
			Name:      types.QualifiedName{Symbol: "f"},
			Signature: types.Function{Params: []types.Type{types.Nominal{Name: types.QualifiedName{Symbol: "nat"}}}, Returns: types.Nominal{Name: types.QualifiedName{Symbol: "nat"}}},
			Cases: []Case{{
				Body: &ir.Block{Entries: []ir.Entry{{Code: ir.Return{Sources: []ir.Register{0}}}}},
			}},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestNewRejectsDuplicateConstant(t *testing.T) {
	_, err := New("dup.wyil", []Declaration{
		ConstantDecl{Name: types.QualifiedName{Symbol: "X"}, Value: constant.Bool{Value: true}},
		ConstantDecl{Name: types.QualifiedName{Symbol: "X"}, Value: constant.Bool{Value: false}},
	})
	if err == nil {
		t.Fatal("expected DuplicateDeclaration error")
	}
}

func TestNewAllowsOverloadsByDistinctSignature(t *testing.T) {
	sig1 := types.Function{Params: []types.Type{types.Int{}}, Returns: types.Int{}}
	sig2 := types.Function{Params: []types.Type{types.Str{}}, Returns: types.Int{}}
	_, err := New("overload.wyil", []Declaration{
		FunctionOrMethodDecl{Name: types.QualifiedName{Symbol: "f"}, Signature: sig1, Cases: []Case{{Body: &ir.Block{}}}},
		FunctionOrMethodDecl{Name: types.QualifiedName{Symbol: "f"}, Signature: sig2, Cases: []Case{{Body: &ir.Block{}}}},
	})
	if err != nil {
		t.Fatalf("expected distinct signatures to be allowed, got %v", err)
	}
}

func TestWyilFileRoundTrip(t *testing.T) {
	f := sampleFile(t)
	var buf bytes.Buffer
	if err := Encode(f, &buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Filename != f.Filename {
		t.Fatalf("expected filename %q, got %q", f.Filename, got.Filename)
	}
	if len(got.Declarations) != len(f.Declarations) {
		t.Fatalf("expected %d declarations, got %d", len(f.Declarations), len(got.Declarations))
	}

	piDecl, ok := got.Lookup(types.QualifiedName{Symbol: "PI"})
	if !ok {
		t.Fatal("expected PI to round-trip")
	}
	pi := piDecl.(ConstantDecl).Value.(constant.Rational)
	if pi.Value.RatString() != "22/7" {
		t.Fatalf("expected 22/7, got %s", pi.Value.RatString())
	}

	natDeclGot, ok := got.Lookup(types.QualifiedName{Symbol: "nat"})
	if !ok {
		t.Fatal("expected nat to round-trip")
	}
	tn := natDeclGot.(TypeDecl)
	if tn.Constraint == nil || tn.Constraint.Size() != natDecl().Constraint.Size() {
		t.Fatal("expected nat's constraint block to round-trip")
	}
	ifEntry := tn.Constraint.Entries[1].Code.(ir.If)
	labelEntry := tn.Constraint.Entries[3].Code.(ir.LabelDef)
	if ifEntry.Target != labelEntry.Name {
		t.Fatal("expected the constraint block's branch to resolve to its label after round-trip")
	}
}
