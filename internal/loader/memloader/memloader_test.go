package memloader

import (
	"testing"

	"vcgen/internal/ir"
	"vcgen/internal/types"
	"vcgen/internal/wyil"
)

func TestLoadModuleFindsRegisteredDeclaration(t *testing.T) {
	f, err := wyil.New("m.wyil", []wyil.Declaration{
		wyil.TypeDecl{Name: types.QualifiedName{Symbol: "nat"}, Underlying: types.Int{}},
		wyil.FunctionOrMethodDecl{
			Name:      types.QualifiedName{Symbol: "f"},
			Signature: types.Function{Params: []types.Type{types.Int{}}, Returns: types.Int{}},
			Cases:     []wyil.Case{{Body: &ir.Block{}}},
		},
	})
	if err != nil {
		t.Fatalf("wyil.New: %v", err)
	}

	l := New()
	l.Register(f)

	got, err := l.LoadModule(types.QualifiedName{Symbol: "nat"})
	if err != nil {
		t.Fatalf("LoadModule: %v", err)
	}
	if got != f {
		t.Fatal("expected the registered WyilFile to be returned")
	}
}

func TestLoadModuleUnresolvedName(t *testing.T) {
	l := New()
	_, err := l.LoadModule(types.QualifiedName{Symbol: "missing"})
	if err == nil {
		t.Fatal("expected UnresolvedName error")
	}
}
