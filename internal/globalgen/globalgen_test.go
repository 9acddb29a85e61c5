package globalgen

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"vcgen/internal/cache"
	"vcgen/internal/constant"
	"vcgen/internal/ir"
	"vcgen/internal/loader/memloader"
	"vcgen/internal/types"
	"vcgen/internal/wyil"
)

func natDecl() wyil.TypeDecl {
	return wyil.TypeDecl{
		Name:       types.QualifiedName{Symbol: "nat"},
		Underlying: types.Int{},
		Constraint: &ir.Block{Entries: []ir.Entry{
			{Code: ir.Const{Target: 1, Value: constant.NewInt(big.NewInt(0))}},
			{Code: ir.If{Left: 0, Right: 1, Cmp: ir.CmpGe, Target: "ok"}},
			{Code: ir.Fail{Message: "constraint not satisfied"}},
			{Code: ir.LabelDef{Name: "ok"}},
		}},
	}
}

func TestGenerateScalarHasNoRefinement(t *testing.T) {
	g := New(nil, nil, nil)
	b, err := g.Generate(context.Background(), types.Int{})
	if err != nil || b != nil {
		t.Fatalf("expected nil/nil for a scalar type, got %v/%v", b, err)
	}
}

func TestGenerateNominalReturnsAuthoredConstraint(t *testing.T) {
	g := New([]wyil.Declaration{natDecl()}, nil, nil)
	b, err := g.Generate(context.Background(), types.Nominal{Name: types.QualifiedName{Symbol: "nat"}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b == nil || b.Size() != natDecl().Constraint.Size() {
		t.Fatalf("expected nat's authored constraint to be returned verbatim")
	}
}

func TestGenerateNominalIsMemoizedPerGenerator(t *testing.T) {
	g := New([]wyil.Declaration{natDecl()}, nil, nil)
	q := types.QualifiedName{Symbol: "nat"}
	b1, err := g.generateNominal(context.Background(), q)
	if err != nil {
		t.Fatalf("generateNominal: %v", err)
	}
	b2, err := g.generateNominal(context.Background(), q)
	if err != nil {
		t.Fatalf("generateNominal (second call): %v", err)
	}
	if b1 != b2 {
		t.Fatal("expected the second call to return the memoized block, not a fresh compile")
	}
}

func TestGenerateNominalResolvesViaLoader(t *testing.T) {
	f, err := wyil.New("other.wyil", []wyil.Declaration{natDecl()})
	if err != nil {
		t.Fatalf("wyil.New: %v", err)
	}
	l := memloader.New()
	l.Register(f)

	g := New(nil, l, nil)
	b, err := g.Generate(context.Background(), types.Nominal{Name: types.QualifiedName{Symbol: "nat"}})
	if err != nil {
		t.Fatalf("Generate via loader: %v", err)
	}
	if b == nil {
		t.Fatal("expected nat's constraint to be found via the loader")
	}
}

func TestGenerateUnresolvedNominal(t *testing.T) {
	g := New(nil, memloader.New(), nil)
	_, err := g.Generate(context.Background(), types.Nominal{Name: types.QualifiedName{Symbol: "missing"}})
	if err == nil {
		t.Fatal("expected an UnresolvedName error")
	}
}

func TestGenerateRecursiveRefinementFailsCleanly(t *testing.T) {
	// "cyclic" refers to itself: its underlying type is "cyclic", so
	// elaborating its refinement revisits "cyclic" while still in progress.
	cyclic := wyil.TypeDecl{
		Name:       types.QualifiedName{Symbol: "cyclic"},
		Underlying: types.Nominal{Name: types.QualifiedName{Symbol: "cyclic"}},
	}
	g := New([]wyil.Declaration{cyclic}, nil, nil)
	_, err := g.Generate(context.Background(), types.Nominal{Name: types.QualifiedName{Symbol: "cyclic"}})
	if err == nil {
		t.Fatal("expected recursive refinement elaboration to fail cleanly")
	}
}

func TestGenerateListSplicesElementRefinementUnderForall(t *testing.T) {
	g := New([]wyil.Declaration{natDecl()}, nil, nil)
	b, err := g.Generate(context.Background(), types.List{Elem: types.Nominal{Name: types.QualifiedName{Symbol: "nat"}}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b == nil {
		t.Fatal("expected a refinement block for []nat")
	}
	loop, ok := b.Entries[0].Code.(ir.Loop)
	if !ok || !loop.IsForAll || loop.Source != 0 || loop.Index != 1 {
		t.Fatalf("expected a forall loop over slot 0 with index slot 1, got %#v", b.Entries[0].Code)
	}
	foundFail := false
	for _, e := range b.Entries {
		if _, ok := e.Code.(ir.Fail); ok {
			foundFail = true
		}
	}
	if !foundFail {
		t.Fatal("expected the spliced element refinement's fail opcode to survive the splice")
	}
}

func TestGenerateListOfUnrefinedElementIsEmpty(t *testing.T) {
	g := New(nil, nil, nil)
	b, err := g.Generate(context.Background(), types.List{Elem: types.Int{}})
	if err != nil || b != nil {
		t.Fatalf("expected nil/nil for a list of an unrefined element, got %v/%v", b, err)
	}
}

func TestGenerateTupleSplicesOnlyRefinedPositions(t *testing.T) {
	g := New([]wyil.Declaration{natDecl()}, nil, nil)
	tup := types.Tuple{Elems: []types.Type{types.Str{}, types.Nominal{Name: types.QualifiedName{Symbol: "nat"}}}}
	b, err := g.Generate(context.Background(), tup)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b == nil {
		t.Fatal("expected a refinement block since the tuple's second element is refined")
	}
	load, ok := b.Entries[0].Code.(ir.TupleLoad)
	if !ok || load.Index != 1 {
		t.Fatalf("expected the first spliced entry to load tuple index 1, got %#v", b.Entries[0].Code)
	}
}

func TestGenerateRecordUsesFieldLoad(t *testing.T) {
	g := New([]wyil.Declaration{natDecl()}, nil, nil)
	rec := types.Record{Fields: []types.Field{
		{Name: "age", Type: types.Nominal{Name: types.QualifiedName{Symbol: "nat"}}},
	}}
	b, err := g.Generate(context.Background(), rec)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	load, ok := b.Entries[0].Code.(ir.FieldLoad)
	if !ok || load.Field != "age" {
		t.Fatalf("expected a fieldload of 'age', got %#v", b.Entries[0].Code)
	}
}

func TestGenerateUnionWithoutRefinementsIsEmpty(t *testing.T) {
	g := New(nil, nil, nil)
	u := types.NewUnion(types.Int{}, types.Str{})
	b, err := g.Generate(context.Background(), u)
	if err != nil || b != nil {
		t.Fatalf("expected nil/nil for an unrefined union, got %v/%v", b, err)
	}
}

func TestGenerateUnionWithRefinementIsUnsupported(t *testing.T) {
	g := New([]wyil.Declaration{natDecl()}, nil, nil)
	u := types.NewUnion(types.Str{}, types.Nominal{Name: types.QualifiedName{Symbol: "nat"}})
	_, err := g.Generate(context.Background(), u)
	if err == nil {
		t.Fatal("expected UnsupportedFeature for a union with a refined member")
	}
}

func TestGenerateMapMethodMustNotSilentlyDropRefinement(t *testing.T) {
	g := New([]wyil.Declaration{natDecl()}, nil, nil)
	m := types.Map{Key: types.Str{}, Value: types.Nominal{Name: types.QualifiedName{Symbol: "nat"}}}
	_, err := g.Generate(context.Background(), m)
	if err == nil {
		t.Fatal("expected UnsupportedFeature rather than silently dropping the value refinement")
	}
}

func TestGenerateMapOfUnrefinedTypesIsEmpty(t *testing.T) {
	g := New(nil, nil, nil)
	m := types.Map{Key: types.Str{}, Value: types.Int{}}
	b, err := g.Generate(context.Background(), m)
	if err != nil || b != nil {
		t.Fatalf("expected nil/nil for a map of unrefined types, got %v/%v", b, err)
	}
}

func TestGenerateUsesPersistentCache(t *testing.T) {
	backing := &countingCache{}
	g := New([]wyil.Declaration{natDecl()}, nil, backing)
	q := types.QualifiedName{Symbol: "nat"}

	if _, err := g.generateNominal(context.Background(), q); err != nil {
		t.Fatalf("first generateNominal: %v", err)
	}
	if backing.puts != 1 {
		t.Fatalf("expected exactly one Put, got %d", backing.puts)
	}

	getsBefore := backing.gets
	g2 := New([]wyil.Declaration{natDecl()}, nil, backing)
	if _, err := g2.generateNominal(context.Background(), q); err != nil {
		t.Fatalf("second generator's generateNominal: %v", err)
	}
	if backing.gets == getsBefore {
		t.Fatal("expected the second generator to consult the shared cache")
	}
}

type countingCache struct {
	mu    sync.Mutex
	store map[string]*ir.Block
	gets  int
	puts  int
}

func (c *countingCache) Get(_ context.Context, key string) (*ir.Block, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.store[key]
	return b, ok, nil
}

func (c *countingCache) Put(_ context.Context, key string, b *ir.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if c.store == nil {
		c.store = map[string]*ir.Block{}
	}
	c.store[key] = b
	return nil
}

var _ cache.BlockCache = (*countingCache)(nil)
