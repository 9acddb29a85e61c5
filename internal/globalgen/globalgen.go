// Package globalgen compiles a nominal type's refinement predicate into an
// ir.Block, memoized by qualified name (§4.E). It consumes unresolved
// surface type trees via internal/types.Type (the same closed sum a
// resolved Type already covers every shape §6 names: list, set, map,
// tuple, record, union, intersection, negation, reference, nominal) and the
// loader.Loader interface for names defined outside the current
// compilation unit.
package globalgen

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"vcgen/internal/cache"
	"vcgen/internal/ir"
	"vcgen/internal/loader"
	"vcgen/internal/types"
	"vcgen/internal/verrors"
	"vcgen/internal/wyil"
)

// Generator elaborates refinement predicates, memoizing every nominal name
// it resolves exactly once per qualified name (§5), and collapsing
// concurrent requests for the same name via singleflight.
type Generator struct {
	declarations map[string]wyil.Declaration
	loader       loader.Loader
	cache        cache.BlockCache

	sf singleflight.Group

	mu         sync.Mutex
	memo       map[string]memoEntry
	inProgress map[string]bool
}

type memoEntry struct {
	block *ir.Block
	err   error
}

// New builds a Generator over the declarations of the compilation unit
// currently being processed, falling back to l for names defined
// elsewhere. c may be nil, in which case nothing is persisted across
// Generator instances.
func New(decls []wyil.Declaration, l loader.Loader, c cache.BlockCache) *Generator {
	if c == nil {
		c = cache.NullCache{}
	}
	byName := make(map[string]wyil.Declaration, len(decls))
	for _, d := range decls {
		byName[d.DeclName().String()] = d
	}
	return &Generator{
		declarations: byName,
		loader:       l,
		cache:        c,
		memo:         map[string]memoEntry{},
		inProgress:   map[string]bool{},
	}
}

// Generate returns the refinement-check block for t, or nil if t carries no
// refinement (§4.E: "generate(qualifiedName, context) -> Block?").
func (g *Generator) Generate(ctx context.Context, t types.Type) (*ir.Block, error) {
	switch tt := t.(type) {
	case types.Void, types.Any, types.Null, types.Bool, types.Byte, types.Char,
		types.Int, types.Rational, types.Str, types.Function, types.Method:
		return nil, nil

	case types.List:
		return g.generateContainer(ctx, tt.Elem)
	case types.Set:
		return g.generateContainer(ctx, tt.Elem)
	case types.Tuple:
		return g.generateTuple(ctx, tt)
	case types.Record:
		return g.generateRecord(ctx, tt)
	case types.Union:
		return g.generateUnion(ctx, tt)
	case types.Map:
		return g.generateIdentity(ctx, "map", tt.Key, tt.Value)
	case types.Reference:
		return g.generateIdentity(ctx, "reference", tt.Elem)
	case types.Intersection:
		return g.generateIdentity(ctx, "intersection", tt.Elems...)
	case types.Negation:
		return g.generateIdentity(ctx, "negation", tt.Elem)
	case types.Nominal:
		return g.generateNominal(ctx, tt.Name)
	case types.Recursive:
		return nil, verrors.New(verrors.UnsupportedFeature,
			"refinement elaboration for an anonymous recursive type is not supported: %s", tt)

	default:
		return nil, verrors.New(verrors.UnsupportedFeature, "refinement elaboration for %T is not supported", t)
	}
}

// generateContainer implements the list(E)/set(E) rule (§4.E): if the
// element type carries a refinement P, produce a block that loads the
// container in slot 0, iterates with forall over slot 1, and splices
// shift(1, P) inside the loop.
func (g *Generator) generateContainer(ctx context.Context, elem types.Type) (*ir.Block, error) {
	p, err := g.Generate(ctx, elem)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	const value, index ir.Register = 0, 1
	const end ir.Label = "end"

	entries := []ir.Entry{
		{Code: ir.Loop{End: end, IsForAll: true, Source: value, Index: index}},
	}
	entries = append(entries, p.Shift(1, 0).Entries...)
	entries = append(entries,
		ir.Entry{Code: ir.LoopEnd{}},
		ir.Entry{Code: ir.LabelDef{Name: end}},
	)
	return (&ir.Block{Entries: entries}).Relabel(), nil
}

// generateTuple implements the tuple(E1...En) rule: for each i whose
// generate(Ei) != nil, load $.i into slot 1 and splice shift(1, Pi).
func (g *Generator) generateTuple(ctx context.Context, t types.Tuple) (*ir.Block, error) {
	var entries []ir.Entry
	for i, e := range t.Elems {
		p, err := g.Generate(ctx, e)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		entries = append(entries, ir.Entry{Code: ir.TupleLoad{Target: 1, Source: 0, Index: i}})
		entries = append(entries, p.Shift(1, 0).Entries...)
	}
	if entries == nil {
		return nil, nil
	}
	return (&ir.Block{Entries: entries}).Relabel(), nil
}

// generateRecord implements the record(field->E) rule: same shape as tuple
// but using fieldload instead of tupleload.
func (g *Generator) generateRecord(ctx context.Context, t types.Record) (*ir.Block, error) {
	var entries []ir.Entry
	for _, f := range t.Fields {
		p, err := g.Generate(ctx, f.Type)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		entries = append(entries, ir.Entry{Code: ir.FieldLoad{Target: 1, Source: 0, Field: f.Name}})
		entries = append(entries, p.Shift(1, 0).Entries...)
	}
	if entries == nil {
		return nil, nil
	}
	return (&ir.Block{Entries: entries}).Relabel(), nil
}

// generateUnion implements the union rule: a union whose members carry no
// refinements elaborates to nil, a pure type test imposing no additional
// predicate. A union with a refined member is the open design question of
// §9.Q1; implementations must fail cleanly rather than silently drop it.
func (g *Generator) generateUnion(ctx context.Context, t types.Union) (*ir.Block, error) {
	for _, e := range t.Elems {
		p, err := g.Generate(ctx, e)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return nil, verrors.New(verrors.UnsupportedFeature,
				"union refinement elaboration is not supported (member %s is refined)", e)
		}
	}
	return nil, nil
}

// generateIdentity covers map/reference/intersection/negation (§9.Q2): the
// stub behavior is identity (nil) when none of the wrapped types carry a
// refinement; if any of them do, silently returning nil would drop that
// refinement unsoundly, so this fails with UnsupportedFeature instead.
func (g *Generator) generateIdentity(ctx context.Context, kind string, wrapped ...types.Type) (*ir.Block, error) {
	for _, t := range wrapped {
		p, err := g.Generate(ctx, t)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return nil, verrors.New(verrors.UnsupportedFeature, "%s refinement elaboration is not supported", kind)
		}
	}
	return nil, nil
}
