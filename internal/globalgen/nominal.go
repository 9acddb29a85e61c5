package globalgen

import (
	"context"

	"vcgen/internal/ir"
	"vcgen/internal/types"
	"vcgen/internal/verrors"
	"vcgen/internal/wyil"
)

// generateNominal resolves Q's TypeDecl and elaborates its refinement,
// memoizing the result and collapsing concurrent callers for the same Q
// into a single compilation (§5: "the global-generator cache is written at
// most once per qualified name").
//
// The cache is marked in-progress before recursing into Q's own structure
// so that a refinement which (directly or transitively) refers back to Q
// fails cleanly instead of looping forever (§4.E: "Termination on recursive
// types").
func (g *Generator) generateNominal(ctx context.Context, q types.QualifiedName) (*ir.Block, error) {
	key := q.String()

	g.mu.Lock()
	if e, ok := g.memo[key]; ok {
		g.mu.Unlock()
		return e.block, e.err
	}
	if g.inProgress[key] {
		g.mu.Unlock()
		return nil, verrors.New(verrors.UnsupportedFeature, "recursive refinement for %s is not supported", q)
	}
	g.mu.Unlock()

	v, err, _ := g.sf.Do(key, func() (interface{}, error) {
		if b, ok, cerr := g.cache.Get(ctx, key); cerr != nil {
			return (*ir.Block)(nil), cerr
		} else if ok {
			return b, nil
		}

		g.mu.Lock()
		g.inProgress[key] = true
		g.mu.Unlock()
		defer func() {
			g.mu.Lock()
			delete(g.inProgress, key)
			g.mu.Unlock()
		}()

		block, cerr := g.computeNominal(ctx, q)
		if cerr != nil {
			return (*ir.Block)(nil), cerr
		}
		if block != nil {
			if perr := g.cache.Put(ctx, key, block); perr != nil {
				return (*ir.Block)(nil), perr
			}
		}
		return block, nil
	})

	var block *ir.Block
	if v != nil {
		block = v.(*ir.Block)
	}

	g.mu.Lock()
	g.memo[key] = memoEntry{block: block, err: err}
	g.mu.Unlock()

	return block, err
}

// computeNominal looks up Q's declaration: an authored Constraint is
// already-compiled IR and is returned as-is (this is true whether Q comes
// from the current source set or an already-compiled unit — both carry
// Constraint as a Block once present); otherwise the refinement is
// elaborated structurally from the underlying type.
func (g *Generator) computeNominal(ctx context.Context, q types.QualifiedName) (*ir.Block, error) {
	decl, err := g.lookupType(q)
	if err != nil {
		return nil, err
	}
	if decl.Constraint != nil {
		return decl.Constraint, nil
	}
	return g.Generate(ctx, decl.Underlying)
}

func (g *Generator) lookupType(q types.QualifiedName) (wyil.TypeDecl, error) {
	if d, ok := g.declarations[q.String()]; ok {
		return asTypeDecl(q, d)
	}
	if g.loader == nil {
		return wyil.TypeDecl{}, verrors.New(verrors.UnresolvedName, "no type declaration for %s", q)
	}
	f, err := g.loader.LoadModule(q)
	if err != nil {
		return wyil.TypeDecl{}, err
	}
	d, ok := f.Lookup(q)
	if !ok {
		return wyil.TypeDecl{}, verrors.New(verrors.UnresolvedName, "no declaration for %s in %s", q, f.Filename)
	}
	return asTypeDecl(q, d)
}

func asTypeDecl(q types.QualifiedName, d wyil.Declaration) (wyil.TypeDecl, error) {
	td, ok := d.(wyil.TypeDecl)
	if !ok {
		return wyil.TypeDecl{}, verrors.New(verrors.UnresolvedName, "%s is not a type declaration", q)
	}
	return td, nil
}
