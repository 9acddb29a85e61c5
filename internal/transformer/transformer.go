// Package transformer is the reference VcTransformer implementation of
// §4.G: it lowers every opcode class the vcengine dispatches into
// internal/solver.Expr, resolves DirectInvoke call sites against the
// declarations of the current compilation unit (falling back to an
// external loader.Loader the same way internal/globalgen does), and
// discharges verification obligations against an internal/solver.Solver.
package transformer

import (
	"context"
	"sync"

	"vcgen/internal/ir"
	"vcgen/internal/types"
	"vcgen/internal/vcengine"
	"vcgen/internal/verrors"
	"vcgen/internal/wyil"
)

// Failure is one collected verification outcome: a VerificationFailure or
// VerificationUnknown, reported with the originating Entry's attributes
// (§7: "reported with location attributes preserved"). Verification
// failures never abort generation for the rest of the unit (§7:
// "collected per function/method and reported together") — they
// accumulate on the Transformer instead of being returned as StraightLine/
// Fork/etc errors.
type Failure struct {
	Err     *verrors.CoreError
	Context string // a short label identifying what was being checked, e.g. "precondition of pkg.f"
}

// Transformer is one compilation unit's worth of VcTransformer state: it is
// not safe to share a single instance across concurrently-running engines
// (each vcengine.Unit in a RunBatch should construct its own via New), but
// is safe to use from the one goroutine stepping its own engine.
type Transformer struct {
	cfg   Config
	funcs map[string]wyil.FunctionOrMethodDecl

	mu       sync.Mutex
	Failures []Failure
}

var _ vcengine.Transformer = (*Transformer)(nil)

// New builds a Transformer over cfg's declarations, indexing every
// FunctionOrMethodDecl by qualified name for DirectInvoke resolution.
func New(cfg Config) *Transformer {
	funcs := map[string]wyil.FunctionOrMethodDecl{}
	for _, d := range cfg.Declarations {
		if f, ok := d.(wyil.FunctionOrMethodDecl); ok {
			funcs[f.Name.String()] = f
		}
	}
	return &Transformer{cfg: cfg, funcs: funcs}
}

// lookupFunc resolves a callee by qualified name, consulting the current
// unit's declarations first and falling back to Config.Loader for names
// defined elsewhere, mirroring internal/globalgen.lookupType.
func (t *Transformer) lookupFunc(name types.QualifiedName) (wyil.FunctionOrMethodDecl, error) {
	if f, ok := t.funcs[name.String()]; ok {
		return f, nil
	}
	if t.cfg.Loader == nil {
		return wyil.FunctionOrMethodDecl{}, verrors.New(verrors.UnresolvedName, "no function/method declaration for %s", name)
	}
	f, err := t.cfg.Loader.LoadModule(name)
	if err != nil {
		return wyil.FunctionOrMethodDecl{}, err
	}
	d, ok := f.Lookup(name)
	if !ok {
		return wyil.FunctionOrMethodDecl{}, verrors.New(verrors.UnresolvedName, "no declaration for %s in %s", name, f.Filename)
	}
	fm, ok := d.(wyil.FunctionOrMethodDecl)
	if !ok {
		return wyil.FunctionOrMethodDecl{}, verrors.New(verrors.UnresolvedName, "%s is not a function/method declaration", name)
	}
	return fm, nil
}

func paramsOf(sig types.Type) []types.Type {
	switch s := sig.(type) {
	case types.Function:
		return s.Params
	case types.Method:
		return s.Params
	default:
		return nil
	}
}

func returnsOf(sig types.Type) types.Type {
	switch s := sig.(type) {
	case types.Function:
		return s.Returns
	case types.Method:
		return s.Returns
	default:
		return types.Any{}
	}
}

// recordFailure appends a collected verification outcome, guarded for the
// (unlikely, but permitted by §5's "parallelism ... at the granularity of
// independent compilation units") case of a caller sharing one Transformer
// across goroutines against the spec's own advice.
func (t *Transformer) recordFailure(kind verrors.Kind, entry ir.Entry, context string, detail string) {
	err := verrors.New(kind, "%s: %s", context, detail).WithAttrs(entry.Attrs)
	t.mu.Lock()
	t.Failures = append(t.Failures, Failure{Err: err, Context: context})
	t.mu.Unlock()
}

// obligationCtx is used for every solver.Check call; the transformer has
// no cancellation path of its own (§5: cancellation is between opcode
// dispatches, at the engine's Step granularity, not mid-obligation).
var obligationCtx = context.Background()
