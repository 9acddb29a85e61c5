// Package solvertest is an in-memory solver.Solver test double returning
// scripted verdicts, so internal/transformer and internal/vcengine tests
// never need a live solver server.
package solvertest

import (
	"context"
	"fmt"
	"sync"

	"vcgen/internal/solver"
)

// Solver answers Check calls from a script keyed by the query's rendered
// string, falling back to Default when no script entry matches.
type Solver struct {
	mu      sync.Mutex
	script  map[string]solver.Verdict
	Default solver.Verdict
	Calls   []solver.Expr
}

// New returns a Solver that answers every query with Default unless told
// otherwise via On.
func New(Default solver.Verdict) *Solver {
	return &Solver{script: map[string]solver.Verdict{}, Default: Default}
}

// On scripts the verdict for a specific query, matched by its String form.
func (s *Solver) On(e solver.Expr, v solver.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script[e.String()] = v
}

func (s *Solver) Check(_ context.Context, e solver.Expr) (solver.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, e)
	if v, ok := s.script[e.String()]; ok {
		return v, nil
	}
	return s.Default, nil
}

// Failing is a Solver stand-in that always errors, for exercising the
// transformer's/engine's error-propagation paths.
type Failing struct{ Err error }

func (f Failing) Check(context.Context, solver.Expr) (solver.Verdict, error) {
	if f.Err != nil {
		return solver.Unknown, f.Err
	}
	return solver.Unknown, fmt.Errorf("solvertest: forced failure")
}
