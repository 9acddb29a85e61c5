package transformer

import (
	"vcgen/internal/globalgen"
	"vcgen/internal/loader"
	"vcgen/internal/solver"
	"vcgen/internal/wyil"
)

// Config builds a Transformer. Solver and Generator are the two external
// collaborators §6 names (the SMT/automaton solver and, through it, the
// refinement-predicate generator); Declarations/Loader mirror
// internal/globalgen's own constructor so a DirectInvoke can resolve a
// callee's precondition/postcondition the same way generateNominal
// resolves a type declaration.
type Config struct {
	Declarations []wyil.Declaration
	Loader       loader.Loader
	Generator    *globalgen.Generator
	Solver       solver.Solver
}
