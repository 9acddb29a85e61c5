// Package wyil implements the IR-consumer data model (§6): the declaration
// container a surrounding compiler hands the verification core, and the
// core hands back to a loader when resolving names outside the current
// compilation unit.
package wyil

import (
	"github.com/google/uuid"

	"vcgen/internal/constant"
	"vcgen/internal/ir"
	"vcgen/internal/types"
	"vcgen/internal/verrors"
)

// Declaration is the closed sum over the three kinds of top-level
// declaration a WyilFile carries (§6).
type Declaration interface {
	isDeclaration()
	DeclName() types.QualifiedName
}

// ConstantDecl binds a name to a literal value.
type ConstantDecl struct {
	Name  types.QualifiedName
	Value constant.Constant
}

func (ConstantDecl) isDeclaration()                   {}
func (c ConstantDecl) DeclName() types.QualifiedName { return c.Name }

// TypeDecl binds a name to a Type, optionally carrying a refinement
// constraint block compiled by the global generator (§4.E). Constraint is
// nil when the type declares no refinement.
type TypeDecl struct {
	Name       types.QualifiedName
	Underlying types.Type
	Constraint *ir.Block
}

func (TypeDecl) isDeclaration()                   {}
func (t TypeDecl) DeclName() types.QualifiedName { return t.Name }

// Case is one case of a function/method declaration: its optional
// precondition/postcondition blocks and its mandatory body.
type Case struct {
	Precondition  *ir.Block
	Postcondition *ir.Block
	Body          *ir.Block
}

// FunctionOrMethodDecl binds a name and signature to one or more cases, all
// sharing that signature. Overloads that share a name but differ in
// signature are separate declarations.
type FunctionOrMethodDecl struct {
	Name      types.QualifiedName
	Signature types.Type // types.Function or types.Method
	Cases     []Case
}

func (FunctionOrMethodDecl) isDeclaration()                   {}
func (f FunctionOrMethodDecl) DeclName() types.QualifiedName { return f.Name }

// WyilFile is the unit the loader and the global generator exchange: one
// compiled source file's worth of declarations (§6).
type WyilFile struct {
	ID           uuid.UUID
	Filename     string
	Declarations []Declaration
}

// New constructs a WyilFile, validating the uniqueness invariants from §6:
// no two functions/methods share (name, signature); no two type
// declarations share a name; no two constant declarations share a name.
// A violation fails with DuplicateDeclaration rather than silently
// shadowing the earlier declaration.
func New(filename string, decls []Declaration) (*WyilFile, error) {
	seenConstants := map[string]bool{}
	seenTypes := map[string]bool{}
	seenFuncs := map[string]bool{}

	for _, d := range decls {
		switch v := d.(type) {
		case ConstantDecl:
			key := v.Name.String()
			if seenConstants[key] {
				return nil, verrors.New(verrors.DuplicateDeclaration, "duplicate constant declaration %s", key)
			}
			seenConstants[key] = true
		case TypeDecl:
			key := v.Name.String()
			if seenTypes[key] {
				return nil, verrors.New(verrors.DuplicateDeclaration, "duplicate type declaration %s", key)
			}
			seenTypes[key] = true
		case FunctionOrMethodDecl:
			key := v.Name.String() + ":" + v.Signature.String()
			if seenFuncs[key] {
				return nil, verrors.New(verrors.DuplicateDeclaration, "duplicate function/method declaration %s", key)
			}
			seenFuncs[key] = true
		default:
			return nil, verrors.New(verrors.DuplicateDeclaration, "unknown declaration kind %T", d)
		}
	}

	return &WyilFile{ID: uuid.New(), Filename: filename, Declarations: decls}, nil
}

// Lookup returns the declaration bound to name, if any.
func (f *WyilFile) Lookup(name types.QualifiedName) (Declaration, bool) {
	for _, d := range f.Declarations {
		if d.DeclName().String() == name.String() {
			return d, true
		}
	}
	return nil, false
}
