// Package loader defines the compilation-unit loader interface the global
// generator consumes when a name isn't defined in the current source set
// (§6: "Loader interface (consumed)").
package loader

import (
	"vcgen/internal/types"
	"vcgen/internal/wyil"
)

// Loader resolves a qualified name to the WyilFile declaring it.
type Loader interface {
	LoadModule(name types.QualifiedName) (*wyil.WyilFile, error)
}
