// Package memloader is an in-memory reference Loader, keyed by qualified
// name, for tests and for compilation units the global generator resolves
// without touching a real module resolver.
package memloader

import (
	"sync"

	"vcgen/internal/types"
	"vcgen/internal/verrors"
	"vcgen/internal/wyil"
)

// Loader is a concurrency-safe map-backed loader.Loader.
type Loader struct {
	mu      sync.RWMutex
	modules map[string]*wyil.WyilFile
}

func New() *Loader {
	return &Loader{modules: map[string]*wyil.WyilFile{}}
}

// Register indexes f under the qualified name of each of its declarations,
// so LoadModule finds f by any name it declares.
func (l *Loader) Register(f *wyil.WyilFile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range f.Declarations {
		l.modules[d.DeclName().String()] = f
	}
}

func (l *Loader) LoadModule(name types.QualifiedName) (*wyil.WyilFile, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.modules[name.String()]
	if !ok {
		return nil, verrors.New(verrors.UnresolvedName, "no module declares %s", name)
	}
	return f, nil
}
