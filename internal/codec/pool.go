package codec

import (
	"vcgen/internal/constant"
	"vcgen/internal/types"
)

// writePools interns strings, paths, names, constants and types during
// encoding so that repeated values (a field name reused across a hundred
// record types, a package path shared by every declaration in a
// compilation unit) are written once and referenced by index thereafter.
type writePools struct {
	strings   []string
	stringIdx map[string]uint64

	paths   []types.Path
	pathIdx map[string]uint64

	names   []types.QualifiedName
	nameIdx map[string]uint64

	constants   []constant.Constant
	constantIdx map[string]uint64

	types   []types.Type
	typeIdx map[string]uint64
}

func newWritePools() *writePools {
	return &writePools{
		stringIdx:   map[string]uint64{},
		pathIdx:     map[string]uint64{},
		nameIdx:     map[string]uint64{},
		constantIdx: map[string]uint64{},
		typeIdx:     map[string]uint64{},
	}
}

func (p *writePools) intern(s string) uint64 {
	if idx, ok := p.stringIdx[s]; ok {
		return idx
	}
	idx := uint64(len(p.strings))
	p.strings = append(p.strings, s)
	p.stringIdx[s] = idx
	return idx
}

// internPath interns a path by repeated parent-plus-one-segment steps,
// matching the reader's `parent = 0 ⇒ root; else pathPool[parent-1] ++
// stringPool[stringIndex]` reconstruction rule (§4.D). Returns the
// 1-based pool index of the full path (0 means the empty root path).
func (p *writePools) internPath(path types.Path) uint64 {
	if len(path) == 0 {
		return 0
	}
	key := path.String()
	if idx, ok := p.pathIdx[key]; ok {
		return idx
	}
	p.internPath(path[:len(path)-1])
	p.intern(path[len(path)-1])
	idx := uint64(len(p.paths)) + 1
	p.paths = append(p.paths, path)
	p.pathIdx[key] = idx
	return idx
}

func (p *writePools) internName(q types.QualifiedName) uint64 {
	key := q.String()
	if idx, ok := p.nameIdx[key]; ok {
		return idx
	}
	p.internPath(q.Path) // ensure the path pool already contains it by Flush time
	p.intern(q.Symbol)   // ditto for the string pool
	idx := uint64(len(p.names))
	p.names = append(p.names, q)
	p.nameIdx[key] = idx
	return idx
}

func (p *writePools) internConstant(c constant.Constant) uint64 {
	key := c.Key()
	if idx, ok := p.constantIdx[key]; ok {
		return idx
	}
	idx := uint64(len(p.constants))
	p.constants = append(p.constants, c)
	p.constantIdx[key] = idx
	return idx
}

func (p *writePools) internType(t types.Type) uint64 {
	key := t.String()
	if idx, ok := p.typeIdx[key]; ok {
		return idx
	}
	idx := uint64(len(p.types))
	p.types = append(p.types, t)
	p.typeIdx[key] = idx
	return idx
}

// readPools holds the pools as reconstructed, in pool order, during
// decoding; later pool entries and code-blocks reference earlier ones by
// index only, so decoding the five pools strictly in file order is enough
// to resolve every reference.
type readPools struct {
	strings   []string
	paths     []types.Path
	names     []types.QualifiedName
	constants []constant.Constant
	types     []types.Type
}
