package codec

import (
	"bufio"
	"io"

	"vcgen/internal/constant"
	"vcgen/internal/types"
	"vcgen/internal/verrors"
	"vcgen/internal/ir"
)

// The methods in this file are the surface internal/wyil uses to frame its
// own declaration layer (kind tags, names, signatures) around the pooled
// primitives this package already implements for types, constants and
// code-blocks, without either package needing to know the other's private
// pool representation.

// WriteUv writes a variable-length unsigned integer to the file body.
func (w *Writer) WriteUv(v uint64) error { return writeUv(w.bw, v) }

// WriteU1 writes a single byte to the file body.
func (w *Writer) WriteU1(b byte) error { return writeU1(w.bw, b) }

// InternString interns s into the string pool and returns its index.
func (w *Writer) InternString(s string) uint64 { return w.pools.intern(s) }

// InternName interns q into the name (and transitively path/string) pools
// and returns its index.
func (w *Writer) InternName(q types.QualifiedName) uint64 { return w.pools.internName(q) }

// EncodeType writes t to the file body, interning its constituent names.
func (w *Writer) EncodeType(t types.Type) error { return encodeType(w.bw, w.pools, t) }

// EncodeConstant writes c to the file body.
func (w *Writer) EncodeConstant(c constant.Constant) error { return encodeConstant(w.bw, w.pools, c) }

// FileReader holds an open file's decoded pools and the stream position
// immediately after them, ready to decode whatever top-level framing the
// caller's file format uses (raw blocks for ReadFile, or declarations for
// internal/wyil).
type FileReader struct {
	r     *bufio.Reader
	pools *readPools
	Major uint64
	Minor uint64
	// Count is the file header's numBlocks field: the number of top-level
	// entries written via EncodeBlock or MarkTopLevelEntry.
	Count uint64
}

// OpenReader reads the magic, version and pools of a file, leaving the
// stream positioned at the first top-level entry.
func OpenReader(src io.Reader) (*FileReader, error) {
	r := bufio.NewReader(src)

	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, verrors.New(verrors.CorruptFile, "truncated header")
	}
	if hdr != magic {
		return nil, verrors.New(verrors.CorruptFile, "bad magic %q", hdr)
	}
	major, err := readUv(r)
	if err != nil {
		return nil, err
	}
	minor, err := readUv(r)
	if err != nil {
		return nil, err
	}

	sizes := make([]uint64, 5)
	for i := range sizes {
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		sizes[i] = n
	}
	count, err := readUv(r)
	if err != nil {
		return nil, err
	}

	pools := &readPools{}
	for i := uint64(0); i < sizes[0]; i++ {
		b, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		pools.strings = append(pools.strings, string(b))
	}
	for i := uint64(0); i < sizes[1]; i++ {
		parent, err := readUv(r)
		if err != nil {
			return nil, err
		}
		strIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		seg, err := resolveString(pools, strIdx)
		if err != nil {
			return nil, err
		}
		var path types.Path
		if parent != 0 {
			if parent > uint64(len(pools.paths)) {
				return nil, verrors.New(verrors.CorruptFile, "path pool parent index %d out of range", parent)
			}
			path = append(append(types.Path{}, pools.paths[parent-1]...), seg)
		} else {
			path = types.Path{seg}
		}
		pools.paths = append(pools.paths, path)
	}
	for i := uint64(0); i < sizes[2]; i++ {
		pathIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		symIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		var path types.Path
		if pathIdx != 0 {
			if pathIdx > uint64(len(pools.paths)) {
				return nil, verrors.New(verrors.CorruptFile, "name pool path index %d out of range", pathIdx)
			}
			path = pools.paths[pathIdx-1]
		}
		sym, err := resolveString(pools, symIdx)
		if err != nil {
			return nil, err
		}
		pools.names = append(pools.names, types.QualifiedName{Path: path, Symbol: sym})
	}
	for i := uint64(0); i < sizes[3]; i++ {
		c, err := decodeConstant(r, pools)
		if err != nil {
			return nil, err
		}
		pools.constants = append(pools.constants, c)
	}
	for i := uint64(0); i < sizes[4]; i++ {
		t, err := decodeType(r, pools)
		if err != nil {
			return nil, err
		}
		pools.types = append(pools.types, t)
	}

	return &FileReader{r: r, pools: pools, Major: major, Minor: minor, Count: count}, nil
}

// ReadUv reads a variable-length unsigned integer from the remaining body.
func (f *FileReader) ReadUv() (uint64, error) { return readUv(f.r) }

// ReadU1 reads a single byte from the remaining body.
func (f *FileReader) ReadU1() (byte, error) { return readU1(f.r) }

// ResolveString looks up a string-pool index.
func (f *FileReader) ResolveString(idx uint64) (string, error) {
	return resolveString(f.pools, idx)
}

// ResolveName looks up a name-pool index.
func (f *FileReader) ResolveName(idx uint64) (types.QualifiedName, error) {
	return resolveName(f.pools, idx)
}

// ResolveConstant looks up a constant-pool index.
func (f *FileReader) ResolveConstant(idx uint64) (constant.Constant, error) {
	return resolveConstant(f.pools, idx)
}

// DecodeType decodes one inline type encoding from the remaining body.
func (f *FileReader) DecodeType() (types.Type, error) { return decodeType(f.r, f.pools) }

// DecodeBlock decodes one nested code-block from the remaining body.
func (f *FileReader) DecodeBlock() (*ir.Block, error) { return DecodeBlock(f.r, f.pools) }
