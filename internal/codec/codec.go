package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"vcgen/internal/ir"
)

// Writer accumulates one or more blocks and the pools they reference, then
// flushes the whole file in one pass (§4.D). Blocks must be written before
// the pools they reference can be sized, so encoding is two-phase: block
// bodies are buffered in memory while Encode* calls populate the pools,
// and Flush emits the header, sized pools, and buffered bodies in order.
type Writer struct {
	pools      *writePools
	body       bytes.Buffer
	bw         *bufio.Writer
	blockCount uint64
}

func NewWriter() *Writer {
	w := &Writer{pools: newWritePools()}
	w.bw = bufio.NewWriter(&w.body)
	return w
}

// EncodeBlock appends one code-block to the file body as a top-level
// "module block" in the sense of §4.D's file-level numBlocks count —
// suitable when the caller's file is a flat sequence of ir.Blocks with no
// further framing. A caller building a WyilFile's own declaration framing
// around nested blocks should use EncodeNestedBlock plus MarkTopLevelEntry
// instead, so the file header's count matches declarations, not blocks.
func (w *Writer) EncodeBlock(b *ir.Block) error {
	if err := w.EncodeNestedBlock(b); err != nil {
		return err
	}
	w.MarkTopLevelEntry()
	return nil
}

// EncodeNestedBlock appends one code-block to the file body without
// affecting the top-level entry count.
func (w *Writer) EncodeNestedBlock(b *ir.Block) error {
	labels := labelIndex(b)
	if err := writeUv(w.bw, uint64(b.Size())); err != nil {
		return err
	}
	for pc, e := range b.Entries {
		if err := encodeCode(w.bw, w.pools, labels, pc, e.Code); err != nil {
			return err
		}
		if err := encodeAttrs(w.bw, w.pools, e.Attrs); err != nil {
			return err
		}
	}
	return nil
}

// MarkTopLevelEntry increments the file's top-level entry count (§4.D's
// numBlocks field), independent of how many nested blocks that entry
// encodes. Call once per declaration when building a WyilFile.
func (w *Writer) MarkTopLevelEntry() { w.blockCount++ }

func encodeAttrs(w *bufio.Writer, p *writePools, attrs ir.AttributeBag) error {
	if err := writeUv(w, uint64(len(attrs))); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := writeUv(w, p.intern(a.Tag)); err != nil {
			return err
		}
		if err := writeBytes(w, a.Payload); err != nil {
			return err
		}
	}
	return nil
}

func decodeAttrs(r *bufio.Reader, pools *readPools) (ir.AttributeBag, error) {
	n, err := readUv(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make(ir.AttributeBag, n)
	for i := range out {
		tagIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		tag, err := resolveString(pools, tagIdx)
		if err != nil {
			return nil, err
		}
		payload, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		out[i] = ir.Attribute{Tag: tag, Payload: payload}
	}
	return out, nil
}

// Flush writes the complete file — magic, version, sized pools, then every
// buffered block body — to dst.
func (w *Writer) Flush(dst io.Writer) error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	// Encoding a constant or type can intern strings, paths and names
	// (record field names, nominal names, recursive labels). Do that
	// interning now, before any pool is sized and written.
	scratch := bufio.NewWriter(io.Discard)
	for _, c := range w.pools.constants {
		if err := encodeConstant(scratch, w.pools, c); err != nil {
			return err
		}
	}
	for _, t := range w.pools.types {
		if err := encodeType(scratch, w.pools, t); err != nil {
			return err
		}
	}
	out := bufio.NewWriter(dst)
	if _, err := out.Write(magic[:]); err != nil {
		return err
	}
	if err := writeUv(out, formatMajor); err != nil {
		return err
	}
	if err := writeUv(out, formatMinor); err != nil {
		return err
	}

	if err := writeUv(out, uint64(len(w.pools.strings))); err != nil {
		return err
	}
	if err := writeUv(out, uint64(len(w.pools.paths))); err != nil {
		return err
	}
	if err := writeUv(out, uint64(len(w.pools.names))); err != nil {
		return err
	}
	if err := writeUv(out, uint64(len(w.pools.constants))); err != nil {
		return err
	}
	if err := writeUv(out, uint64(len(w.pools.types))); err != nil {
		return err
	}
	if err := writeUv(out, w.blockCount); err != nil {
		return err
	}

	for _, s := range w.pools.strings {
		if err := writeBytes(out, []byte(s)); err != nil {
			return err
		}
	}
	// Path pool entries are re-derived from w.pools.paths at write time
	// (parent index + trailing segment string index), matching the
	// reconstruction rule the reader applies on decode.
	for _, path := range w.pools.paths {
		parent := uint64(0)
		if len(path) > 1 {
			parent = w.pools.pathIdx[path[:len(path)-1].String()]
		}
		if err := writeUv(out, parent); err != nil {
			return err
		}
		if err := writeUv(out, w.pools.stringIdx[path[len(path)-1]]); err != nil {
			return err
		}
	}
	for _, n := range w.pools.names {
		pathIdx := uint64(0)
		if len(n.Path) > 0 {
			pathIdx = w.pools.pathIdx[n.Path.String()]
		}
		if err := writeUv(out, pathIdx); err != nil {
			return err
		}
		if err := writeUv(out, w.pools.stringIdx[n.Symbol]); err != nil {
			return err
		}
	}
	for _, c := range w.pools.constants {
		if err := encodeConstant(out, w.pools, c); err != nil {
			return err
		}
	}
	for _, t := range w.pools.types {
		if err := encodeType(out, w.pools, t); err != nil {
			return err
		}
	}

	if _, err := out.Write(w.body.Bytes()); err != nil {
		return err
	}
	return out.Flush()
}

// PoolSummary renders a human-readable count of the entries interned so far
// in each pool of this Writer, plus its top-level entry count, for logging
// while a file is being encoded (pool sizes are worth surfacing since a
// runaway string pool usually means a codec bug upstream).
func (w *Writer) PoolSummary() string {
	return fmt.Sprintf("strings=%s paths=%s names=%s constants=%s types=%s blocks=%s",
		humanize.Comma(int64(len(w.pools.strings))),
		humanize.Comma(int64(len(w.pools.paths))),
		humanize.Comma(int64(len(w.pools.names))),
		humanize.Comma(int64(len(w.pools.constants))),
		humanize.Comma(int64(len(w.pools.types))),
		humanize.Comma(int64(w.blockCount)))
}

// ReadFile decodes a complete file into its constituent blocks, in the
// order they were written. Use OpenReader directly for files whose
// top-level framing is richer than a flat block sequence (internal/wyil's
// declaration layer).
func ReadFile(src io.Reader) ([]*ir.Block, error) {
	fr, err := OpenReader(src)
	if err != nil {
		return nil, err
	}
	blocks := make([]*ir.Block, fr.Count)
	for i := range blocks {
		b, err := fr.DecodeBlock()
		if err != nil {
			return nil, err
		}
		blocks[i] = b
	}
	return blocks, nil
}

// DecodeBlock decodes one code-block, starting at the current reader
// position, using already-decoded pools.
func DecodeBlock(r *bufio.Reader, pools *readPools) (*ir.Block, error) {
	n, err := readUv(r)
	if err != nil {
		return nil, err
	}
	dl := newDecodeLabels()
	entries := make([]ir.Entry, n)
	for pc := range entries {
		code, err := decodeCode(r, pools, dl, pc)
		if err != nil {
			return nil, err
		}
		attrs, err := decodeAttrs(r, pools)
		if err != nil {
			return nil, err
		}
		entries[pc] = ir.Entry{Code: code, Attrs: attrs}
	}
	return &ir.Block{Entries: entries}, nil
}
