package ir

import (
	"strconv"
	"sync/atomic"
)

// Entry pairs one opcode with its opaque attribute bag (§3).
type Entry struct {
	Code  Code
	Attrs AttributeBag
}

// Block is an ordered sequence of Entries over a flat register file,
// addressed by program counter (§3, §4.C).
type Block struct {
	Entries []Entry
}

// Size returns the number of entries in the block.
func (b *Block) Size() int { return len(b.Entries) }

// Get returns the entry at program counter i.
func (b *Block) Get(i int) Entry { return b.Entries[i] }

// NumSlots returns one past the highest register any entry in the block
// reads or writes, i.e. the size of register file this block requires.
func (b *Block) NumSlots() int {
	max := Register(-1)
	for _, e := range b.Entries {
		for _, r := range e.Code.Slots() {
			if r > max {
				max = r
			}
		}
	}
	return int(max) + 1
}

// Shift renumbers every register in the block by k, except that the first
// numInputs registers — the block's parameter slots — are left untouched
// (§4.C: "the number of input slots is preserved but every non-input
// temporary is pushed up by k"). This is what lets a callee's block be
// inlined into a caller's larger register file without colliding with the
// caller's own temporaries.
func (b *Block) Shift(k, numInputs int) *Block {
	shift := func(r Register) Register {
		if int(r) < numInputs {
			return r
		}
		return r + Register(k)
	}
	out := make([]Entry, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = Entry{Code: e.Code.Remap(shift), Attrs: e.Attrs}
	}
	return &Block{Entries: out}
}

// labelCounter is the process-wide monotone counter backing fresh label
// generation (§4.C: "a process-wide monotone counter yields labels of the
// form blklab<N>").
var labelCounter uint64

func freshLabel() Label {
	n := atomic.AddUint64(&labelCounter, 1)
	return Label("blklab" + strconv.FormatUint(n, 10))
}

// Relabel returns a copy of the block with every label defined within it
// replaced by a fresh, globally unique one, consistently across every
// LabelDef and every label-bearing operand (§4.C, §8 property 3: "two
// Relabel calls on blocks that share no prior labels produce disjoint label
// sets"). Labels referenced but not defined in the block — there should be
// none, since control flow is block-local — pass through unchanged.
func (b *Block) Relabel() *Block {
	lm := LabelMap{}
	for _, e := range b.Entries {
		if ld, ok := e.Code.(LabelDef); ok {
			if _, seen := lm[ld.Name]; !seen {
				lm[ld.Name] = freshLabel()
			}
		}
	}
	out := make([]Entry, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = Entry{Code: e.Code.Relabel(lm), Attrs: e.Attrs}
	}
	return &Block{Entries: out}
}
