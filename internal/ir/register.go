// Package ir implements the IR data model of the verification core: a
// Block is an ordered sequence of Entries, each pairing one opcode (Code)
// with an opaque attribute bag, over a flat register file (§3, §4.C).
package ir

// Register is a slot index within a Block's register file.
type Register int

// RegisterMap renumbers a register; used by Block.Shift and by every
// opcode's Remap method.
type RegisterMap func(Register) Register

// Identity never renumbers a register.
func Identity(r Register) Register { return r }

// Label identifies a block-local jump target. Labels are unique within a
// block and every branching opcode targets one defined later in the same
// block (§3: "forward-only control flow").
type Label string

// LabelMap renumbers a label; used by Block.Relabel and by every opcode's
// Relabel method.
type LabelMap map[Label]Label

func (m LabelMap) apply(l Label) Label {
	if fresh, ok := m[l]; ok {
		return fresh
	}
	return l
}
