package ir

import (
	"math/big"
	"testing"

	"vcgen/internal/constant"
)

func sampleBlock() *Block {
	return &Block{Entries: []Entry{
		{Code: Const{Target: 2, Value: constant.NewInt(big.NewInt(1))}},
		{Code: BinOp{Op: Add, Target: 3, Left: 0, Right: 2}},
		{Code: If{Left: 3, Right: 1, Cmp: CmpLt, Target: "done"}},
		{Code: Goto{Target: "loop"}},
		{Code: LabelDef{Name: "loop"}},
		{Code: Return{Sources: []Register{3}}},
		{Code: LabelDef{Name: "done"}},
		{Code: Return{Sources: []Register{0}}},
	}}
}

func TestNumSlots(t *testing.T) {
	b := sampleBlock()
	if got := b.NumSlots(); got != 4 {
		t.Fatalf("expected 4 slots (0-3), got %d", got)
	}
}

func TestShiftPreservesInputsAndOffsetsTemporaries(t *testing.T) {
	b := sampleBlock()
	const numInputs = 2
	shifted := b.Shift(5, numInputs)

	wantConst := Const{Target: 7, Value: constant.NewInt(big.NewInt(1))}
	got := shifted.Entries[0].Code.(Const)
	if got.Target != wantConst.Target {
		t.Fatalf("expected temporary register 2 shifted to 7, got %d", got.Target)
	}

	binop := shifted.Entries[1].Code.(BinOp)
	if binop.Left != 0 {
		t.Fatalf("expected input register 0 preserved, got %d", binop.Left)
	}
	if binop.Target != 8 || binop.Right != 7 {
		t.Fatalf("expected temporaries shifted by 5, got target=%d right=%d", binop.Target, binop.Right)
	}

	cond := shifted.Entries[2].Code.(If)
	if cond.Right != 1 {
		t.Fatalf("expected input register 1 preserved, got %d", cond.Right)
	}
}

func TestShiftLeavesLabelsUntouched(t *testing.T) {
	b := sampleBlock()
	shifted := b.Shift(5, 2)
	if shifted.Entries[3].Code.(Goto).Target != "loop" {
		t.Fatal("Shift must not rename labels")
	}
}

func TestRelabelRenamesConsistently(t *testing.T) {
	b := sampleBlock()
	relabeled := b.Relabel()

	gotoTarget := relabeled.Entries[3].Code.(Goto).Target
	labelDef := relabeled.Entries[4].Code.(LabelDef).Name
	if gotoTarget != labelDef {
		t.Fatalf("Goto target %q does not match renamed LabelDef %q", gotoTarget, labelDef)
	}
	if gotoTarget == "loop" {
		t.Fatal("expected label to actually change")
	}

	ifTarget := relabeled.Entries[2].Code.(If).Target
	doneDef := relabeled.Entries[6].Code.(LabelDef).Name
	if ifTarget != doneDef {
		t.Fatalf("If target %q does not match renamed done label %q", ifTarget, doneDef)
	}
}

func TestRelabelProducesDisjointLabelsAcrossCalls(t *testing.T) {
	b := sampleBlock()
	r1 := b.Relabel()
	r2 := b.Relabel()

	l1 := r1.Entries[4].Code.(LabelDef).Name
	l2 := r2.Entries[4].Code.(LabelDef).Name
	if l1 == l2 {
		t.Fatalf("expected disjoint labels across separate Relabel calls, got %q twice", l1)
	}
}

func TestEntryAttributesPreservedThroughShiftAndRelabel(t *testing.T) {
	b := &Block{Entries: []Entry{
		{Code: Nop{}, Attrs: AttributeBag{{Tag: "loc", Payload: []byte("1:1")}}},
	}}
	shifted := b.Shift(3, 0)
	if !shifted.Entries[0].Attrs.Equal(b.Entries[0].Attrs) {
		t.Fatal("Shift must preserve attribute bags verbatim")
	}
	relabeled := b.Relabel()
	if !relabeled.Entries[0].Attrs.Equal(b.Entries[0].Attrs) {
		t.Fatal("Relabel must preserve attribute bags verbatim")
	}
}
