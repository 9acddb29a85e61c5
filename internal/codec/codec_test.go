package codec

import (
	"bufio"
	"bytes"
	"math/big"
	"testing"

	"vcgen/internal/constant"
	"vcgen/internal/ir"
	"vcgen/internal/types"
)

func sampleBlock() *ir.Block {
	return &ir.Block{Entries: []ir.Entry{
		{Code: ir.Const{Target: 2, Value: constant.NewInt(big.NewInt(-42))}},
		{Code: ir.BinOp{Op: ir.Add, Target: 3, Left: 0, Right: 2}},
		{Code: ir.If{Left: 3, Right: 1, Cmp: ir.CmpLt, Target: "done"},
			Attrs: ir.AttributeBag{{Tag: "loc", Payload: []byte("3:4")}}},
		{Code: ir.Fail{Message: "bound violated"}},
		{Code: ir.LabelDef{Name: "done"}},
		{Code: ir.Return{Sources: []ir.Register{3}}},
	}}
}

func TestBlockRoundTrip(t *testing.T) {
	b := sampleBlock()
	w := NewWriter()
	if err := w.EncodeBlock(b); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	var buf bytes.Buffer
	if err := w.Flush(&buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	blocks, err := ReadFile(&buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	got := blocks[0]
	if got.Size() != b.Size() {
		t.Fatalf("expected %d entries, got %d", b.Size(), got.Size())
	}

	gotConst := got.Entries[0].Code.(ir.Const).Value.(constant.Int)
	if gotConst.Value.Cmp(big.NewInt(-42)) != 0 {
		t.Fatalf("expected -42 round-tripped, got %s", gotConst.Value.String())
	}

	gotIf := got.Entries[2].Code.(ir.If)
	gotLabelDef := got.Entries[4].Code.(ir.LabelDef)
	if gotIf.Target != gotLabelDef.Name {
		t.Fatalf("branch target %q does not resolve to the label def %q", gotIf.Target, gotLabelDef.Name)
	}
	if !got.Entries[2].Attrs.Equal(b.Entries[2].Attrs) {
		t.Fatalf("expected attribute bag to round-trip: got %v want %v", got.Entries[2].Attrs, b.Entries[2].Attrs)
	}

	gotFail := got.Entries[3].Code.(ir.Fail)
	if gotFail.Message != "bound violated" {
		t.Fatalf("expected Fail message to round-trip, got %q", gotFail.Message)
	}
}

func TestConstantRoundTripViaType(t *testing.T) {
	w := newWritePools()
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	c := constant.NewRecord(
		constant.Field{Name: "b", Value: constant.NewRational(big.NewInt(3), big.NewInt(9))},
		constant.Field{Name: "a", Value: constant.Str{Value: "hello"}},
	)
	if err := encodeConstant(bw, w, c); err != nil {
		t.Fatalf("encodeConstant: %v", err)
	}
	bw.Flush()

	pools := &readPools{strings: w.strings}
	r := bufio.NewReader(&buf)
	got, err := decodeConstant(r, pools)
	if err != nil {
		t.Fatalf("decodeConstant: %v", err)
	}
	if !constant.Equal(c, got) {
		t.Fatalf("expected round-tripped constant to equal original: got %s want %s", got.Key(), c.Key())
	}
}

func TestTypeRoundTrip(t *testing.T) {
	w := newWritePools()
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)

	label, body := types.NewRecursiveLabel(func(self types.Type) types.Type {
		return types.Union{Elems: []types.Type{types.Null{}, types.Tuple{Elems: []types.Type{types.Int{}, self}}}}
	})
	recType := types.Recursive{Label: label, Body: body}

	ty := types.Record{Fields: []types.Field{
		{Name: "next", Type: types.Reference{Elem: recType}},
		{Name: "value", Type: types.Int{}},
	}}

	if err := encodeType(bw, w, ty); err != nil {
		t.Fatalf("encodeType: %v", err)
	}
	bw.Flush()

	pools := &readPools{strings: w.strings, paths: w.paths, names: w.names}
	r := bufio.NewReader(&buf)
	got, err := decodeType(r, pools)
	if err != nil {
		t.Fatalf("decodeType: %v", err)
	}
	if !types.Equal(ty, got) {
		t.Fatalf("expected round-tripped type to equal original: got %v want %v", got, ty)
	}
}
