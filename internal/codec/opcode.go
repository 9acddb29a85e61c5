package codec

import (
	"bufio"
	"strconv"

	"vcgen/internal/constant"
	"vcgen/internal/ir"
	"vcgen/internal/types"
	"vcgen/internal/verrors"
)

// Opcode tag bytes (§3, §4.D). Order is arbitrary but fixed once a file has
// been written with it; values are never renumbered, only appended to.
const (
	opMove byte = iota
	opAssign
	opConvert
	opInvert
	opNegate
	opLengthOf
	opDereference
	opNewObject
	opBinOp
	opIndexOf
	opFieldLoad
	opTupleLoad
	opConstructList
	opConstructSet
	opConstructMap
	opConstructTuple
	opConstructRecord
	opUpdateByIndex
	opUpdateByField
	opConst
	opDirectInvoke
	opDirectInvokeVoid
	opIndirectInvoke
	opIndirectInvokeVoid
	opNop
	opDebug
	opLabel
	opGoto
	opIf
	opIfType
	opSwitch
	opReturn
	opThrow
	opFail
	opLoop
	opForAll
	opLoopEnd
	opTryCatch
	opAssert
	opAssume
)

// labelIndex computes, for each label defined in the block, the absolute
// entry index its LabelDef occupies — the information the encoder needs to
// turn a Goto/If/etc. target into a forward byte offset (§4.D).
func labelIndex(b *ir.Block) map[ir.Label]int {
	idx := map[ir.Label]int{}
	for i, e := range b.Entries {
		if ld, ok := e.Code.(ir.LabelDef); ok {
			idx[ld.Name] = i
		}
	}
	return idx
}

func branchOffset(labels map[ir.Label]int, from int, target ir.Label) (byte, error) {
	to, ok := labels[target]
	if !ok {
		return 0, verrors.New(verrors.CorruptFile, "branch target %q not defined in block", target)
	}
	off := to - from
	if off < 0 || off > 0xff {
		return 0, verrors.New(verrors.CorruptFile, "branch offset %d out of u1 range", off)
	}
	return byte(off), nil
}

// decodeLabels lazily materializes one ir.Label per absolute target index
// referenced on the wire, reusing the same Label for every branch that
// targets the same offset (§9 Design Note, §4.D).
type decodeLabels struct {
	byIndex map[int]ir.Label
	next    int
}

func newDecodeLabels() *decodeLabels { return &decodeLabels{byIndex: map[int]ir.Label{}} }

func (d *decodeLabels) at(idx int) ir.Label {
	if l, ok := d.byIndex[idx]; ok {
		return l
	}
	d.next++
	l := ir.Label("L" + strconv.Itoa(d.next))
	d.byIndex[idx] = l
	return l
}

func encodeCode(w *bufio.Writer, p *writePools, labels map[ir.Label]int, pc int, c ir.Code) error {
	switch v := c.(type) {
	case ir.Unary:
		tag := map[ir.UnaryOpKind]byte{
			ir.Move: opMove, ir.Assign: opAssign, ir.Convert: opConvert,
			ir.Invert: opInvert, ir.Negate: opNegate, ir.LengthOf: opLengthOf,
			ir.Dereference: opDereference, ir.NewObject: opNewObject,
		}[v.Op]
		if err := writeU1(w, tag); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Target)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Source)); err != nil {
			return err
		}
		return writeUv(w, p.internType(v.Type))

	case ir.BinOp:
		if err := writeU1(w, opBinOp); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Op)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Target)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Left)); err != nil {
			return err
		}
		return writeU1(w, byte(v.Right))

	case ir.IndexOf:
		if err := writeU1(w, opIndexOf); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Target)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Sequence)); err != nil {
			return err
		}
		return writeU1(w, byte(v.Index))

	case ir.FieldLoad:
		if err := writeU1(w, opFieldLoad); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Target)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Source)); err != nil {
			return err
		}
		return writeUv(w, p.intern(v.Field))

	case ir.TupleLoad:
		if err := writeU1(w, opTupleLoad); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Target)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Source)); err != nil {
			return err
		}
		return writeUv(w, uint64(v.Index))

	case ir.Construct:
		tag := map[ir.ConstructKind]byte{
			ir.ConstructList: opConstructList, ir.ConstructSet: opConstructSet,
			ir.ConstructMap: opConstructMap, ir.ConstructTuple: opConstructTuple,
			ir.ConstructRecord: opConstructRecord,
		}[v.Kind]
		if err := writeU1(w, tag); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Target)); err != nil {
			return err
		}
		if err := writeUv(w, uint64(len(v.Sources))); err != nil {
			return err
		}
		for i, s := range v.Sources {
			if err := writeU1(w, byte(s)); err != nil {
				return err
			}
			if v.Kind == ir.ConstructRecord {
				if err := writeUv(w, p.intern(v.Fields[i])); err != nil {
					return err
				}
			}
		}
		return writeUv(w, p.internType(v.Type))

	case ir.Update:
		tag := opUpdateByField
		if !v.ByField {
			tag = opUpdateByIndex
		}
		if err := writeU1(w, tag); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Target)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Container)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Value)); err != nil {
			return err
		}
		if v.ByField {
			return writeUv(w, p.intern(v.Field))
		}
		return writeU1(w, byte(v.Key))

	case ir.Const:
		if err := writeU1(w, opConst); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Target)); err != nil {
			return err
		}
		return writeUv(w, p.internConstant(v.Value))

	case ir.DirectInvoke:
		tag := opDirectInvoke
		if !v.HasTarget {
			tag = opDirectInvokeVoid
		}
		if err := writeU1(w, tag); err != nil {
			return err
		}
		if v.HasTarget {
			if err := writeU1(w, byte(v.Target)); err != nil {
				return err
			}
		}
		if err := writeUv(w, uint64(len(v.Sources))); err != nil {
			return err
		}
		for _, s := range v.Sources {
			if err := writeU1(w, byte(s)); err != nil {
				return err
			}
		}
		return writeUv(w, p.internName(v.Name))

	case ir.IndirectInvoke:
		tag := opIndirectInvoke
		if !v.HasTarget {
			tag = opIndirectInvokeVoid
		}
		if err := writeU1(w, tag); err != nil {
			return err
		}
		if v.HasTarget {
			if err := writeU1(w, byte(v.Target)); err != nil {
				return err
			}
		}
		if err := writeU1(w, byte(v.Func)); err != nil {
			return err
		}
		if err := writeUv(w, uint64(len(v.Sources))); err != nil {
			return err
		}
		for _, s := range v.Sources {
			if err := writeU1(w, byte(s)); err != nil {
				return err
			}
		}
		return nil

	case ir.Nop:
		return writeU1(w, opNop)

	case ir.Debug:
		if err := writeU1(w, opDebug); err != nil {
			return err
		}
		return writeU1(w, byte(v.Source))

	case ir.LabelDef:
		return writeU1(w, opLabel)

	case ir.Goto:
		if err := writeU1(w, opGoto); err != nil {
			return err
		}
		off, err := branchOffset(labels, pc, v.Target)
		if err != nil {
			return err
		}
		return writeU1(w, off)

	case ir.If:
		if err := writeU1(w, opIf); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Left)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Right)); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Cmp)); err != nil {
			return err
		}
		off, err := branchOffset(labels, pc, v.Target)
		if err != nil {
			return err
		}
		return writeU1(w, off)

	case ir.IfType:
		if err := writeU1(w, opIfType); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Operand)); err != nil {
			return err
		}
		if err := writeUv(w, p.internType(v.Test)); err != nil {
			return err
		}
		off, err := branchOffset(labels, pc, v.Target)
		if err != nil {
			return err
		}
		return writeU1(w, off)

	case ir.Switch:
		if err := writeU1(w, opSwitch); err != nil {
			return err
		}
		if err := writeU1(w, byte(v.Operand)); err != nil {
			return err
		}
		if err := writeUv(w, uint64(len(v.Cases))); err != nil {
			return err
		}
		for _, c := range v.Cases {
			if err := writeUv(w, p.internConstant(c.Value)); err != nil {
				return err
			}
			off, err := branchOffset(labels, pc, c.Target)
			if err != nil {
				return err
			}
			if err := writeU1(w, off); err != nil {
				return err
			}
		}
		off, err := branchOffset(labels, pc, v.Default)
		if err != nil {
			return err
		}
		return writeU1(w, off)

	case ir.Return:
		if err := writeU1(w, opReturn); err != nil {
			return err
		}
		if err := writeUv(w, uint64(len(v.Sources))); err != nil {
			return err
		}
		for _, s := range v.Sources {
			if err := writeU1(w, byte(s)); err != nil {
				return err
			}
		}
		return nil

	case ir.Throw:
		if err := writeU1(w, opThrow); err != nil {
			return err
		}
		return writeU1(w, byte(v.Source))

	case ir.Fail:
		if err := writeU1(w, opFail); err != nil {
			return err
		}
		return writeBytes(w, []byte(v.Message))

	case ir.Loop:
		tag := opLoop
		if v.IsForAll {
			tag = opForAll
		}
		if err := writeU1(w, tag); err != nil {
			return err
		}
		off, err := branchOffset(labels, pc, v.End)
		if err != nil {
			return err
		}
		if err := writeU1(w, off); err != nil {
			return err
		}
		if err := writeUv(w, uint64(len(v.Modified))); err != nil {
			return err
		}
		for _, r := range v.Modified {
			if err := writeU1(w, byte(r)); err != nil {
				return err
			}
		}
		if v.IsForAll {
			if err := writeU1(w, byte(v.Source)); err != nil {
				return err
			}
			return writeU1(w, byte(v.Index))
		}
		return nil

	case ir.LoopEnd:
		return writeU1(w, opLoopEnd)

	case ir.TryCatch:
		if err := writeU1(w, opTryCatch); err != nil {
			return err
		}
		endOff, err := branchOffset(labels, pc, v.End)
		if err != nil {
			return err
		}
		if err := writeU1(w, endOff); err != nil {
			return err
		}
		targetOff, err := branchOffset(labels, pc, v.Target)
		if err != nil {
			return err
		}
		return writeU1(w, targetOff)

	case ir.Assert:
		if err := writeU1(w, opAssert); err != nil {
			return err
		}
		off, err := branchOffset(labels, pc, v.End)
		if err != nil {
			return err
		}
		return writeU1(w, off)

	case ir.Assume:
		if err := writeU1(w, opAssume); err != nil {
			return err
		}
		off, err := branchOffset(labels, pc, v.End)
		if err != nil {
			return err
		}
		return writeU1(w, off)

	default:
		return verrors.New(verrors.UnsupportedOpcode, "codec: unknown opcode %T", c)
	}
}

func decodeCode(r *bufio.Reader, pools *readPools, dl *decodeLabels, pc int) (ir.Code, error) {
	tag, err := readU1(r)
	if err != nil {
		return nil, err
	}
	readReg := func() (ir.Register, error) {
		b, err := readU1(r)
		return ir.Register(b), err
	}
	readTarget := func() (ir.Label, error) {
		off, err := readU1(r)
		if err != nil {
			return "", err
		}
		return dl.at(pc + int(off)), nil
	}

	switch tag {
	case opMove, opAssign, opConvert, opInvert, opNegate, opLengthOf, opDereference, opNewObject:
		kind := map[byte]ir.UnaryOpKind{
			opMove: ir.Move, opAssign: ir.Assign, opConvert: ir.Convert,
			opInvert: ir.Invert, opNegate: ir.Negate, opLengthOf: ir.LengthOf,
			opDereference: ir.Dereference, opNewObject: ir.NewObject,
		}[tag]
		target, err := readReg()
		if err != nil {
			return nil, err
		}
		source, err := readReg()
		if err != nil {
			return nil, err
		}
		typeIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		t, err := resolveType(pools, typeIdx)
		if err != nil {
			return nil, err
		}
		return ir.Unary{Op: kind, Target: target, Source: source, Type: t}, nil

	case opBinOp:
		opByte, err := readU1(r)
		if err != nil {
			return nil, err
		}
		target, err := readReg()
		if err != nil {
			return nil, err
		}
		left, err := readReg()
		if err != nil {
			return nil, err
		}
		right, err := readReg()
		if err != nil {
			return nil, err
		}
		return ir.BinOp{Op: ir.BinOpKind(opByte), Target: target, Left: left, Right: right}, nil

	case opIndexOf:
		target, err := readReg()
		if err != nil {
			return nil, err
		}
		seq, err := readReg()
		if err != nil {
			return nil, err
		}
		index, err := readReg()
		if err != nil {
			return nil, err
		}
		return ir.IndexOf{Target: target, Sequence: seq, Index: index}, nil

	case opFieldLoad:
		target, err := readReg()
		if err != nil {
			return nil, err
		}
		source, err := readReg()
		if err != nil {
			return nil, err
		}
		fieldIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		field, err := resolveString(pools, fieldIdx)
		if err != nil {
			return nil, err
		}
		return ir.FieldLoad{Target: target, Source: source, Field: field}, nil

	case opTupleLoad:
		target, err := readReg()
		if err != nil {
			return nil, err
		}
		source, err := readReg()
		if err != nil {
			return nil, err
		}
		index, err := readUv(r)
		if err != nil {
			return nil, err
		}
		return ir.TupleLoad{Target: target, Source: source, Index: int(index)}, nil

	case opConstructList, opConstructSet, opConstructMap, opConstructTuple, opConstructRecord:
		kind := map[byte]ir.ConstructKind{
			opConstructList: ir.ConstructList, opConstructSet: ir.ConstructSet,
			opConstructMap: ir.ConstructMap, opConstructTuple: ir.ConstructTuple,
			opConstructRecord: ir.ConstructRecord,
		}[tag]
		target, err := readReg()
		if err != nil {
			return nil, err
		}
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		sources := make([]ir.Register, n)
		var fields []string
		if kind == ir.ConstructRecord {
			fields = make([]string, n)
		}
		for i := range sources {
			sources[i], err = readReg()
			if err != nil {
				return nil, err
			}
			if kind == ir.ConstructRecord {
				fieldIdx, err := readUv(r)
				if err != nil {
					return nil, err
				}
				fields[i], err = resolveString(pools, fieldIdx)
				if err != nil {
					return nil, err
				}
			}
		}
		typeIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		t, err := resolveType(pools, typeIdx)
		if err != nil {
			return nil, err
		}
		return ir.Construct{Kind: kind, Target: target, Sources: sources, Fields: fields, Type: t}, nil

	case opUpdateByIndex, opUpdateByField:
		target, err := readReg()
		if err != nil {
			return nil, err
		}
		container, err := readReg()
		if err != nil {
			return nil, err
		}
		value, err := readReg()
		if err != nil {
			return nil, err
		}
		if tag == opUpdateByField {
			fieldIdx, err := readUv(r)
			if err != nil {
				return nil, err
			}
			field, err := resolveString(pools, fieldIdx)
			if err != nil {
				return nil, err
			}
			return ir.Update{Target: target, Container: container, Value: value, Field: field, ByField: true}, nil
		}
		key, err := readReg()
		if err != nil {
			return nil, err
		}
		return ir.Update{Target: target, Container: container, Value: value, Key: key}, nil

	case opConst:
		target, err := readReg()
		if err != nil {
			return nil, err
		}
		constIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		c, err := resolveConstant(pools, constIdx)
		if err != nil {
			return nil, err
		}
		return ir.Const{Target: target, Value: c}, nil

	case opDirectInvoke, opDirectInvokeVoid:
		var target ir.Register
		hasTarget := tag == opDirectInvoke
		if hasTarget {
			var err error
			target, err = readReg()
			if err != nil {
				return nil, err
			}
		}
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		sources := make([]ir.Register, n)
		for i := range sources {
			sources[i], err = readReg()
			if err != nil {
				return nil, err
			}
		}
		nameIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		name, err := resolveName(pools, nameIdx)
		if err != nil {
			return nil, err
		}
		return ir.DirectInvoke{Target: target, HasTarget: hasTarget, Sources: sources, Name: name}, nil

	case opIndirectInvoke, opIndirectInvokeVoid:
		var target ir.Register
		hasTarget := tag == opIndirectInvoke
		if hasTarget {
			var err error
			target, err = readReg()
			if err != nil {
				return nil, err
			}
		}
		fn, err := readReg()
		if err != nil {
			return nil, err
		}
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		sources := make([]ir.Register, n)
		for i := range sources {
			sources[i], err = readReg()
			if err != nil {
				return nil, err
			}
		}
		return ir.IndirectInvoke{Target: target, HasTarget: hasTarget, Func: fn, Sources: sources}, nil

	case opNop:
		return ir.Nop{}, nil

	case opDebug:
		source, err := readReg()
		if err != nil {
			return nil, err
		}
		return ir.Debug{Source: source}, nil

	case opLabel:
		return ir.LabelDef{Name: dl.at(pc)}, nil

	case opGoto:
		target, err := readTarget()
		if err != nil {
			return nil, err
		}
		return ir.Goto{Target: target}, nil

	case opIf:
		left, err := readReg()
		if err != nil {
			return nil, err
		}
		right, err := readReg()
		if err != nil {
			return nil, err
		}
		cmpByte, err := readU1(r)
		if err != nil {
			return nil, err
		}
		target, err := readTarget()
		if err != nil {
			return nil, err
		}
		return ir.If{Left: left, Right: right, Cmp: ir.Comparator(cmpByte), Target: target}, nil

	case opIfType:
		operand, err := readReg()
		if err != nil {
			return nil, err
		}
		typeIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		test, err := resolveType(pools, typeIdx)
		if err != nil {
			return nil, err
		}
		target, err := readTarget()
		if err != nil {
			return nil, err
		}
		return ir.IfType{Operand: operand, Test: test, Target: target}, nil

	case opSwitch:
		operand, err := readReg()
		if err != nil {
			return nil, err
		}
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		cases := make([]ir.SwitchCase, n)
		for i := range cases {
			constIdx, err := readUv(r)
			if err != nil {
				return nil, err
			}
			val, err := resolveConstant(pools, constIdx)
			if err != nil {
				return nil, err
			}
			target, err := readTarget()
			if err != nil {
				return nil, err
			}
			cases[i] = ir.SwitchCase{Value: val, Target: target}
		}
		def, err := readTarget()
		if err != nil {
			return nil, err
		}
		return ir.Switch{Operand: operand, Cases: cases, Default: def}, nil

	case opReturn:
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		sources := make([]ir.Register, n)
		for i := range sources {
			sources[i], err = readReg()
			if err != nil {
				return nil, err
			}
		}
		return ir.Return{Sources: sources}, nil

	case opThrow:
		source, err := readReg()
		if err != nil {
			return nil, err
		}
		return ir.Throw{Source: source}, nil

	case opFail:
		msg, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return ir.Fail{Message: string(msg)}, nil

	case opLoop, opForAll:
		end, err := readTarget()
		if err != nil {
			return nil, err
		}
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		modified := make([]ir.Register, n)
		for i := range modified {
			modified[i], err = readReg()
			if err != nil {
				return nil, err
			}
		}
		l := ir.Loop{End: end, Modified: modified, IsForAll: tag == opForAll}
		if l.IsForAll {
			l.Source, err = readReg()
			if err != nil {
				return nil, err
			}
			l.Index, err = readReg()
			if err != nil {
				return nil, err
			}
		}
		return l, nil

	case opLoopEnd:
		return ir.LoopEnd{}, nil

	case opTryCatch:
		end, err := readTarget()
		if err != nil {
			return nil, err
		}
		target, err := readTarget()
		if err != nil {
			return nil, err
		}
		return ir.TryCatch{End: end, Target: target}, nil

	case opAssert:
		end, err := readTarget()
		if err != nil {
			return nil, err
		}
		return ir.Assert{End: end}, nil

	case opAssume:
		end, err := readTarget()
		if err != nil {
			return nil, err
		}
		return ir.Assume{End: end}, nil

	default:
		return nil, verrors.New(verrors.CorruptFile, "unknown opcode tag %d", tag)
	}
}

func resolveType(pools *readPools, idx uint64) (types.Type, error) {
	if idx >= uint64(len(pools.types)) {
		return nil, verrors.New(verrors.CorruptFile, "type pool index %d out of range", idx)
	}
	return pools.types[idx], nil
}

func resolveConstant(pools *readPools, idx uint64) (constant.Constant, error) {
	if idx >= uint64(len(pools.constants)) {
		return nil, verrors.New(verrors.CorruptFile, "constant pool index %d out of range", idx)
	}
	return pools.constants[idx], nil
}
