package transformer

import (
	"fmt"
	"math/big"
	"strings"

	"vcgen/internal/constant"
	"vcgen/internal/ir"
	"vcgen/internal/solver"
	"vcgen/internal/vcengine"
)

var zero = solver.Lit(constant.NewInt(big.NewInt(0)))

// StraightLine dispatches every opcode the engine hands to the default
// case of its Step switch: arithmetic, load/store, field/tuple/index
// access, construction, const, move/assign/convert/invert/negate, invoke
// (direct and indirect), update, nop, debug, label (§4.F "Straight-line
// opcode").
func (t *Transformer) StraightLine(b *vcengine.VcBranch, entry ir.Entry) error {
	switch code := entry.Code.(type) {
	case ir.BinOp:
		return t.binOp(b, entry, code)
	case ir.Unary:
		return t.unary(b, code)
	case ir.IndexOf:
		b.Set(code.Target, solver.ListGet(b.Get(code.Sequence), b.Get(code.Index)))
		return nil
	case ir.FieldLoad:
		b.Set(code.Target, solver.Apply("field."+code.Field, b.Get(code.Source)))
		return nil
	case ir.TupleLoad:
		b.Set(code.Target, solver.Apply(fmt.Sprintf("tuple.%d", code.Index), b.Get(code.Source)))
		return nil
	case ir.Construct:
		return t.construct(b, code)
	case ir.Update:
		return t.update(b, code)
	case ir.Const:
		b.Set(code.Target, solver.Lit(code.Value))
		return nil
	case ir.DirectInvoke:
		return t.directInvoke(b, entry, code)
	case ir.IndirectInvoke:
		args := make([]solver.Expr, 0, len(code.Sources)+1)
		args = append(args, b.Get(code.Func))
		for _, s := range code.Sources {
			args = append(args, b.Get(s))
		}
		if code.HasTarget {
			b.Set(code.Target, solver.Apply("indirect-call", args...))
		}
		return nil
	case ir.Nop, ir.Debug, ir.LabelDef:
		return nil
	default:
		return nil
	}
}

func (t *Transformer) binOp(b *vcengine.VcBranch, entry ir.Entry, code ir.BinOp) error {
	l, r := b.Get(code.Left), b.Get(code.Right)
	switch code.Op {
	case ir.Add:
		b.Set(code.Target, solver.Add(l, r))
	case ir.Sub:
		b.Set(code.Target, solver.Sub(l, r))
	case ir.Mul:
		b.Set(code.Target, solver.Mul(l, r))
	case ir.Div:
		if err := t.checkObligation(b, entry, "division by zero", solver.Not(solver.Eq(r, zero))); err != nil {
			return err
		}
		b.Set(code.Target, solver.Div(l, r))
	case ir.Rem:
		if err := t.checkObligation(b, entry, "remainder by zero", solver.Not(solver.Eq(r, zero))); err != nil {
			return err
		}
		b.Set(code.Target, solver.Rem(l, r))
	case ir.Eq:
		b.Set(code.Target, solver.Eq(l, r))
	case ir.Neq:
		b.Set(code.Target, solver.Not(solver.Eq(l, r)))
	case ir.Lt:
		b.Set(code.Target, solver.Lt(l, r))
	case ir.Le:
		b.Set(code.Target, solver.Le(l, r))
	case ir.Gt:
		b.Set(code.Target, solver.Lt(r, l))
	case ir.Ge:
		b.Set(code.Target, solver.Le(r, l))
	case ir.And:
		b.Set(code.Target, solver.And(l, r))
	case ir.Or:
		b.Set(code.Target, solver.Or(l, r))
	}
	return nil
}

func (t *Transformer) unary(b *vcengine.VcBranch, code ir.Unary) error {
	s := b.Get(code.Source)
	switch code.Op {
	case ir.Move, ir.Assign:
		b.Set(code.Target, s)
	case ir.Convert:
		b.Set(code.Target, solver.Apply("convert", s))
	case ir.Invert:
		b.Set(code.Target, solver.Not(s))
	case ir.Negate:
		b.Set(code.Target, solver.Neg(s))
	case ir.LengthOf:
		b.Set(code.Target, solver.ListLen(s))
	case ir.Dereference:
		b.Set(code.Target, solver.Apply("deref", s))
	case ir.NewObject:
		b.Set(code.Target, solver.Apply("new", s))
	}
	b.SetType(code.Target, code.Type)
	return nil
}

func (t *Transformer) construct(b *vcengine.VcBranch, code ir.Construct) error {
	switch code.Kind {
	case ir.ConstructList:
		args := make([]solver.Expr, len(code.Sources))
		for i, s := range code.Sources {
			args[i] = b.Get(s)
		}
		b.Set(code.Target, solver.Apply("list.make", args...))
	case ir.ConstructSet:
		elems := make([]solver.Expr, len(code.Sources))
		for i, s := range code.Sources {
			elems[i] = solver.Apply("set.singleton", b.Get(s))
		}
		v := solver.Apply("set.empty")
		for _, e := range elems {
			v = solver.SetUnion(v, e)
		}
		b.Set(code.Target, v)
	case ir.ConstructMap:
		v := solver.Apply("map.empty")
		for i := 0; i+1 < len(code.Sources); i += 2 {
			v = solver.MapPut(v, b.Get(code.Sources[i]), b.Get(code.Sources[i+1]))
		}
		b.Set(code.Target, v)
	case ir.ConstructTuple:
		args := make([]solver.Expr, len(code.Sources))
		for i, s := range code.Sources {
			args[i] = b.Get(s)
		}
		b.Set(code.Target, solver.Apply("tuple.make", args...))
	case ir.ConstructRecord:
		args := make([]solver.Expr, len(code.Sources))
		for i, s := range code.Sources {
			args[i] = b.Get(s)
		}
		name := "record{" + strings.Join(code.Fields, ",") + "}"
		b.Set(code.Target, solver.Apply(name, args...))
	}
	b.SetType(code.Target, code.Type)
	return nil
}

func (t *Transformer) update(b *vcengine.VcBranch, code ir.Update) error {
	container, value := b.Get(code.Container), b.Get(code.Value)
	if code.ByField {
		b.Set(code.Target, solver.Apply("field-update."+code.Field, container, value))
		return nil
	}
	b.Set(code.Target, solver.ListSet(container, b.Get(code.Key), value))
	return nil
}
