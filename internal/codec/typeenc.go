package codec

import (
	"bufio"

	"vcgen/internal/types"
	"vcgen/internal/verrors"
)

// Type tag bytes for the typePool grammar (§4.D: "encoded per Type grammar
// (external, schema-versioned)"). This module owns that external schema;
// version 1 is the only one this codec speaks.
const (
	tyVoid byte = iota
	tyAny
	tyNull
	tyBool
	tyByte
	tyChar
	tyInt
	tyRational
	tyStr
	tyList
	tySet
	tyMap
	tyTuple
	tyRecord
	tyReference
	tyFunction
	tyMethod
	tyUnion
	tyIntersection
	tyNegation
	tyNominal
	tyRecursive
)

func encodeType(w *bufio.Writer, p *writePools, t types.Type) error {
	switch v := t.(type) {
	case types.Void:
		return writeU1(w, tyVoid)
	case types.Any:
		return writeU1(w, tyAny)
	case types.Null:
		return writeU1(w, tyNull)
	case types.Bool:
		return writeU1(w, tyBool)
	case types.Byte:
		return writeU1(w, tyByte)
	case types.Char:
		return writeU1(w, tyChar)
	case types.Int:
		return writeU1(w, tyInt)
	case types.Rational:
		return writeU1(w, tyRational)
	case types.Str:
		return writeU1(w, tyStr)
	case types.List:
		if err := writeU1(w, tyList); err != nil {
			return err
		}
		return encodeType(w, p, v.Elem)
	case types.Set:
		if err := writeU1(w, tySet); err != nil {
			return err
		}
		return encodeType(w, p, v.Elem)
	case types.Map:
		if err := writeU1(w, tyMap); err != nil {
			return err
		}
		if err := encodeType(w, p, v.Key); err != nil {
			return err
		}
		return encodeType(w, p, v.Value)
	case types.Tuple:
		if err := writeU1(w, tyTuple); err != nil {
			return err
		}
		if err := writeUv(w, uint64(len(v.Elems))); err != nil {
			return err
		}
		for _, e := range v.Elems {
			if err := encodeType(w, p, e); err != nil {
				return err
			}
		}
		return nil
	case types.Record:
		if err := writeU1(w, tyRecord); err != nil {
			return err
		}
		if err := writeUv(w, uint64(len(v.Fields))); err != nil {
			return err
		}
		for _, f := range v.Fields {
			if err := writeUv(w, p.intern(f.Name)); err != nil {
				return err
			}
			if err := encodeType(w, p, f.Type); err != nil {
				return err
			}
		}
		open := byte(0)
		if v.Open {
			open = 1
		}
		return writeU1(w, open)
	case types.Reference:
		if err := writeU1(w, tyReference); err != nil {
			return err
		}
		return encodeType(w, p, v.Elem)
	case types.Function:
		return encodeSignature(w, p, tyFunction, nil, v.Params, v.Returns, v.Throws)
	case types.Method:
		return encodeSignature(w, p, tyMethod, v.Receiver, v.Params, v.Returns, v.Throws)
	case types.Union:
		return encodeTypeList(w, p, tyUnion, v.Elems)
	case types.Intersection:
		return encodeTypeList(w, p, tyIntersection, v.Elems)
	case types.Negation:
		if err := writeU1(w, tyNegation); err != nil {
			return err
		}
		return encodeType(w, p, v.Elem)
	case types.Nominal:
		if err := writeU1(w, tyNominal); err != nil {
			return err
		}
		return writeUv(w, p.internName(v.Name))
	case types.Recursive:
		if err := writeU1(w, tyRecursive); err != nil {
			return err
		}
		if err := writeUv(w, p.intern(v.Label)); err != nil {
			return err
		}
		return encodeType(w, p, v.Body)
	default:
		return verrors.New(verrors.UnsupportedFeature, "codec: unknown type shape %T", t)
	}
}

func encodeSignature(w *bufio.Writer, p *writePools, tag byte, receiver types.Type, params []types.Type, returns, throws types.Type) error {
	if err := writeU1(w, tag); err != nil {
		return err
	}
	hasReceiver := byte(0)
	if receiver != nil {
		hasReceiver = 1
	}
	if err := writeU1(w, hasReceiver); err != nil {
		return err
	}
	if receiver != nil {
		if err := encodeType(w, p, receiver); err != nil {
			return err
		}
	}
	if err := writeUv(w, uint64(len(params))); err != nil {
		return err
	}
	for _, prm := range params {
		if err := encodeType(w, p, prm); err != nil {
			return err
		}
	}
	if err := encodeType(w, p, returns); err != nil {
		return err
	}
	hasThrows := byte(0)
	if throws != nil {
		hasThrows = 1
	}
	if err := writeU1(w, hasThrows); err != nil {
		return err
	}
	if throws != nil {
		return encodeType(w, p, throws)
	}
	return nil
}

func encodeTypeList(w *bufio.Writer, p *writePools, tag byte, elems []types.Type) error {
	if err := writeU1(w, tag); err != nil {
		return err
	}
	if err := writeUv(w, uint64(len(elems))); err != nil {
		return err
	}
	for _, e := range elems {
		if err := encodeType(w, p, e); err != nil {
			return err
		}
	}
	return nil
}

func decodeType(r *bufio.Reader, pools *readPools) (types.Type, error) {
	tag, err := readU1(r)
	if err != nil {
		return nil, err
	}
	switch tag {
	case tyVoid:
		return types.Void{}, nil
	case tyAny:
		return types.Any{}, nil
	case tyNull:
		return types.Null{}, nil
	case tyBool:
		return types.Bool{}, nil
	case tyByte:
		return types.Byte{}, nil
	case tyChar:
		return types.Char{}, nil
	case tyInt:
		return types.Int{}, nil
	case tyRational:
		return types.Rational{}, nil
	case tyStr:
		return types.Str{}, nil
	case tyList:
		elem, err := decodeType(r, pools)
		if err != nil {
			return nil, err
		}
		return types.List{Elem: elem}, nil
	case tySet:
		elem, err := decodeType(r, pools)
		if err != nil {
			return nil, err
		}
		return types.Set{Elem: elem}, nil
	case tyMap:
		key, err := decodeType(r, pools)
		if err != nil {
			return nil, err
		}
		val, err := decodeType(r, pools)
		if err != nil {
			return nil, err
		}
		return types.Map{Key: key, Value: val}, nil
	case tyTuple:
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		elems := make([]types.Type, n)
		for i := range elems {
			elems[i], err = decodeType(r, pools)
			if err != nil {
				return nil, err
			}
		}
		return types.Tuple{Elems: elems}, nil
	case tyRecord:
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		fields := make([]types.Field, n)
		for i := range fields {
			nameIdx, err := readUv(r)
			if err != nil {
				return nil, err
			}
			name, err := resolveString(pools, nameIdx)
			if err != nil {
				return nil, err
			}
			fieldType, err := decodeType(r, pools)
			if err != nil {
				return nil, err
			}
			fields[i] = types.Field{Name: name, Type: fieldType}
		}
		open, err := readU1(r)
		if err != nil {
			return nil, err
		}
		return types.Record{Fields: fields, Open: open != 0}, nil
	case tyReference:
		elem, err := decodeType(r, pools)
		if err != nil {
			return nil, err
		}
		return types.Reference{Elem: elem}, nil
	case tyFunction, tyMethod:
		hasReceiver, err := readU1(r)
		if err != nil {
			return nil, err
		}
		var receiver types.Type
		if hasReceiver != 0 {
			receiver, err = decodeType(r, pools)
			if err != nil {
				return nil, err
			}
		}
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		params := make([]types.Type, n)
		for i := range params {
			params[i], err = decodeType(r, pools)
			if err != nil {
				return nil, err
			}
		}
		returns, err := decodeType(r, pools)
		if err != nil {
			return nil, err
		}
		hasThrows, err := readU1(r)
		if err != nil {
			return nil, err
		}
		var throws types.Type
		if hasThrows != 0 {
			throws, err = decodeType(r, pools)
			if err != nil {
				return nil, err
			}
		}
		if tag == tyMethod {
			return types.Method{Receiver: receiver, Params: params, Returns: returns, Throws: throws}, nil
		}
		return types.Function{Params: params, Returns: returns, Throws: throws}, nil
	case tyUnion, tyIntersection:
		n, err := readUv(r)
		if err != nil {
			return nil, err
		}
		elems := make([]types.Type, n)
		for i := range elems {
			elems[i], err = decodeType(r, pools)
			if err != nil {
				return nil, err
			}
		}
		if tag == tyUnion {
			return types.Union{Elems: elems}, nil
		}
		return types.Intersection{Elems: elems}, nil
	case tyNegation:
		elem, err := decodeType(r, pools)
		if err != nil {
			return nil, err
		}
		return types.Negation{Elem: elem}, nil
	case tyNominal:
		idx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		name, err := resolveName(pools, idx)
		if err != nil {
			return nil, err
		}
		return types.Nominal{Name: name}, nil
	case tyRecursive:
		labelIdx, err := readUv(r)
		if err != nil {
			return nil, err
		}
		label, err := resolveString(pools, labelIdx)
		if err != nil {
			return nil, err
		}
		body, err := decodeType(r, pools)
		if err != nil {
			return nil, err
		}
		return types.Recursive{Label: label, Body: body}, nil
	default:
		return nil, verrors.New(verrors.CorruptFile, "unknown type tag %d", tag)
	}
}

func resolveString(pools *readPools, idx uint64) (string, error) {
	if idx >= uint64(len(pools.strings)) {
		return "", verrors.New(verrors.CorruptFile, "string pool index %d out of range", idx)
	}
	return pools.strings[idx], nil
}

func resolveName(pools *readPools, idx uint64) (types.QualifiedName, error) {
	if idx >= uint64(len(pools.names)) {
		return types.QualifiedName{}, verrors.New(verrors.CorruptFile, "name pool index %d out of range", idx)
	}
	return pools.names[idx], nil
}
