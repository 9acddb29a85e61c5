package codec

import (
	"bufio"
	"math/big"

	"vcgen/internal/constant"
	"vcgen/internal/verrors"
)

// Constant tag bytes (§4.D: "single tag byte from {Null, False, True, Byte,
// Char, Int, Real, String, List, Set, Tuple, Record}").
const (
	cTagNull byte = iota
	cTagFalse
	cTagTrue
	cTagByte
	cTagChar
	cTagInt
	cTagReal
	cTagString
	cTagList
	cTagSet
	cTagTuple
	cTagRecord
)

func encodeConstant(w *bufio.Writer, p *writePools, c constant.Constant) error {
	switch v := c.(type) {
	case constant.Null:
		return writeU1(w, cTagNull)
	case constant.Bool:
		if v.Value {
			return writeU1(w, cTagTrue)
		}
		return writeU1(w, cTagFalse)
	case constant.Byte:
		if err := writeU1(w, cTagByte); err != nil {
			return err
		}
		return writeU1(w, v.Value)
	case constant.Char:
		if err := writeU1(w, cTagChar); err != nil {
			return err
		}
		return writeUv(w, uint64(v.Value))
	case constant.Int:
		if err := writeU1(w, cTagInt); err != nil {
			return err
		}
		return writeBytes(w, bigIntBytes(v.Value))
	case constant.Rational:
		if err := writeU1(w, cTagReal); err != nil {
			return err
		}
		if err := writeBytes(w, bigIntBytes(v.Value.Num())); err != nil {
			return err
		}
		return writeBytes(w, bigIntBytes(v.Value.Denom()))
	case constant.Str:
		if err := writeU1(w, cTagString); err != nil {
			return err
		}
		return writeU2String(w, v.Value)
	case constant.List:
		return encodeConstantSeq(w, p, cTagList, v.Elems)
	case constant.Set:
		return encodeConstantSeq(w, p, cTagSet, v.Elems)
	case constant.Tuple:
		return encodeConstantSeq(w, p, cTagTuple, v.Elems)
	case constant.Record:
		if err := writeU1(w, cTagRecord); err != nil {
			return err
		}
		if err := writeU2(w, uint16(len(v.Fields))); err != nil {
			return err
		}
		for _, f := range v.Fields {
			if err := writeUv(w, p.intern(f.Name)); err != nil {
				return err
			}
			if err := encodeConstant(w, p, f.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return verrors.New(verrors.UnsupportedFeature, "codec: unknown constant shape %T", c)
	}
}

func encodeConstantSeq(w *bufio.Writer, p *writePools, tag byte, elems []constant.Constant) error {
	if err := writeU1(w, tag); err != nil {
		return err
	}
	if err := writeU2(w, uint16(len(elems))); err != nil {
		return err
	}
	for _, e := range elems {
		if err := encodeConstant(w, p, e); err != nil {
			return err
		}
	}
	return nil
}

// bigIntBytes renders v as a signed big-endian two's-complement byte
// sequence (§4.D: "Int is a signed big-endian two's-complement byte
// sequence"). Zero and positive values use the minimal length that keeps
// the sign bit clear; a negative value always takes one byte more than the
// minimal big-endian length of its magnitude.
func bigIntBytes(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0}
	}
	if v.Sign() > 0 {
		b := v.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// Two's complement negative encoding: invert and add one over the
	// minimal byte width that fits the magnitude plus its sign bit.
	mag := new(big.Int).Neg(v)
	nBytes := len(mag.Bytes())
	width := nBytes + 1
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
	enc := new(big.Int).Add(mod, v)
	b := enc.Bytes()
	for len(b) < width {
		b = append([]byte{0}, b...)
	}
	if b[0]&0x80 == 0 {
		b = append([]byte{0xff}, b...)
	}
	return b
}

func bigIntFromBytes(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	if b[0]&0x80 == 0 {
		return new(big.Int).SetBytes(b)
	}
	width := len(b)
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
	mag := new(big.Int).SetBytes(b)
	return new(big.Int).Sub(mag, mod)
}

func writeU2String(w *bufio.Writer, s string) error {
	runes := []rune(s)
	if err := writeU2(w, uint16(len(runes))); err != nil {
		return err
	}
	for _, r := range runes {
		if err := writeU2(w, uint16(r)); err != nil {
			return err
		}
	}
	return nil
}

func readU2String(r *bufio.Reader) (string, error) {
	n, err := readU2(r)
	if err != nil {
		return "", err
	}
	runes := make([]rune, n)
	for i := range runes {
		cu, err := readU2(r)
		if err != nil {
			return "", err
		}
		runes[i] = rune(cu)
	}
	return string(runes), nil
}

func decodeConstant(r *bufio.Reader, pools *readPools) (constant.Constant, error) {
	tag, err := readU1(r)
	if err != nil {
		return nil, err
	}
	switch tag {
	case cTagNull:
		return constant.Null{}, nil
	case cTagFalse:
		return constant.Bool{Value: false}, nil
	case cTagTrue:
		return constant.Bool{Value: true}, nil
	case cTagByte:
		b, err := readU1(r)
		if err != nil {
			return nil, err
		}
		return constant.Byte{Value: b}, nil
	case cTagChar:
		v, err := readUv(r)
		if err != nil {
			return nil, err
		}
		return constant.Char{Value: rune(v)}, nil
	case cTagInt:
		b, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return constant.NewInt(bigIntFromBytes(b)), nil
	case cTagReal:
		numBytes, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		denBytes, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return constant.NewRational(bigIntFromBytes(numBytes), bigIntFromBytes(denBytes)), nil
	case cTagString:
		s, err := readU2String(r)
		if err != nil {
			return nil, err
		}
		return constant.Str{Value: s}, nil
	case cTagList, cTagSet, cTagTuple:
		n, err := readU2(r)
		if err != nil {
			return nil, err
		}
		elems := make([]constant.Constant, n)
		for i := range elems {
			elems[i], err = decodeConstant(r, pools)
			if err != nil {
				return nil, err
			}
		}
		switch tag {
		case cTagList:
			return constant.List{Elems: elems}, nil
		case cTagSet:
			return constant.NewSet(elems...), nil
		default:
			return constant.Tuple{Elems: elems}, nil
		}
	case cTagRecord:
		n, err := readU2(r)
		if err != nil {
			return nil, err
		}
		fields := make([]constant.Field, n)
		for i := range fields {
			nameIdx, err := readUv(r)
			if err != nil {
				return nil, err
			}
			name, err := resolveString(pools, nameIdx)
			if err != nil {
				return nil, err
			}
			val, err := decodeConstant(r, pools)
			if err != nil {
				return nil, err
			}
			fields[i] = constant.Field{Name: name, Value: val}
		}
		return constant.NewRecord(fields...), nil
	default:
		return nil, verrors.New(verrors.CorruptFile, "unknown constant tag %d", tag)
	}
}
