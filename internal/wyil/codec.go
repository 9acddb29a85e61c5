package wyil

import (
	"io"

	"github.com/google/uuid"

	"vcgen/internal/codec"
	"vcgen/internal/ir"
	"vcgen/internal/types"
	"vcgen/internal/verrors"
)

// Declaration kind tags, per §4.D ("kind ∈ {Constant, Type, Function,
// Method}").
const (
	kindConstant byte = iota
	kindType
	kindFunction
	kindMethod
)

// Encode writes f to dst using the shared pooled binary format (§4.D),
// framing each declaration as one top-level entry.
func Encode(f *WyilFile, dst io.Writer) error {
	w := codec.NewWriter()

	idBytes, err := f.ID.MarshalBinary()
	if err != nil {
		return err
	}
	for _, b := range idBytes {
		if err := w.WriteU1(b); err != nil {
			return err
		}
	}
	if err := writeString(w, f.Filename); err != nil {
		return err
	}

	for _, d := range f.Declarations {
		if err := encodeDeclaration(w, d); err != nil {
			return err
		}
		w.MarkTopLevelEntry()
	}

	return w.Flush(dst)
}

func writeString(w *codec.Writer, s string) error {
	return w.WriteUv(w.InternString(s))
}

func encodeDeclaration(w *codec.Writer, d Declaration) error {
	switch v := d.(type) {
	case ConstantDecl:
		if err := w.WriteU1(kindConstant); err != nil {
			return err
		}
		if err := w.WriteUv(w.InternName(v.Name)); err != nil {
			return err
		}
		return w.EncodeConstant(v.Value)

	case TypeDecl:
		if err := w.WriteU1(kindType); err != nil {
			return err
		}
		if err := w.WriteUv(w.InternName(v.Name)); err != nil {
			return err
		}
		if err := w.EncodeType(v.Underlying); err != nil {
			return err
		}
		if v.Constraint == nil {
			return w.WriteU1(0)
		}
		if err := w.WriteU1(1); err != nil {
			return err
		}
		return w.EncodeNestedBlock(v.Constraint)

	case FunctionOrMethodDecl:
		tag := kindFunction
		if _, ok := v.Signature.(types.Method); ok {
			tag = kindMethod
		}
		if err := w.WriteU1(tag); err != nil {
			return err
		}
		if err := w.WriteUv(w.InternName(v.Name)); err != nil {
			return err
		}
		if err := w.EncodeType(v.Signature); err != nil {
			return err
		}
		if err := w.WriteUv(uint64(len(v.Cases))); err != nil {
			return err
		}
		for _, c := range v.Cases {
			if err := encodeOptionalBlock(w, c.Precondition); err != nil {
				return err
			}
			if err := encodeOptionalBlock(w, c.Postcondition); err != nil {
				return err
			}
			if err := w.EncodeNestedBlock(c.Body); err != nil {
				return err
			}
		}
		return nil

	default:
		return verrors.New(verrors.DuplicateDeclaration, "codec: unknown declaration kind %T", d)
	}
}

func encodeOptionalBlock(w *codec.Writer, b *ir.Block) error {
	if b == nil {
		return w.WriteU1(0)
	}
	if err := w.WriteU1(1); err != nil {
		return err
	}
	return w.EncodeNestedBlock(b)
}

// Decode reads a WyilFile written by Encode, re-validating the same
// uniqueness invariants New enforces at construction time.
func Decode(src io.Reader) (*WyilFile, error) {
	fr, err := codec.OpenReader(src)
	if err != nil {
		return nil, err
	}

	var idBytes [16]byte
	for i := range idBytes {
		b, err := fr.ReadU1()
		if err != nil {
			return nil, err
		}
		idBytes[i] = b
	}
	id, err := uuid.FromBytes(idBytes[:])
	if err != nil {
		return nil, verrors.Wrap(verrors.CorruptFile, err, "malformed WyilFile id")
	}

	filenameIdx, err := fr.ReadUv()
	if err != nil {
		return nil, err
	}
	filename, err := fr.ResolveString(filenameIdx)
	if err != nil {
		return nil, err
	}

	decls := make([]Declaration, fr.Count)
	for i := range decls {
		d, err := decodeDeclaration(fr)
		if err != nil {
			return nil, err
		}
		decls[i] = d
	}

	f, err := New(filename, decls)
	if err != nil {
		return nil, err
	}
	f.ID = id
	return f, nil
}

func decodeDeclaration(fr *codec.FileReader) (Declaration, error) {
	tag, err := fr.ReadU1()
	if err != nil {
		return nil, err
	}
	nameIdx, err := fr.ReadUv()
	if err != nil {
		return nil, err
	}
	name, err := fr.ResolveName(nameIdx)
	if err != nil {
		return nil, err
	}

	switch tag {
	case kindConstant:
		cIdx, err := fr.ReadUv()
		if err != nil {
			return nil, err
		}
		val, err := fr.ResolveConstant(cIdx)
		if err != nil {
			return nil, err
		}
		return ConstantDecl{Name: name, Value: val}, nil

	case kindType:
		underlying, err := fr.DecodeType()
		if err != nil {
			return nil, err
		}
		hasConstraint, err := fr.ReadU1()
		if err != nil {
			return nil, err
		}
		var constraint *ir.Block
		if hasConstraint != 0 {
			constraint, err = fr.DecodeBlock()
			if err != nil {
				return nil, err
			}
		}
		return TypeDecl{Name: name, Underlying: underlying, Constraint: constraint}, nil

	case kindFunction, kindMethod:
		signature, err := fr.DecodeType()
		if err != nil {
			return nil, err
		}
		n, err := fr.ReadUv()
		if err != nil {
			return nil, err
		}
		cases := make([]Case, n)
		for i := range cases {
			pre, err := decodeOptionalBlock(fr)
			if err != nil {
				return nil, err
			}
			post, err := decodeOptionalBlock(fr)
			if err != nil {
				return nil, err
			}
			body, err := fr.DecodeBlock()
			if err != nil {
				return nil, err
			}
			cases[i] = Case{Precondition: pre, Postcondition: post, Body: body}
		}
		return FunctionOrMethodDecl{Name: name, Signature: signature, Cases: cases}, nil

	default:
		return nil, verrors.New(verrors.CorruptFile, "unknown declaration kind tag %d", tag)
	}
}

func decodeOptionalBlock(fr *codec.FileReader) (*ir.Block, error) {
	has, err := fr.ReadU1()
	if err != nil {
		return nil, err
	}
	if has == 0 {
		return nil, nil
	}
	return fr.DecodeBlock()
}
