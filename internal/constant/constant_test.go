package constant

import (
	"math/big"
	"testing"

	"vcgen/internal/types"
)

func TestTypeOfPrimitives(t *testing.T) {
	if _, ok := (Bool{Value: true}).TypeOf().(types.Bool); !ok {
		t.Fatal("expected Bool type")
	}
	if _, ok := NewInt(big.NewInt(7)).TypeOf().(types.Int); !ok {
		t.Fatal("expected Int type")
	}
}

func TestEmptyListTypeIsVoidElem(t *testing.T) {
	l := List{}
	lt, ok := l.TypeOf().(types.List)
	if !ok {
		t.Fatal("expected List type")
	}
	if _, ok := lt.Elem.(types.Void); !ok {
		t.Fatalf("expected empty list element type void, got %v", lt.Elem)
	}
}

func TestListTypeUnionsElements(t *testing.T) {
	l := List{Elems: []Constant{NewInt(big.NewInt(1)), Bool{Value: true}}}
	lt := l.TypeOf().(types.List)
	if !types.Equal(lt.Elem, types.NewUnion(types.Int{}, types.Bool{})) {
		t.Fatalf("unexpected element type %v", lt.Elem)
	}
}

func TestSetCanonicalizesDuplicates(t *testing.T) {
	s1 := NewSet(NewInt(big.NewInt(1)), NewInt(big.NewInt(2)), NewInt(big.NewInt(1)))
	s2 := NewSet(NewInt(big.NewInt(2)), NewInt(big.NewInt(1)))
	if !Equal(s1, s2) {
		t.Fatalf("expected canonicalized sets to be equal: %s vs %s", s1.Key(), s2.Key())
	}
}

func TestRecordFieldOrderIsCanonical(t *testing.T) {
	r1 := NewRecord(Field{Name: "b", Value: Bool{Value: true}}, Field{Name: "a", Value: NewInt(big.NewInt(1))})
	r2 := NewRecord(Field{Name: "a", Value: NewInt(big.NewInt(1))}, Field{Name: "b", Value: Bool{Value: true}})
	if !Equal(r1, r2) {
		t.Fatalf("expected field-order-independent equality: %s vs %s", r1.Key(), r2.Key())
	}
}

func TestRationalReducesToLowestTerms(t *testing.T) {
	r := NewRational(big.NewInt(22), big.NewInt(7))
	if r.Value.RatString() != "22/7" {
		t.Fatalf("expected already-reduced 22/7, got %s", r.Value.RatString())
	}
	reducible := NewRational(big.NewInt(4), big.NewInt(8))
	if reducible.Value.RatString() != "1/2" {
		t.Fatalf("expected 4/8 to reduce to 1/2, got %s", reducible.Value.RatString())
	}
}

func TestRationalEqualityCrossMultiplies(t *testing.T) {
	a := NewRational(big.NewInt(1), big.NewInt(2))
	b := NewRational(big.NewInt(50), big.NewInt(100))
	if !Equal(a, b) {
		t.Fatalf("expected 1/2 and 50/100 to compare equal: %s vs %s", a.Key(), b.Key())
	}
	c := NewRational(big.NewInt(1), big.NewInt(3))
	if Equal(a, c) {
		t.Fatalf("expected 1/2 and 1/3 to compare unequal")
	}
	if CompareRational(c, a) >= 0 {
		t.Fatalf("expected 1/3 < 1/2, got CompareRational=%d", CompareRational(c, a))
	}
}
