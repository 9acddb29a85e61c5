package types

import "testing"

func TestSubtypeReflexive(t *testing.T) {
	cases := []Type{Int{}, Bool{}, Str{}, List{Elem: Int{}}, NewUnion(Int{}, Bool{})}
	for _, ty := range cases {
		if !Subtype(ty, ty, nil) {
			t.Errorf("Subtype(%v, %v) = false, want true", ty, ty)
		}
	}
}

func TestSubtypeTransitive(t *testing.T) {
	nat := Int{}
	union := NewUnion(Int{}, Null{})
	wider := NewUnion(Int{}, Null{}, Bool{})
	if !Subtype(nat, union, nil) || !Subtype(union, wider, nil) {
		t.Fatal("expected chain to hold")
	}
	if !Subtype(nat, wider, nil) {
		t.Fatal("transitivity failed")
	}
}

func TestUnionDistributesSubtype(t *testing.T) {
	u := NewUnion(Int{}, Bool{})
	if !Subtype(Int{}, u, nil) {
		t.Fatal("Int should be subtype of Int|Bool")
	}
	if Subtype(Str{}, u, nil) {
		t.Fatal("Str should not be subtype of Int|Bool")
	}
}

func TestIntersectNegationIsVoid(t *testing.T) {
	got := Intersect(Int{}, Negate(Int{}))
	if !Equal(got, Void{}) {
		t.Fatalf("intersect(int, !int) = %v, want void", got)
	}
}

func TestIntersectAnyIsIdentity(t *testing.T) {
	got := Intersect(Int{}, Any{})
	if !Equal(got, Int{}) {
		t.Fatalf("intersect(int, any) = %v, want int", got)
	}
}

func TestNewUnionCanonicalizes(t *testing.T) {
	a := NewUnion(Int{}, Bool{}, Int{})
	b := NewUnion(Bool{}, Int{})
	if !Equal(a, b) {
		t.Fatalf("expected dedup+reorder to make %v equal %v", a, b)
	}
}

func TestNewUnionSingleCollapses(t *testing.T) {
	got := NewUnion(Int{})
	if _, ok := got.(Int); !ok {
		t.Fatalf("single-element union should collapse, got %T", got)
	}
}

func TestRecursiveBisimulation(t *testing.T) {
	label1, body1 := NewRecursiveLabel(func(self Type) Type {
		return NewUnion(Null{}, Tuple{Elems: []Type{Int{}, self}})
	})
	label2, body2 := NewRecursiveLabel(func(self Type) Type {
		return NewUnion(Null{}, Tuple{Elems: []Type{Int{}, self}})
	})
	if label1 != label2 {
		t.Fatalf("expected deterministic label, got %q vs %q", label1, label2)
	}
	r1 := Recursive{Label: label1, Body: body1}
	r2 := Recursive{Label: label2, Body: body2}
	if !Equal(r1, r2) {
		t.Fatal("expected bisimilar recursive types to compare equal")
	}
}

func TestFlattenUnrollsOnce(t *testing.T) {
	label, body := NewRecursiveLabel(func(self Type) Type {
		return NewUnion(Null{}, Tuple{Elems: []Type{Int{}, self}})
	})
	rec := Recursive{Label: label, Body: body}
	flat := Flatten(rec)
	u, ok := flat.(Union)
	if !ok || len(u.Elems) != 2 {
		t.Fatalf("expected flatten to expose the union body, got %v", flat)
	}
}

func TestRecordWidthSubtyping(t *testing.T) {
	narrow := Record{Fields: []Field{{Name: "x", Type: Int{}}}, Open: false}
	wide := Record{Fields: []Field{{Name: "x", Type: Int{}}, {Name: "y", Type: Bool{}}}, Open: false}
	if !Subtype(wide, narrow.openFields(), nil) {
		t.Fatal("a wider closed record should be a subtype of the equivalent open record")
	}
}

func (r Record) openFields() Record { return Record{Fields: r.Fields, Open: true} }
