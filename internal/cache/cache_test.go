package cache

import (
	"context"
	"math/big"
	"testing"

	"vcgen/internal/constant"
	"vcgen/internal/ir"
)

func sampleBlock() *ir.Block {
	return &ir.Block{Entries: []ir.Entry{
		{Code: ir.Const{Target: 0, Value: constant.NewInt(big.NewInt(7))}},
		{Code: ir.Return{Sources: []ir.Register{0}}},
	}}
}

func TestNullCacheAlwaysMisses(t *testing.T) {
	var c NullCache
	_, ok, err := c.Get(context.Background(), "f")
	if err != nil || ok {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Put(context.Background(), "f", sampleBlock()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, ok, _ = c.Get(context.Background(), "f")
	if ok {
		t.Fatal("expected NullCache to never retain a Put")
	}
}

func TestSplitScheme(t *testing.T) {
	cases := []struct {
		dsn, wantScheme, wantRest string
	}{
		{"sqlite::memory:", "sqlite", ":memory:"},
		{"postgres://user:pw@host/db", "postgres", "user:pw@host/db"},
		{"mysql://user:pw@tcp(host:3306)/db", "mysql", "user:pw@tcp(host:3306)/db"},
	}
	for _, c := range cases {
		scheme, rest := splitScheme(c.dsn)
		if scheme != c.wantScheme {
			t.Errorf("splitScheme(%q) scheme = %q, want %q", c.dsn, scheme, c.wantScheme)
		}
		if rest != c.wantRest {
			t.Errorf("splitScheme(%q) rest = %q, want %q", c.dsn, rest, c.wantRest)
		}
	}
}

func TestSQLCacheRoundTripSQLite(t *testing.T) {
	c, err := Open("sqlite::memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	_, ok, err := c.Get(ctx, "example/f")
	if err != nil {
		t.Fatalf("Get on empty cache: %v", err)
	}
	if ok {
		t.Fatal("expected a miss before any Put")
	}

	want := sampleBlock()
	if err := c.Put(ctx, "example/f", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(ctx, "example/f")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit after Put")
	}
	if got.Size() != want.Size() {
		t.Fatalf("expected %d entries, got %d", want.Size(), got.Size())
	}
	if got.Entries[0].Code.(ir.Const).Value.Key() != "int:7" {
		t.Fatalf("unexpected round-tripped constant: %#v", got.Entries[0].Code)
	}

	// Put again with the same key to exercise the upsert path.
	if err := c.Put(ctx, "example/f", want); err != nil {
		t.Fatalf("second Put: %v", err)
	}
}
