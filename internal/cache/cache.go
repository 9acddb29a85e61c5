// Package cache provides a persistent store for the global generator's
// memoization table (§4.E, §5: "the global-generator cache is written at
// most once per qualified name"), so repeated verification runs across
// process restarts do not recompile unchanged nominal-type refinements.
package cache

import (
	"bytes"
	"context"

	"vcgen/internal/codec"
	"vcgen/internal/ir"
)

// BlockCache stores elaborated refinement blocks keyed by qualified name.
type BlockCache interface {
	Get(ctx context.Context, qualifiedName string) (*ir.Block, bool, error)
	Put(ctx context.Context, qualifiedName string, b *ir.Block) error
}

// NullCache never retains anything; every Get misses. It's the default
// BlockCache so that running without a configured backing store is always
// safe, just uncached.
type NullCache struct{}

func (NullCache) Get(context.Context, string) (*ir.Block, bool, error) { return nil, false, nil }
func (NullCache) Put(context.Context, string, *ir.Block) error        { return nil }

// encodeBlock/decodeBlock serialize a single ir.Block through the shared
// pooled codec (§4.D), the same wire format internal/wyil uses for nested
// blocks, so a cached block is byte-for-byte what a WyilFile would encode.
func encodeBlock(b *ir.Block) ([]byte, error) {
	w := codec.NewWriter()
	if err := w.EncodeBlock(b); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := w.Flush(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBlock(data []byte) (*ir.Block, error) {
	blocks, err := codec.ReadFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return &ir.Block{}, nil
	}
	return blocks[0], nil
}
