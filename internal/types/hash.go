package types

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// NewRecursiveLabel computes a deterministic label for an anonymous
// recursive type from the structural description of its body, replacing
// the teacher-adjacent placeholder-name approach (Design Note §9.1): two
// syntactically distinct but bisimilar recursive types, built independently
// from the same structural shape, now receive the same label and compare
// equal without name coincidence.
//
// buildBody receives the label being allocated so it can close the
// recursive reference (via LabelRef) before the label's final name is
// known; the placeholder label is only used to produce a stable structural
// string to hash, never surfaced to a caller.
func NewRecursiveLabel(buildBody func(selfRef Type) Type) (string, Type) {
	const placeholder = "self"
	body := buildBody(LabelRef(placeholder))
	sum := blake2b.Sum256([]byte(body.String()))
	label := "rec$" + hex.EncodeToString(sum[:16])
	if label == placeholder {
		label = fmt.Sprintf("rec$%s_", label) // defensive; placeholder can never collide in practice
	}
	finalBody := Substitute(body, placeholder, LabelRef(label))
	return label, finalBody
}
