package ir

import "strings"

// Attribute is one opaque, source-location-or-other payload attached to an
// Entry. The core preserves these verbatim through the codec but never
// interprets them (§1: "the core must preserve opaque attribute payloads
// attached to every bytecode but does not interpret them").
type Attribute struct {
	Tag     string
	Payload []byte
}

// AttributeBag is the unordered bag of attributes an Entry carries (§3).
// Codec round-trips preserve the on-disk order (§8 property 1 compares
// "the ordered attribute bags on every Entry"), so this is kept as a slice
// rather than an actual set.
type AttributeBag []Attribute

// Equal compares two attribute bags by tag and payload bytes, in order —
// exactly the round-trip equality §8's scenario (e) requires ("attribute
// equality is by type tag and payload bytes").
func (a AttributeBag) Equal(b AttributeBag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Tag != b[i].Tag || string(a[i].Payload) != string(b[i].Payload) {
			return false
		}
	}
	return true
}

// Describe renders the bag for inclusion in a verrors.CoreError message;
// satisfies verrors.Attributes without this package importing verrors.
func (a AttributeBag) Describe() string {
	if len(a) == 0 {
		return "<no attributes>"
	}
	tags := make([]string, len(a))
	for i, attr := range a {
		tags[i] = attr.Tag
	}
	return strings.Join(tags, ",")
}
