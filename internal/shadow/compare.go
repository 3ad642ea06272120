package shadow

import (
	"bytes"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	oldLabel = "Old API"
	newLabel = "New API"

	diffContext = 3
)

// Equal reports whether two payloads are semantically equal after
// normalization. Two absent payloads are equal; one absent payload is not.
func Equal(old, new *Document) bool {
	if old == nil && new == nil {
		return true
	}
	if old == nil || new == nil {
		return false
	}
	return bytes.Equal(
		Canonical(Normalize(old.Value())),
		Canonical(Normalize(new.Value())),
	)
}

// Diff returns a unified diff between the normalized, pretty-printed payloads,
// labeled "Old API" and "New API". It is empty when either side is absent or
// when the payloads are equal.
func Diff(old, new *Document) []string {
	if old == nil || new == nil {
		return []string{}
	}

	a := Pretty(Normalize(old.Value()))
	b := Pretty(Normalize(new.Value()))
	if a == b {
		return []string{}
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: oldLabel,
		ToFile:   newLabel,
		Context:  diffContext,
	})
	if err != nil || text == "" {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
