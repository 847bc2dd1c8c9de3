// Package classify infers the dynamic-field suffix for unmapped properties.
//
// Suffixes follow the dynamic field conventions of Solr-style schemas so a
// search engine can type a field from its name alone.
package classify

import (
	"github.com/agentic-research/docmap/internal/tree"
)

// LongTextThreshold is the string length at which a string is treated as text.
const LongTextThreshold = 256

// FloatMode chooses the suffix family for decimals.
type FloatMode string

const (
	Float  FloatMode = "float"
	Double FloatMode = "double"
)

// Classify returns the effective base type of n and whether it is multi-valued.
// Lists are multi-valued; a list whose items disagree on type, or an empty
// list, is a string list. Objects count as strings (their value is JSON).
// Strings at or beyond LongTextThreshold are reported as Text.
func Classify(n tree.Node) (tree.ScalarType, bool) {
	l, multi := n.(*tree.List)
	base := tree.String
	if multi {
		for i, item := range l.Items {
			t := effective(tree.TypeOf(item))
			if i == 0 {
				base = t
			} else if t != base {
				base = tree.String
				break
			}
		}
	} else {
		base = effective(tree.TypeOf(n))
	}

	if base == tree.String && longest(n) >= LongTextThreshold {
		base = tree.Text
	}
	return base, multi
}

func effective(t tree.ScalarType) tree.ScalarType {
	if t == tree.ObjectType {
		return tree.String
	}
	return t
}

func longest(n tree.Node) int {
	most := 0
	for _, v := range Values(n) {
		most = max(most, len(v))
	}
	return most
}

// Suffix returns the dynamic field suffix for a base type.
func Suffix(base tree.ScalarType, multi bool, fm FloatMode) string {
	pick := func(single, many string) string {
		if multi {
			return many
		}
		return single
	}
	switch base {
	case tree.Integer:
		return pick("_i", "_is")
	case tree.Decimal:
		if fm == Double {
			return pick("_d", "_ds")
		}
		return pick("_f", "_fs")
	case tree.Date:
		return pick("_dt", "_dts")
	case tree.Boolean:
		return pick("_b", "_bs")
	case tree.Text:
		return "_t"
	}
	return pick("_s", "_ss")
}

// SuffixFor classifies n and returns its suffix.
func SuffixFor(n tree.Node, fm FloatMode) string {
	base, multi := Classify(n)
	return Suffix(base, multi, fm)
}

// Value is the string stored for a single node: scalars in their natural
// form (dates as 2006-01-02T15:04:05Z), objects and lists as JSON.
func Value(n tree.Node) string {
	if s, ok := n.(*tree.Scalar); ok {
		return s.Text()
	}
	return tree.JSON(n)
}

// Values returns one value per list item, or the single value of n.
func Values(n tree.Node) []string {
	l, ok := n.(*tree.List)
	if !ok {
		return []string{Value(n)}
	}
	out := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		out = append(out, Value(item))
	}
	return out
}
