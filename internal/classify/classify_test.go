package classify

import (
	"strings"
	"testing"
	"time"

	"github.com/agentic-research/docmap/internal/tree"
	"github.com/stretchr/testify/assert"
)

func list(items ...tree.Node) *tree.List { return &tree.List{Items: items} }

func TestSuffixFor(t *testing.T) {
	tests := []struct {
		name string
		node tree.Node
		fm   FloatMode
		want string
	}{
		{"integer", tree.NewInt(3), Float, "_i"},
		{"integer list", list(tree.NewInt(1), tree.NewInt(2)), Float, "_is"},
		{"float", tree.NewDecimal(1.5), Float, "_f"},
		{"double", tree.NewDecimal(1.5), Double, "_d"},
		{"float list", list(tree.NewDecimal(1), tree.NewDecimal(2)), Float, "_fs"},
		{"double list", list(tree.NewDecimal(1)), Double, "_ds"},
		{"date", tree.NewDate(time.Now()), Float, "_dt"},
		{"date list", list(tree.NewDate(time.Now())), Float, "_dts"},
		{"boolean", tree.NewBool(true), Float, "_b"},
		{"boolean list", list(tree.NewBool(true), tree.NewBool(false)), Float, "_bs"},
		{"declared text", tree.NewText("short"), Float, "_t"},
		{"text list", list(tree.NewText("a")), Float, "_t"},
		{"short string", tree.NewString(strings.Repeat("x", 154)), Float, "_s"},
		{"255 chars", tree.NewString(strings.Repeat("x", 255)), Float, "_s"},
		{"256 chars", tree.NewString(strings.Repeat("x", 256)), Float, "_t"},
		{"long string", tree.NewString(strings.Repeat("x", 300)), Float, "_t"},
		{"string list", list(tree.NewString("a"), tree.NewString("b")), Float, "_ss"},
		{"long string list", list(tree.NewString("a"), tree.NewString(strings.Repeat("y", 300))), Float, "_t"},
		{"mixed list", list(tree.NewInt(1), tree.NewString("a"), tree.NewBool(true)), Float, "_ss"},
		{"empty list", list(), Float, "_ss"},
		{"object", &tree.Object{Name: "o"}, Float, "_s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuffixFor(tt.node, tt.fm))
		})
	}
}

func TestClassifyMulti(t *testing.T) {
	base, multi := Classify(list(tree.NewInt(1), tree.NewInt(2)))
	assert.Equal(t, tree.Integer, base)
	assert.True(t, multi)

	base, multi = Classify(tree.NewInt(1))
	assert.Equal(t, tree.Integer, base)
	assert.False(t, multi)

	base, _ = Classify(list(tree.NewInt(1), tree.NewDecimal(2)))
	assert.Equal(t, tree.String, base)
}

func TestValue(t *testing.T) {
	at := time.Date(2021, 6, 7, 8, 9, 10, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "2021-06-07T07:09:10Z", Value(tree.NewDate(at)))
	assert.Equal(t, "30", Value(tree.NewInt(30)))
	assert.Equal(t, "2.5", Value(tree.NewDecimal(2.5)))
	assert.Equal(t, "true", Value(tree.NewBool(true)))
	assert.Equal(t, `{"a":1}`, Value(&tree.Object{Members: []tree.Member{{Name: "a", Node: tree.NewInt(1)}}}))
	assert.Equal(t, []string{"1", "x"}, Values(list(tree.NewInt(1), tree.NewString("x"))))
}
