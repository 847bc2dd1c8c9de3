package mapper

import (
	"testing"

	"github.com/agentic-research/docmap/api"
	"github.com/agentic-research/docmap/internal/doc"
	"github.com/agentic-research/docmap/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMapper(t *testing.T, mappings ...api.FieldMapping) *Mapper {
	t.Helper()
	rules, err := Compile(mappings)
	require.NoError(t, err)
	return New(rules, Options{})
}

func parse(t *testing.T, s string) *tree.Object {
	t.Helper()
	root, err := tree.ParseJSON(s)
	require.NoError(t, err)
	return root
}

func TestMapFieldAndDynamic(t *testing.T) {
	m := newMapper(t, api.FieldMapping{InputPath: "name", TargetField: "full_name", Mode: api.ModeField})
	target := doc.New("p1")

	res := m.Map(parse(t, `{"name":"Alice","age":30}`), target)

	assert.Empty(t, res.Children)
	assert.Equal(t, []any{"Alice"}, target.Values("full_name"))
	assert.Equal(t, []any{"30"}, target.Values("age_i"))
	assert.False(t, target.Has("name_s"))
	assert.Equal(t, []string{"full_name", "age_i"}, target.Names())
}

func TestMapExclusivity(t *testing.T) {
	m := newMapper(t,
		api.FieldMapping{InputPath: "/title", TargetField: "title_txt", Mode: api.ModeField},
		api.FieldMapping{InputPath: "meta", TargetField: "meta_json", Mode: api.ModeJSONString},
		api.FieldMapping{InputPath: "parts", TargetField: "parts", Mode: api.ModeNestedObject},
	)
	target := doc.New("p")
	m.Map(parse(t, `{"title":"T","meta":{"k":"v"},"parts":[{"n":1}],"tags":["a","b"]}`), target)

	assert.Equal(t, []string{"title_txt", "meta_json", "parts", "tags_ss"}, target.Names())
	assert.Equal(t, []any{`{"k":"v"}`}, target.Values("meta_json"))
}

func TestMapLinkedObjects(t *testing.T) {
	m := newMapper(t,
		api.FieldMapping{
			InputPath:        "authors",
			TargetField:      "kind_s",
			Mode:             api.ModeLinkedObject,
			ParentIDField:    "id",
			CopyParentFields: []string{"source_s"},
			InnerMappings:    []api.InnerMapping{{InputPath: "name", TargetField: "author_name"}},
		},
		api.FieldMapping{InputPath: "publisher", Mode: api.ModeLinkedObject},
	)
	target := doc.New("P")
	target.Add("source_s", "feed", "mirror")

	res := m.Map(parse(t, `{"authors":[{"name":"A","n":1},{"name":"B","n":2},"stray"],"publisher":{"name":"Pub"}}`), target)

	require.Len(t, res.Children, 3)
	ids := []string{res.Children[0].ID, res.Children[1].ID, res.Children[2].ID}
	assert.Equal(t, []string{"P#0", "P#1", "P#2"}, ids, "counter shared across linked rules")

	first := res.Children[0]
	assert.Equal(t, []any{"A"}, first.Values("author_name"))
	assert.Equal(t, []any{"1"}, first.Values("n_i"))
	assert.False(t, first.Has("name_s"))
	assert.Equal(t, []any{"P"}, first.Values(DefaultParentIDFieldName))
	assert.Equal(t, []any{"feed", "mirror"}, first.Values("source_s"))
	assert.Equal(t, []any{"authors"}, first.Values("kind_s"))

	pub := res.Children[2]
	assert.Equal(t, []any{"Pub"}, pub.Values("name_s"))
	assert.False(t, pub.Has(DefaultParentIDFieldName))

	// linked paths are not excluded from the parent's dynamic fields
	assert.True(t, target.Has("authors_ss"))
	assert.True(t, target.Has("publisher_s"))
}

func TestMapLinkedChildIDsInSourceOrder(t *testing.T) {
	m := newMapper(t, api.FieldMapping{InputPath: "items", Mode: api.ModeLinkedObject})
	res := m.Map(parse(t, `{"items":[{"a":0},{"a":1},{"a":2},{"a":3},{"a":4}]}`), doc.New("X"))

	require.Len(t, res.Children, 5)
	for i, c := range res.Children {
		assert.Equal(t, doc.ChildID("X", i), c.ID)
		assert.Equal(t, []any{string(rune('0' + i))}, c.Values("a_i"))
	}
}

func TestMapNestedObjects(t *testing.T) {
	m := newMapper(t, api.FieldMapping{
		InputPath:     "lines",
		TargetField:   "_childDocuments_",
		Mode:          api.ModeNestedObject,
		ParentIDField: "sku_s",
	})
	target := doc.New("order-1")
	target.Add("sku_s", "S-1")

	res := m.Map(parse(t, `{"lines":[{"qty":2},{"qty":3}]}`), target)

	assert.Empty(t, res.Children, "nested children are never emitted")
	kids := target.Children("_childDocuments_")
	require.Len(t, kids, 2)
	assert.Empty(t, kids[0].ID)
	assert.Equal(t, []any{"2"}, kids[0].Values("qty_i"))
	assert.Equal(t, []any{"S-1"}, kids[1].Values(DefaultParentIDFieldName))
	assert.False(t, target.Has("lines_ss"))
}

func TestMapShapeMismatchSkipsRule(t *testing.T) {
	m := newMapper(t,
		api.FieldMapping{InputPath: "name", Mode: api.ModeLinkedObject},
		api.FieldMapping{InputPath: "count", TargetField: "nested", Mode: api.ModeNestedObject},
		api.FieldMapping{InputPath: "missing", TargetField: "x", Mode: api.ModeField},
	)
	target := doc.New("p")
	res := m.Map(parse(t, `{"name":"n","count":3}`), target)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, "name", res.Skipped[0].Path)
	assert.Equal(t, "scalar", res.Skipped[0].Got)
	assert.Empty(t, res.Children)
	// skipped paths are not marked, so they still become dynamic fields
	assert.Equal(t, []any{"n"}, target.Values("name_s"))
	assert.Equal(t, []any{"3"}, target.Values("count_i"))
	assert.False(t, target.Has("x"))
	assert.False(t, target.Has("nested"))
}

func TestMapListFieldIsMultiValued(t *testing.T) {
	m := newMapper(t, api.FieldMapping{InputPath: "nums", TargetField: "n", Mode: api.ModeField})
	target := doc.New("p")
	m.Map(parse(t, `{"nums":[1,2,3]}`), target)
	assert.Equal(t, []any{"1", "2", "3"}, target.Values("n"))
}

func TestFallbackIdempotent(t *testing.T) {
	m := newMapper(t)
	root := parse(t, `{"a":1,"b":["x","y"],"c":{"d":true},"e":"2020-01-02T03:04:05Z"}`)
	mapped := map[string]bool{"a": true}

	target := doc.New("p")
	m.Fallback(root, target, mapped)
	once := target.Fields()
	m.Fallback(root, target, mapped)

	assert.Equal(t, once, target.Fields())
	assert.Equal(t, []string{"b_ss", "c_s", "e_dt"}, target.Names())
	assert.Equal(t, []any{"2020-01-02T03:04:05Z"}, target.Values("e_dt"))
}

func TestFallbackKeepsCollidingFields(t *testing.T) {
	m := newMapper(t, api.FieldMapping{InputPath: "headline", TargetField: "title_s", Mode: api.ModeField})
	root := parse(t, `{"headline":"Hello","title":"World","source":"api"}`)
	target := doc.New("p")
	target.Add("source_s", "crawler")

	m.Map(root, target)
	assert.Equal(t, []any{"Hello", "World"}, target.Values("title_s"))
	assert.Equal(t, []any{"crawler", "api"}, target.Values("source_s"))

	once := target.Fields()
	m.Fallback(root, target, map[string]bool{"headline": true})
	assert.Equal(t, once, target.Fields())
}

func TestMaterializeKeepsInnerMappingOnCollision(t *testing.T) {
	m := newMapper(t, api.FieldMapping{
		InputPath:     "lines",
		TargetField:   "children",
		Mode:          api.ModeNestedObject,
		InnerMappings: []api.InnerMapping{{InputPath: "label", TargetField: "sku_s"}},
	})
	target := doc.New("o")
	m.Map(parse(t, `{"lines":[{"label":"L1","sku":"A-1"}]}`), target)

	kids := target.Children("children")
	require.Len(t, kids, 1)
	assert.Equal(t, []any{"L1", "A-1"}, kids[0].Values("sku_s"))
}

func TestParentIDFieldIgnoresEmbeddedChildren(t *testing.T) {
	m := newMapper(t,
		api.FieldMapping{InputPath: "lines", TargetField: "kids", Mode: api.ModeNestedObject},
		api.FieldMapping{InputPath: "notes", Mode: api.ModeLinkedObject, ParentIDField: "kids"},
	)
	res := m.Map(parse(t, `{"lines":[{"a":1}],"notes":[{"b":2}]}`), doc.New("o"))

	require.Len(t, res.Children, 1)
	assert.False(t, res.Children[0].Has(DefaultParentIDFieldName))
}

func TestFallbackSkipsIntrinsic(t *testing.T) {
	root, err := tree.ParseXML(`<r xmlns="urn:x" a="1"><b>t</b></r>`)
	require.NoError(t, err)
	target := doc.New("p")
	newMapper(t).Fallback(root, target, nil)
	assert.Equal(t, []string{"a_s", "b_s"}, target.Names())
}

func TestDoubleFloatMode(t *testing.T) {
	m := New(nil, Options{FloatMode: "double"})
	target := doc.New("p")
	m.Map(parse(t, `{"price":9.5}`), target)
	assert.Equal(t, []any{"9.5"}, target.Values("price_d"))
}

func TestMapperConcurrentUse(t *testing.T) {
	m := newMapper(t, api.FieldMapping{InputPath: "items", Mode: api.ModeLinkedObject})
	done := make(chan []string, 8)
	for w := 0; w < 8; w++ {
		go func() {
			res := m.Map(parse(t, `{"items":[{"a":1},{"a":2}]}`), doc.New("P"))
			ids := make([]string, 0, len(res.Children))
			for _, c := range res.Children {
				ids = append(ids, c.ID)
			}
			done <- ids
		}()
	}
	for w := 0; w < 8; w++ {
		assert.Equal(t, []string{"P#0", "P#1"}, <-done)
	}
}

func TestCompileRejectsUnknownMode(t *testing.T) {
	_, err := Compile([]api.FieldMapping{{InputPath: "a", Mode: "sideways"}})
	assert.Error(t, err)
}
