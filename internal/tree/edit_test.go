package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdit(t *testing.T) {
	root, err := ParseJSON(`{"a":{"b":"x","c":"y"},"d":1}`)
	require.NoError(t, err)
	before := JSON(root)

	t.Run("replace leaf shares untouched subtrees", func(t *testing.T) {
		out, err := Edit(root, MustCompilePath("a.b"), func(cur Node, ok bool) (Node, bool) {
			require.True(t, ok)
			return NewString("X"), true
		})
		require.NoError(t, err)
		assert.Equal(t, `{"a":{"b":"X","c":"y"},"d":1}`, JSON(out))
		assert.Equal(t, before, JSON(root))

		d1, _ := root.Get("d")
		d2, _ := out.Get("d")
		assert.Same(t, d1, d2)
	})

	t.Run("remove member", func(t *testing.T) {
		out, err := Edit(root, MustCompilePath("a.c"), func(Node, bool) (Node, bool) { return nil, false })
		require.NoError(t, err)
		assert.Equal(t, `{"a":{"b":"x"},"d":1}`, JSON(out))
	})

	t.Run("create missing objects", func(t *testing.T) {
		out, err := Edit(root, MustCompilePath("/e/f"), func(_ Node, ok bool) (Node, bool) {
			assert.False(t, ok)
			return NewBool(true), true
		})
		require.NoError(t, err)
		assert.Equal(t, `{"a":{"b":"x","c":"y"},"d":1,"e":{"f":true}}`, JSON(out))
	})

	t.Run("removing an absent member is a no-op", func(t *testing.T) {
		out, err := Edit(root, MustCompilePath("zz"), func(Node, bool) (Node, bool) { return nil, false })
		require.NoError(t, err)
		assert.Same(t, root, out)
	})

	t.Run("index steps rejected", func(t *testing.T) {
		_, err := Edit(root, MustCompilePath("a[0]"), func(Node, bool) (Node, bool) { return nil, false })
		assert.Error(t, err)
	})
}

func TestSibling(t *testing.T) {
	assert.Equal(t, "a.z", MustCompilePath("a.b").Sibling("z").Key())
	assert.Equal(t, "z", MustCompilePath("b").Sibling("z").Key())
}

func TestObjectAddFoldsDuplicates(t *testing.T) {
	o := &Object{}
	o.Add("k", NewString("1"))
	o.Add("k", NewString("2"))
	o.Add("k", NewString("3"))
	require.Len(t, o.Members, 1)
	l, ok := o.Members[0].Node.(*List)
	require.True(t, ok)
	assert.Len(t, l.Items, 3)
}
