package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	input := `
{
  "users": [
    {"name": "Alice", "role": "admin"},
    {"name": "Bob", "role": "user"}
  ],
  "meta": {
    "version": "1.0"
  }
}
`
	root, err := ParseJSON(input)
	require.NoError(t, err)

	t.Run("select list of objects", func(t *testing.T) {
		n, ok := Resolve(root, "users")
		require.True(t, ok)
		l, ok := n.(*List)
		require.True(t, ok)
		assert.Len(t, l.Items, 2)
	})

	t.Run("select single object", func(t *testing.T) {
		n, ok := Resolve(root, "$.meta")
		require.True(t, ok)
		o, ok := n.(*Object)
		require.True(t, ok)
		assert.Equal(t, "meta", o.Name)
	})

	t.Run("dotted and slash forms agree", func(t *testing.T) {
		for _, p := range []string{"meta.version", "/meta/version", "meta/version", "$.meta.version"} {
			n, ok := Resolve(root, p)
			require.True(t, ok, p)
			assert.Equal(t, "1.0", n.(*Scalar).Text(), p)
		}
	})

	t.Run("list index", func(t *testing.T) {
		n, ok := Resolve(root, "users[1].name")
		require.True(t, ok)
		assert.Equal(t, "Bob", n.(*Scalar).Text())

		n, ok = Resolve(root, "/users/0/role")
		require.True(t, ok)
		assert.Equal(t, "admin", n.(*Scalar).Text())
	})

	t.Run("missing segments are absent", func(t *testing.T) {
		for _, p := range []string{"nope", "meta.nope", "users[5].name", "meta.version.deeper", "users.name"} {
			_, ok := Resolve(root, p)
			assert.False(t, ok, p)
		}
	})

	t.Run("wildcards are not supported", func(t *testing.T) {
		_, err := CompilePath("users[*].name")
		assert.Error(t, err)
		_, ok := Resolve(root, "users[*].name")
		assert.False(t, ok)
	})

	t.Run("resolution does not mutate", func(t *testing.T) {
		before := JSON(root)
		_, _ = Resolve(root, "users[0].name")
		_, _ = Resolve(root, "meta.missing")
		assert.Equal(t, before, JSON(root))
	})
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "name", NormalizePath("name"))
	assert.Equal(t, "name", NormalizePath("/name"))
	assert.Equal(t, "name", NormalizePath("$.name"))
	assert.Equal(t, "a.b[2].c", NormalizePath("/a/b/2/c"))
}
