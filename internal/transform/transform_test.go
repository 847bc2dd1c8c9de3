package transform

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/agentic-research/docmap/internal/tree"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainYAML = `
transforms:
  - op: rename
    from: user.name
    to: author
  - op: lowercase
    path: tags
  - op: require
    path: title
  - op: set
    path: meta.source
    value: feed
  - op: remove
    path: user
`

func parse(t *testing.T, s string) *tree.Object {
	t.Helper()
	root, err := tree.ParseJSON(s)
	require.NoError(t, err)
	return root
}

func TestRunChain(t *testing.T) {
	ts, err := ParseChain([]byte(chainYAML))
	require.NoError(t, err)
	require.Len(t, ts, 5)

	in := parse(t, `{"user":{"name":"Ann","age":3},"tags":["A","b"],"meta":{}}`)
	out, err := Run(in, ts)

	var chain *ChainError
	require.True(t, errors.As(err, &chain))
	require.Len(t, chain.Errors, 1)
	assert.Equal(t, "require(title)", chain.Errors[0].Transform)
	assert.ErrorIs(t, err, errMissing)

	assert.Equal(t, `{"tags":["a","b"],"meta":{"source":"feed"},"author":"Ann"}`, tree.JSON(out))
	assert.Equal(t, `{"user":{"name":"Ann","age":3},"tags":["A","b"],"meta":{}}`, tree.JSON(in), "input untouched")
}

func TestRunJoinsMessages(t *testing.T) {
	ts := []Transform{
		Require{Path: tree.MustCompilePath("a")},
		Lowercase{Path: tree.MustCompilePath("n")},
		Set{Path: tree.MustCompilePath("ok"), Value: "yes"},
	}
	out, err := Run(parse(t, `{"n":5}`), ts)
	require.Error(t, err)
	assert.Equal(t, "transform require(a): path not found; transform lowercase(n): value is not a string", err.Error())
	assert.Equal(t, `{"n":5,"ok":"yes"}`, tree.JSON(out), "later transforms still run")
}

func TestRunClean(t *testing.T) {
	in := parse(t, `{"a":"X"}`)
	out, err := Run(in, []Transform{Lowercase{Path: tree.MustCompilePath("a")}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x"}`, tree.JSON(out))
}

func TestParseChainErrors(t *testing.T) {
	_, err := ParseChain([]byte("transforms:\n  - op: explode\n"))
	assert.ErrorContains(t, err, "unknown op")

	_, err = ParseChain([]byte("transforms: [\n"))
	assert.Error(t, err)
}

func TestFileProvider(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "clean.yaml", []byte(chainYAML), 0o644))
	p := NewFileProvider(fs)

	ts, err := p.Transforms("clean")
	require.NoError(t, err)
	assert.Len(t, ts, 5)

	ts, err = p.Transforms("clean.yaml")
	require.NoError(t, err)
	assert.Len(t, ts, 5)

	_, err = p.Transforms("missing")
	assert.Error(t, err)

	abs := filepath.Join(t.TempDir(), "abs.yaml")
	require.NoError(t, os.WriteFile(abs, []byte("transforms:\n  - op: remove\n    path: x\n"), 0o644))
	ts, err = p.Transforms(abs)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, "remove(x)", ts[0].Name())
}

type countingProvider struct {
	calls atomic.Int32
	fail  bool
}

func (p *countingProvider) Transforms(id string) ([]Transform, error) {
	p.calls.Add(1)
	if p.fail {
		return nil, errors.New("boom")
	}
	return []Transform{Require{Path: tree.MustCompilePath(id)}}, nil
}

func TestCacheBuildsOnce(t *testing.T) {
	p := &countingProvider{}
	c := NewCache(p)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts, err := c.Get("chain")
			assert.NoError(t, err)
			assert.Len(t, ts, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), p.calls.Load())

	ts, err := c.Get("")
	assert.NoError(t, err)
	assert.Nil(t, ts)
}

func TestCacheRetriesFailures(t *testing.T) {
	p := &countingProvider{fail: true}
	c := NewCache(p)

	_, err := c.Get("x")
	assert.Error(t, err)
	_, err = c.Get("x")
	assert.Error(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
}
