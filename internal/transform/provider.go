package transform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentic-research/docmap/internal/tree"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// ChainExt is appended to chain ids that carry no extension.
const ChainExt = ".yaml"

// FileProvider loads chains from YAML files. Absolute ids are read from the
// host filesystem; other ids are looked up in the provider's filesystem.
type FileProvider struct {
	fs billy.Filesystem
}

// NewFileProvider returns a provider rooted at fs.
func NewFileProvider(fs billy.Filesystem) *FileProvider {
	return &FileProvider{fs: fs}
}

// Transforms loads and parses the chain named id.
func (p *FileProvider) Transforms(id string) ([]Transform, error) {
	var (
		data []byte
		err  error
	)
	if filepath.IsAbs(id) {
		data, err = os.ReadFile(id)
	} else {
		name := id
		if filepath.Ext(name) == "" {
			name += ChainExt
		}
		data, err = util.ReadFile(p.fs, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load transform chain %q: %w", id, err)
	}
	ts, err := ParseChain(data)
	if err != nil {
		return nil, fmt.Errorf("transform chain %q: %w", id, err)
	}
	return ts, nil
}

type chainFile struct {
	Transforms []opSpec `yaml:"transforms"`
}

type opSpec struct {
	Op    string `yaml:"op"`
	Path  string `yaml:"path"`
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Value string `yaml:"value"`
}

// ParseChain decodes a YAML chain definition.
func ParseChain(data []byte) ([]Transform, error) {
	var cf chainFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	ts := make([]Transform, 0, len(cf.Transforms))
	for i, entry := range cf.Transforms {
		t, err := entry.build()
		if err != nil {
			return nil, fmt.Errorf("transform %d (%s): %w", i, entry.Op, err)
		}
		ts = append(ts, t)
	}
	return ts, nil
}

func (s opSpec) build() (Transform, error) {
	switch s.Op {
	case "rename":
		from, err := tree.CompilePath(s.From)
		if err != nil {
			return nil, err
		}
		to, err := tree.CompilePath(s.To)
		if err != nil {
			return nil, err
		}
		return Rename{From: from, To: to}, nil
	case "remove", "set", "lowercase", "require":
		p, err := tree.CompilePath(s.Path)
		if err != nil {
			return nil, err
		}
		switch s.Op {
		case "remove":
			return Remove{Path: p}, nil
		case "set":
			return Set{Path: p, Value: s.Value}, nil
		case "lowercase":
			return Lowercase{Path: p}, nil
		}
		return Require{Path: p}, nil
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}
