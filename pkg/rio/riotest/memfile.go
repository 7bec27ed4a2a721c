// Package riotest provides an in-memory implementation of the rio
// reader contract. It backs the test suite and serves as a reference
// for reader implementors: files are assembled with a builder API, and
// the package registers an opener with rio so relations can resolve
// registered paths like any other input.
package riotest

import (
	"sync"

	"github.com/ajitpratap0/treescan/pkg/errors"
	"github.com/ajitpratap0/treescan/pkg/rio"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*File)
)

func init() {
	rio.RegisterOpener(func(path string) (rio.FileHandle, bool, error) {
		registryMu.RLock()
		f, ok := registry[path]
		registryMu.RUnlock()
		if !ok {
			return nil, false, nil
		}
		return f, true, nil
	})
}

// Put registers a file under a path so rio.Open can resolve it.
func Put(path string, f *File) {
	f.path = path
	registryMu.Lock()
	registry[path] = f
	registryMu.Unlock()
}

// Delete removes a registered file.
func Delete(path string) {
	registryMu.Lock()
	delete(registry, path)
	registryMu.Unlock()
}

// File is an in-memory input file.
type File struct {
	path        string
	streamers   []rio.StreamerClass
	noStreamers bool
	trees       []*Tree
}

// NewFile creates an empty in-memory file.
func NewFile() *File {
	return &File{}
}

// WithStreamers sets the file's streamer metadata.
func (f *File) WithStreamers(classes ...rio.StreamerClass) *File {
	f.streamers = classes
	return f
}

// WithoutStreamers marks the file as lacking a metadata section, so
// StreamerInfo fails.
func (f *File) WithoutStreamers() *File {
	f.noStreamers = true
	return f
}

// AddTree appends a tree to the file's top-level directory.
func (f *File) AddTree(t *Tree) *File {
	f.trees = append(f.trees, t)
	return f
}

// Path implements rio.FileHandle.
func (f *File) Path() string {
	return f.path
}

// TopDirectory implements rio.FileHandle.
func (f *File) TopDirectory() rio.Directory {
	return (*directory)(f)
}

// StreamerInfo implements rio.FileHandle.
func (f *File) StreamerInfo() ([]rio.StreamerClass, error) {
	if f.noStreamers {
		return nil, errors.New(errors.ErrorTypeFile, "file has no streamer metadata section")
	}
	return f.streamers, nil
}

// Close implements rio.FileHandle.
func (f *File) Close() error {
	return nil
}

type directory File

func (d *directory) TreeNames() []string {
	names := make([]string, len(d.trees))
	for i, t := range d.trees {
		names[i] = t.name
	}
	return names
}

func (d *directory) Tree(name string) (rio.TreeHandle, bool) {
	for _, t := range d.trees {
		if t.name == name {
			return t, true
		}
	}
	return nil, false
}

// Tree is an in-memory tree.
type Tree struct {
	name     string
	entries  int64
	branches []*Branch
}

// NewTree creates a tree with the given name and entry count.
func NewTree(name string, entries int64) *Tree {
	return &Tree{name: name, entries: entries}
}

// AddBranch appends a branch holding one payload per entry.
func (t *Tree) AddBranch(name, typeName string, payloads ...[]byte) *Tree {
	t.branches = append(t.branches, &Branch{
		name:     name,
		typeName: typeName,
		payloads: payloads,
	})
	return t
}

// AddCompressedBranch appends a branch whose payloads are stored
// compressed with the given algorithm and decompressed on read.
func (t *Tree) AddCompressedBranch(name, typeName string, alg rio.Algorithm, payloads ...[]byte) (*Tree, error) {
	stored := make([][]byte, len(payloads))
	for i, p := range payloads {
		c, err := rio.Compress(alg, p)
		if err != nil {
			return nil, err
		}
		stored[i] = c
	}
	t.branches = append(t.branches, &Branch{
		name:     name,
		typeName: typeName,
		payloads: stored,
	})
	return t, nil
}

// Name implements rio.TreeHandle.
func (t *Tree) Name() string {
	return t.name
}

// Entries implements rio.TreeHandle.
func (t *Tree) Entries() int64 {
	return t.entries
}

// BranchNames implements rio.TreeHandle.
func (t *Tree) BranchNames() []string {
	names := make([]string, len(t.branches))
	for i, b := range t.branches {
		names[i] = b.name
	}
	return names
}

// Branch implements rio.TreeHandle.
func (t *Tree) Branch(name string) (rio.BranchHandle, bool) {
	for _, b := range t.branches {
		if b.name == name {
			return b, true
		}
	}
	return nil, false
}

// Branch is an in-memory branch.
type Branch struct {
	name     string
	typeName string
	payloads [][]byte
}

// Name implements rio.BranchHandle.
func (b *Branch) Name() string {
	return b.name
}

// TypeName implements rio.BranchHandle.
func (b *Branch) TypeName() string {
	return b.typeName
}

// ReadEntry implements rio.BranchHandle.
func (b *Branch) ReadEntry(entry int64) ([]byte, error) {
	if entry < 0 || entry >= int64(len(b.payloads)) {
		return nil, errors.New(errors.ErrorTypeData, "entry out of range").
			WithDetail("branch", b.name).
			WithDetail("entry", entry)
	}
	return rio.Decompress(b.payloads[entry])
}
