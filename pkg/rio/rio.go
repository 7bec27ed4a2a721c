// Package rio defines the contract between Treescan and the binary file
// reader it consumes. The reader owns byte-level access to the
// self-describing columnar files; Treescan only sees directories, trees,
// branches and streamer metadata through the interfaces below.
//
// Implementations register an Opener (see RegisterOpener) so that
// relations can resolve plain file paths. The riotest subpackage ships an
// in-memory implementation used throughout the test suite.
package rio

import (
	"sync"

	"github.com/ajitpratap0/treescan/pkg/errors"
)

// StreamerClass describes the field layout of one class as recorded in
// the file's streamer metadata.
type StreamerClass struct {
	// Name is the class name the streamer describes
	Name string
	// Fields lists the class members in declaration order
	Fields []StreamerField
}

// StreamerField describes a single class member.
type StreamerField struct {
	// Name is the member identifier
	Name string
	// TypeName is the declared type using the reader's grammar:
	// a scalar name ("int32_t", "Float_t", ...), "T[N]" for a fixed
	// array, "T[counter]" for a counter-sized array, "vector<T>" for a
	// size-prefixed collection, or another class name
	TypeName string
}

// FileHandle is an open input file.
type FileHandle interface {
	// Path returns the path the file was opened from
	Path() string
	// TopDirectory returns the file's top-level directory
	TopDirectory() Directory
	// StreamerInfo returns the file's streamer metadata. It fails when
	// the file lacks a decodable metadata section.
	StreamerInfo() ([]StreamerClass, error)
	// Close releases the file
	Close() error
}

// Directory is a directory inside a file.
type Directory interface {
	// TreeNames lists the trees in this directory in storage order
	TreeNames() []string
	// Tree looks up a tree by name
	Tree(name string) (TreeHandle, bool)
}

// TreeHandle is a tree inside a directory.
type TreeHandle interface {
	// Name returns the tree name
	Name() string
	// Entries returns the number of entries in the tree
	Entries() int64
	// BranchNames lists the top-level branches in declaration order
	BranchNames() []string
	// Branch looks up a top-level branch by name
	Branch(name string) (BranchHandle, bool)
}

// BranchHandle is a single top-level branch of a tree. Reads are
// sequential per producer; implementations may buffer accordingly but
// must not assume shared access.
type BranchHandle interface {
	// Name returns the branch name
	Name() string
	// TypeName returns the branch's declared type using the streamer
	// field grammar
	TypeName() string
	// ReadEntry returns the decompressed big-endian payload of the
	// branch at the given entry
	ReadEntry(entry int64) ([]byte, error)
}

// Opener opens a file path. Openers return (nil, false, nil) when the
// path is not theirs to handle so the next registered opener is tried.
type Opener func(path string) (FileHandle, bool, error)

var (
	openersMu sync.RWMutex
	openers   []Opener
)

// RegisterOpener registers a file opener. Openers are consulted in
// registration order.
func RegisterOpener(o Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers = append(openers, o)
}

// Open opens a file through the registered openers.
func Open(path string) (FileHandle, error) {
	openersMu.RLock()
	defer openersMu.RUnlock()

	for _, o := range openers {
		h, ok, err := o(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file")
		}
		if ok {
			return h, nil
		}
	}
	return nil, errors.New(errors.ErrorTypeFile, "no reader registered for file").WithDetail("path", path)
}
