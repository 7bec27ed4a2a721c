// Package row produces relational rows from a tree, one entry at a
// time, following an ATT decode plan. A Producer is a finite lazy
// iterator: it is restartable only at construction, emits rows in
// strictly increasing entry order, and performs no read-ahead, so
// abandoning it costs nothing beyond closing the file.
package row

import (
	"go.uber.org/zap"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/treescan/pkg/att"
	"github.com/ajitpratap0/treescan/pkg/errors"
	"github.com/ajitpratap0/treescan/pkg/logger"
	"github.com/ajitpratap0/treescan/pkg/rio"
)

// Row is one relational row: column values in schema order. Rows are
// produced fresh per entry; callers that keep values past the next
// Next call must copy them.
type Row []any

// branchState pairs an ATT root with its branch handle.
type branchState struct {
	node   *att.Node
	handle rio.BranchHandle
}

// Producer iterates a single tree entry-by-entry, decoding each
// retained branch's payload into row values. It owns its file handle
// and releases it on Close. Not safe for concurrent use; parallelism
// is achieved by independent producers over independent files.
type Producer struct {
	file   rio.FileHandle
	plan   *att.Tree
	schema *arrow.Schema

	branches   []branchState
	counterRef map[string]bool

	cursor  int64
	entries int64
	closed  bool

	// per-entry scratch, reused across Next calls
	scope  map[string]int64
	values []any
	done   []bool

	logger *zap.Logger
}

// NewProducer creates a producer over one tree. The file handle's
// ownership transfers to the producer.
func NewProducer(file rio.FileHandle, tree rio.TreeHandle, plan *att.Tree, s *arrow.Schema) (*Producer, error) {
	p := &Producer{
		file:       file,
		plan:       plan,
		schema:     s,
		entries:    plan.Entries,
		counterRef: make(map[string]bool),
		scope:      make(map[string]int64),
		logger: logger.Get().With(
			zap.String("component", "row_producer"),
			zap.String("file", file.Path()),
			zap.String("tree", plan.Name),
		),
	}

	for _, root := range plan.Roots {
		if root.Kind == att.KindUnsupported {
			// Dropped from the schema; never decoded.
			continue
		}
		handle, ok := tree.Branch(root.Name)
		if !ok {
			return nil, errors.New(errors.ErrorTypeData, "plan references a branch missing from the tree").
				WithDetail("branch", root.Name)
		}
		p.branches = append(p.branches, branchState{node: root, handle: handle})
		if root.Kind == att.KindVarArray && root.CountRef != "" {
			p.counterRef[root.CountRef] = true
		}
	}

	p.values = make([]any, len(p.branches))
	p.done = make([]bool, len(p.branches))
	return p, nil
}

// Schema returns the producer's relational schema.
func (p *Producer) Schema() *arrow.Schema {
	return p.schema
}

// Entries returns the tree's entry count.
func (p *Producer) Entries() int64 {
	return p.entries
}

// Cursor returns the next entry index to be produced.
func (p *Producer) Cursor() int64 {
	return p.cursor
}

// HasNext reports whether another row remains.
func (p *Producer) HasNext() bool {
	return !p.closed && p.cursor < p.entries
}

// Next decodes the current entry into a row and advances the cursor.
// Calling Next when HasNext is false is a contract violation and fails
// with an exhausted_iterator error.
func (p *Producer) Next() (Row, error) {
	if p.closed {
		return nil, errors.New(errors.ErrorTypeExhausted, "next called on closed producer")
	}
	if p.cursor >= p.entries {
		return nil, errors.New(errors.ErrorTypeExhausted, "next called past the last entry").
			WithDetail("entries", p.entries)
	}

	for name := range p.scope {
		delete(p.scope, name)
	}
	for i := range p.done {
		p.done[i] = false
	}

	// Counter branches first, so leaflist arrays in other branches can
	// be sized regardless of branch declaration order.
	for i, b := range p.branches {
		if !p.counterRef[b.node.Name] {
			continue
		}
		if err := p.decodeBranch(i, b); err != nil {
			return nil, err
		}
	}

	row := make(Row, 0, len(p.branches))
	for i, b := range p.branches {
		if !p.done[i] {
			if err := p.decodeBranch(i, b); err != nil {
				return nil, err
			}
		}
		if !b.node.Hidden {
			row = append(row, p.values[i])
		}
	}

	p.cursor++
	return row, nil
}

// decodeBranch reads and decodes one branch's payload for the current
// entry into p.values[i].
func (p *Producer) decodeBranch(i int, b branchState) error {
	payload, err := b.handle.ReadEntry(p.cursor)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to read branch entry").
			WithDetail("branch", b.node.Name).
			WithDetail("entry", p.cursor)
	}

	r := &reader{buf: payload}
	value, err := decodeNode(r, b.node, p.scope)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to decode branch entry").
			WithDetail("branch", b.node.Name).
			WithDetail("entry", p.cursor)
	}
	if r.remaining() != 0 {
		return errors.New(errors.ErrorTypeData, "trailing bytes in branch payload").
			WithDetail("branch", b.node.Name).
			WithDetail("entry", p.cursor).
			WithDetail("remaining", r.remaining())
	}

	p.values[i] = value
	p.done[i] = true
	return nil
}

// Close releases the underlying file handle. A closed producer yields
// no further rows.
func (p *Producer) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.file.Close(); err != nil {
		p.logger.Warn("failed to close file", zap.Error(err))
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close file")
	}
	return nil
}
