// Package relation composes the catalog adapter, ATT builder, schema
// mapper and row producer into a relational view over one or more input
// files. The relation resolves a tree per file, exposes a single merged
// schema discovered from the first file, and produces one row producer
// per file for a scan, enabling per-file parallelism by an external
// scheduler.
package relation

import (
	"context"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/treescan/pkg/att"
	"github.com/ajitpratap0/treescan/pkg/config"
	"github.com/ajitpratap0/treescan/pkg/errors"
	"github.com/ajitpratap0/treescan/pkg/logger"
	"github.com/ajitpratap0/treescan/pkg/metrics"
	"github.com/ajitpratap0/treescan/pkg/rio"
	"github.com/ajitpratap0/treescan/pkg/row"
	"github.com/ajitpratap0/treescan/pkg/schema"
	"github.com/ajitpratap0/treescan/pkg/streamer"
)

// Predicate is a filter pushed down by the host query engine. Predicates
// are accepted as part of the scan contract but are not evaluated here;
// row-level filtering remains the host engine's responsibility.
type Predicate struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  any    `json:"value"`
}

// Relation exposes a set of files as a single relational source.
type Relation struct {
	cfg       *config.BaseConfig
	paths     []string
	mapper    *schema.Mapper
	collector *metrics.Collector
	logger    *zap.Logger

	schemaOnce sync.Once
	schema     *arrow.Schema
	schemaErr  error
}

// New creates a relation from a validated configuration. The source
// path is enumerated eagerly (a missing path or an empty file set is a
// fatal configuration error); schema discovery is deferred until the
// first Schema or Scan call.
func New(ctx context.Context, cfg *config.BaseConfig) (*Relation, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	paths, err := rio.ListFiles(cfg.Source.Path, cfg.Source.Extension)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "no input files found").
			WithDetail("path", cfg.Source.Path).
			WithDetail("extension", cfg.Source.Extension)
	}

	r := &Relation{
		cfg:    cfg,
		paths:  paths,
		mapper: schema.NewMapper(),
		logger: logger.Get().With(
			zap.String("component", "relation"),
			zap.String("relation", cfg.Name),
		),
	}
	if cfg.Observability.EnableMetrics {
		r.collector = metrics.NewCollector(cfg.Name)
	}

	r.logger.Info("relation created",
		zap.String("path", cfg.Source.Path),
		zap.Int("files", len(paths)))
	return r, nil
}

// Files returns the enumerated input file paths in scan order.
func (r *Relation) Files() []string {
	return r.paths
}

// Schema returns the relation's schema, discovered lazily from the
// first input file and memoized. Later files are not verified up
// front; a structural disagreement surfaces as a schema_mismatch error
// when that file is scanned.
func (r *Relation) Schema(ctx context.Context) (*arrow.Schema, error) {
	r.schemaOnce.Do(func() {
		r.schema, r.schemaErr = r.discover(ctx)
	})
	return r.schema, r.schemaErr
}

// discover builds the full (unpruned) schema from the first file.
func (r *Relation) discover(ctx context.Context) (*arrow.Schema, error) {
	path := r.paths[0]

	h, err := rio.Open(path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	cat, err := streamer.Load(h)
	if err != nil {
		return nil, err
	}

	tree, err := r.resolveTree(h)
	if err != nil {
		return nil, err
	}

	plan, err := att.Build(tree, cat, nil)
	if err != nil {
		return nil, err
	}

	s := r.mapper.MapCached(cat, plan, nil)
	if r.collector != nil {
		visible := 0
		for _, root := range plan.Roots {
			if !root.Hidden {
				visible++
			}
		}
		for i := s.NumFields(); i < visible; i++ {
			r.collector.ColumnDropped()
		}
	}
	r.logger.Info("schema discovered",
		zap.String("file", path),
		zap.String("tree", tree.Name()),
		zap.Int("columns", s.NumFields()))
	return s, nil
}

// resolveTree finds the configured tree in a file, or the first tree in
// the top-level directory when no name is configured.
func (r *Relation) resolveTree(h rio.FileHandle) (rio.TreeHandle, error) {
	dir := h.TopDirectory()

	if name := r.cfg.Source.Tree; name != "" {
		tree, ok := dir.Tree(name)
		if !ok {
			return nil, errors.NewNoTree(name)
		}
		return tree, nil
	}

	names := dir.TreeNames()
	if len(names) == 0 {
		return nil, errors.NewNoTree("")
	}
	tree, ok := dir.Tree(names[0])
	if !ok {
		return nil, errors.NewNoTree(names[0])
	}
	return tree, nil
}

// Scan prepares one FileScan per input file for the requested columns.
// An empty column set selects all columns. Filters are accepted but not
// evaluated. Scan fails when schema discovery on the first file fails.
func (r *Relation) Scan(ctx context.Context, columns []string, filters []Predicate) ([]*FileScan, error) {
	full, err := r.Schema(ctx)
	if err != nil {
		return nil, err
	}

	if len(filters) > 0 {
		r.logger.Debug("filters accepted but not evaluated, delegating to the host engine",
			zap.Int("filters", len(filters)))
	}

	expected := schema.Project(full, columns)
	scans := make([]*FileScan, len(r.paths))
	for i, path := range r.paths {
		scans[i] = &FileScan{
			rel:      r,
			path:     path,
			columns:  columns,
			expected: expected,
		}
	}
	return scans, nil
}

// FileScan is a pending scan of one input file. Opening it builds the
// file's decode plan and row producer; per-file errors (missing tree,
// missing catalog, schema mismatch) surface here without affecting the
// other files of the relation.
type FileScan struct {
	rel      *Relation
	path     string
	columns  []string
	expected *arrow.Schema
}

// Path returns the file this scan covers.
func (fs *FileScan) Path() string {
	return fs.path
}

// Schema returns the schema rows of this scan will follow.
func (fs *FileScan) Schema() *arrow.Schema {
	return fs.expected
}

// Open opens the file and constructs its row producer. The producer
// owns the file handle. The file's resolved structure must match the
// relation's discovered schema exactly; otherwise Open fails fast with
// a schema_mismatch error rather than coercing values.
func (fs *FileScan) Open(ctx context.Context) (*row.Producer, error) {
	h, err := rio.Open(fs.path)
	if err != nil {
		return nil, err
	}

	p, err := fs.open(h)
	if err != nil {
		h.Close()
		if fs.rel.collector != nil {
			fs.rel.collector.FileScanned("error")
		}
		return nil, err
	}
	return p, nil
}

func (fs *FileScan) open(h rio.FileHandle) (*row.Producer, error) {
	cat, err := streamer.Load(h)
	if err != nil {
		return nil, err
	}

	tree, err := fs.rel.resolveTree(h)
	if err != nil {
		return nil, err
	}

	plan, err := att.Build(tree, cat, fs.columns)
	if err != nil {
		return nil, err
	}

	got := fs.rel.mapper.MapCached(cat, plan, fs.columns)
	if !got.Equal(fs.expected) {
		return nil, errors.New(errors.ErrorTypeSchemaMismatch, "file structure disagrees with discovered schema").
			WithDetail("file", fs.path).
			WithDetail("expected", fs.expected.String()).
			WithDetail("got", got.String())
	}

	return row.NewProducer(h, tree, plan, got)
}
