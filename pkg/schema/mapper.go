// Package schema maps an Abstract Schema Tree to a relational schema.
// The relational schema is an Arrow schema: primitives map one-to-one,
// fixed arrays to fixed-size lists, variable arrays to lists, and nested
// classes to struct columns. Unsupported nodes are dropped with a logged
// warning rather than failing schema construction.
package schema

import (
	"sort"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/treescan/pkg/att"
	"github.com/ajitpratap0/treescan/pkg/logger"
	"github.com/ajitpratap0/treescan/pkg/streamer"
)

// Mapper translates ATTs into Arrow schemas and caches results per
// (catalog fingerprint, plan fingerprint, column set). Safe for
// concurrent use.
type Mapper struct {
	mu     sync.RWMutex
	cache  map[cacheKey]*arrow.Schema
	logger *zap.Logger
}

type cacheKey struct {
	catalog uint64
	plan    uint64
	columns string
}

// NewMapper creates a schema mapper.
func NewMapper() *Mapper {
	return &Mapper{
		cache:  make(map[cacheKey]*arrow.Schema),
		logger: logger.Get().With(zap.String("component", "schema_mapper")),
	}
}

// Map translates an ATT into an Arrow schema. Hidden counter nodes never
// surface; unsupported columns are omitted with a warning.
func (m *Mapper) Map(t *att.Tree) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.Roots))
	for _, root := range t.Roots {
		if root.Hidden {
			continue
		}
		field, ok := m.mapNode(root)
		if !ok {
			m.logger.Warn("column dropped from schema",
				zap.String("tree", t.Name),
				zap.String("column", root.Name),
				zap.String("reason", dropReason(root)))
			continue
		}
		fields = append(fields, field)
	}
	return arrow.NewSchema(fields, nil)
}

// MapCached is Map with memoization keyed by the catalog and plan
// fingerprints plus the column set, so files sharing identical structure
// reuse one schema. The plan fingerprint matters: branch types live on
// the tree, not in the catalog, so two files can share streamer metadata
// yet disagree structurally.
func (m *Mapper) MapCached(cat *streamer.Catalog, t *att.Tree, columns []string) *arrow.Schema {
	key := cacheKey{
		catalog: cat.Fingerprint(),
		plan:    t.Fingerprint(),
		columns: columnsKey(columns),
	}

	m.mu.RLock()
	cached, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		return cached
	}

	s := m.Map(t)

	m.mu.Lock()
	m.cache[key] = s
	m.mu.Unlock()
	return s
}

// mapNode translates one ATT node into an Arrow field. The second
// return is false when the node (or a node it depends on) is
// unsupported and the column must be dropped.
func (m *Mapper) mapNode(n *att.Node) (arrow.Field, bool) {
	switch n.Kind {
	case att.KindPrimitive:
		return arrow.Field{Name: n.Name, Type: scalarType(n.Scalar)}, true

	case att.KindFixedArray:
		elem, ok := m.mapNode(n.Elem)
		if !ok {
			return arrow.Field{}, false
		}
		return arrow.Field{Name: n.Name, Type: arrow.FixedSizeListOf(int32(n.Len), elem.Type)}, true

	case att.KindVarArray:
		elem, ok := m.mapNode(n.Elem)
		if !ok {
			return arrow.Field{}, false
		}
		return arrow.Field{Name: n.Name, Type: arrow.ListOf(elem.Type)}, true

	case att.KindStruct:
		children := make([]arrow.Field, 0, len(n.Children))
		for _, c := range n.Children {
			field, ok := m.mapNode(c)
			if !ok {
				return arrow.Field{}, false
			}
			children = append(children, field)
		}
		return arrow.Field{Name: n.Name, Type: arrow.StructOf(children...)}, true

	default:
		return arrow.Field{}, false
	}
}

// Project restricts a schema to the named columns, preserving schema
// order. Names absent from the schema are ignored. Empty columns means
// no projection.
func Project(s *arrow.Schema, columns []string) *arrow.Schema {
	if len(columns) == 0 {
		return s
	}
	selected := make(map[string]bool, len(columns))
	for _, c := range columns {
		selected[c] = true
	}

	fields := make([]arrow.Field, 0, len(columns))
	for _, f := range s.Fields() {
		if selected[f.Name] {
			fields = append(fields, f)
		}
	}
	return arrow.NewSchema(fields, nil)
}

func scalarType(s att.Scalar) arrow.DataType {
	switch s {
	case att.Bool:
		return arrow.FixedWidthTypes.Boolean
	case att.Int8:
		return arrow.PrimitiveTypes.Int8
	case att.Int16:
		return arrow.PrimitiveTypes.Int16
	case att.Int32:
		return arrow.PrimitiveTypes.Int32
	case att.Int64:
		return arrow.PrimitiveTypes.Int64
	case att.Uint8:
		return arrow.PrimitiveTypes.Uint8
	case att.Uint16:
		return arrow.PrimitiveTypes.Uint16
	case att.Uint32:
		return arrow.PrimitiveTypes.Uint32
	case att.Uint64:
		return arrow.PrimitiveTypes.Uint64
	case att.Float32:
		return arrow.PrimitiveTypes.Float32
	case att.Float64:
		return arrow.PrimitiveTypes.Float64
	case att.String:
		return arrow.BinaryTypes.String
	default:
		return arrow.Null
	}
}

func dropReason(n *att.Node) string {
	// The builder lifts unsupported descendants to the top-level node,
	// so the reason is always recorded there.
	if n.Kind == att.KindUnsupported {
		return n.Reason
	}
	return "unsupported type"
}

func columnsKey(columns []string) string {
	if len(columns) == 0 {
		return ""
	}
	sorted := make([]string, len(columns))
	copy(sorted, columns)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
