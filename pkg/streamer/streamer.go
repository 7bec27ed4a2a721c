// Package streamer adapts a file's embedded streamer metadata into an
// immutable catalog mapping class names to their field layouts. The
// catalog is the type authority for ATT construction: every nested class
// a branch declares is expanded through it.
package streamer

import (
	"hash/fnv"

	"github.com/ajitpratap0/treescan/pkg/errors"
	"github.com/ajitpratap0/treescan/pkg/rio"
)

// Field describes one member of a class.
type Field struct {
	// Name is the member identifier
	Name string
	// TypeName is the declared type (see rio.StreamerField)
	TypeName string
}

// Class describes the ordered field layout of one class.
type Class struct {
	// Name is the class name
	Name string
	// Fields lists the members in declaration order
	Fields []Field
}

// Catalog maps class names to their streamer descriptions. It is
// immutable once loaded; many trees and files may share one catalog.
type Catalog struct {
	classes     map[string]Class
	order       []string
	fingerprint uint64
}

// Load reads the streamer metadata of an open file. It fails with a
// catalog_unavailable error when the file lacks a decodable metadata
// section.
func Load(h rio.FileHandle) (*Catalog, error) {
	classes, err := h.StreamerInfo()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCatalog, "file has no decodable streamer metadata")
	}
	return NewCatalog(classes), nil
}

// NewCatalog builds a catalog from raw streamer classes. Later
// duplicates replace earlier ones.
func NewCatalog(classes []rio.StreamerClass) *Catalog {
	c := &Catalog{classes: make(map[string]Class, len(classes))}
	for _, sc := range classes {
		fields := make([]Field, len(sc.Fields))
		for i, f := range sc.Fields {
			fields[i] = Field{Name: f.Name, TypeName: f.TypeName}
		}
		if _, seen := c.classes[sc.Name]; !seen {
			c.order = append(c.order, sc.Name)
		}
		c.classes[sc.Name] = Class{Name: sc.Name, Fields: fields}
	}
	c.fingerprint = c.computeFingerprint()
	return c
}

// Class looks up a class description by name.
func (c *Catalog) Class(name string) (Class, bool) {
	cls, ok := c.classes[name]
	return cls, ok
}

// Len returns the number of classes in the catalog.
func (c *Catalog) Len() int {
	return len(c.order)
}

// FieldCount returns the total number of fields across all classes.
// The ATT builder's output is bounded by this times the expansion depth.
func (c *Catalog) FieldCount() int {
	n := 0
	for _, name := range c.order {
		n += len(c.classes[name].Fields)
	}
	return n
}

// Fingerprint returns a stable hash of the catalog's structure. Two
// files with byte-identical streamer metadata share a fingerprint, which
// keys the schema cache.
func (c *Catalog) Fingerprint() uint64 {
	return c.fingerprint
}

func (c *Catalog) computeFingerprint() uint64 {
	h := fnv.New64a()
	for _, name := range c.order {
		h.Write([]byte(name))
		h.Write([]byte{0})
		for _, f := range c.classes[name].Fields {
			h.Write([]byte(f.Name))
			h.Write([]byte{1})
			h.Write([]byte(f.TypeName))
			h.Write([]byte{2})
		}
		h.Write([]byte{3})
	}
	return h.Sum64()
}
