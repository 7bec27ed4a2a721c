// Package att builds the Abstract Schema Tree for a tree: one node per
// branch or class member, annotated with its resolved type and nesting.
// The ATT sits between the raw streamer metadata and the relational
// schema, and is the decode plan the row producer executes.
package att

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/treescan/pkg/errors"
	"github.com/ajitpratap0/treescan/pkg/logger"
	"github.com/ajitpratap0/treescan/pkg/rio"
	"github.com/ajitpratap0/treescan/pkg/streamer"
)

// Kind tags an ATT node variant.
type Kind uint8

const (
	// KindPrimitive is a scalar leaf
	KindPrimitive Kind = iota
	// KindFixedArray is a fixed-size repetition of an element node
	KindFixedArray
	// KindVarArray is a repetition sized at read time, either by a
	// counter field (leaflist) or by an on-wire length prefix (vector)
	KindVarArray
	// KindStruct is a nested class with ordered children
	KindStruct
	// KindUnsupported marks a type the mapper cannot translate
	KindUnsupported
)

// Scalar identifies a primitive value kind.
type Scalar uint8

const (
	Bool Scalar = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	String
)

// IsInteger reports whether the scalar can serve as an array counter.
func (s Scalar) IsInteger() bool {
	return s >= Int8 && s <= Uint64
}

// scalarNames maps declared type names (both C++ spellings and the
// format's typedefs) to scalar kinds.
var scalarNames = map[string]Scalar{
	"bool": Bool, "Bool_t": Bool,
	"char": Int8, "int8_t": Int8, "Char_t": Int8,
	"short": Int16, "int16_t": Int16, "Short_t": Int16,
	"int": Int32, "int32_t": Int32, "Int_t": Int32,
	"long": Int64, "long long": Int64, "int64_t": Int64,
	"Long_t": Int64, "Long64_t": Int64,
	"unsigned char": Uint8, "uint8_t": Uint8, "UChar_t": Uint8,
	"unsigned short": Uint16, "uint16_t": Uint16, "UShort_t": Uint16,
	"unsigned int": Uint32, "uint32_t": Uint32, "UInt_t": Uint32,
	"unsigned long": Uint64, "uint64_t": Uint64,
	"ULong_t": Uint64, "ULong64_t": Uint64,
	"float": Float32, "Float_t": Float32,
	"double": Float64, "Double_t": Float64,
	"string": String, "std::string": String, "TString": String,
}

// Node is one vertex of the Abstract Schema Tree. The meaning of the
// payload fields depends on Kind.
type Node struct {
	// Name is the branch or member name; unique among siblings
	Name string
	// Kind tags the variant
	Kind Kind
	// Scalar is the value kind for KindPrimitive
	Scalar Scalar
	// Elem is the element node for array kinds
	Elem *Node
	// Len is the repetition count for KindFixedArray
	Len int
	// CountRef names the counter field sizing a KindVarArray; empty
	// means the length is read from an on-wire prefix
	CountRef string
	// Children are the ordered members for KindStruct
	Children []*Node
	// Hidden marks a node retained only as a counter dependency; it is
	// decoded but never surfaces in the relational schema
	Hidden bool
	// Reason explains a KindUnsupported node
	Reason string
}

// Tree is the ATT for one tree: its retained top-level branches in
// declaration order, hidden counter branches appended.
type Tree struct {
	// Name is the tree name
	Name string
	// Entries is the tree's entry count
	Entries int64
	// Roots are the top-level nodes
	Roots []*Node
}

// NodeCount returns the total number of nodes in the ATT.
func (t *Tree) NodeCount() int {
	n := 0
	for _, root := range t.Roots {
		n += countNodes(root)
	}
	return n
}

func countNodes(n *Node) int {
	total := 1
	if n.Elem != nil {
		total += countNodes(n.Elem)
	}
	for _, c := range n.Children {
		total += countNodes(c)
	}
	return total
}

// Fingerprint returns a stable hash of the plan's structure: tree name
// plus every node's name, kind and type annotations. Two plans share a
// fingerprint exactly when they resolve to the same relational schema,
// which keys the schema cache.
func (t *Tree) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte(t.Name))
	h.Write([]byte{0})
	for _, root := range t.Roots {
		hashNode(h, root)
	}
	return h.Sum64()
}

func hashNode(h hash.Hash64, n *Node) {
	h.Write([]byte(n.Name))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n.Len))
	flags := byte(0)
	if n.Hidden {
		flags = 1
	}
	h.Write([]byte{1, byte(n.Kind), byte(n.Scalar), flags})
	h.Write(buf[:])
	h.Write([]byte(n.CountRef))
	if n.Elem != nil {
		h.Write([]byte{2})
		hashNode(h, n.Elem)
	}
	for _, c := range n.Children {
		h.Write([]byte{3})
		hashNode(h, c)
	}
	h.Write([]byte{4})
}

// Build constructs the ATT for a tree. A non-empty columns whitelist
// restricts the build to exactly the named top-level branches (names
// absent from the tree are ignored); counters sizing retained var
// arrays are always retained internally as hidden nodes. Class cycles
// and unknown types are cut to unsupported nodes rather than failing
// the build.
func Build(tree rio.TreeHandle, cat *streamer.Catalog, columns []string) (*Tree, error) {
	log := logger.Get().With(
		zap.String("component", "att_builder"),
		zap.String("tree", tree.Name()),
	)

	var selected map[string]bool
	if len(columns) > 0 {
		selected = make(map[string]bool, len(columns))
		for _, c := range columns {
			selected[c] = true
		}
	}

	t := &Tree{
		Name:    tree.Name(),
		Entries: tree.Entries(),
	}

	retained := make(map[string]bool)
	for _, name := range tree.BranchNames() {
		if selected != nil && !selected[name] {
			continue
		}
		branch, ok := tree.Branch(name)
		if !ok {
			return nil, errors.New(errors.ErrorTypeData, "tree lists a branch it cannot resolve").WithDetail("branch", name)
		}
		node := parseType(name, branch.TypeName(), cat, map[string]bool{})
		if node.Kind == KindUnsupported {
			log.Warn("branch type not supported, column will be dropped",
				zap.String("branch", name),
				zap.String("type", branch.TypeName()),
				zap.String("reason", node.Reason))
		}
		t.Roots = append(t.Roots, node)
		retained[name] = true
	}

	// Counters of retained leaflist arrays must be decodable even when
	// the whitelist excluded them. They are appended as hidden nodes.
	for _, root := range t.Roots {
		ref := root.CountRef
		if root.Kind != KindVarArray || ref == "" || retained[ref] {
			continue
		}
		branch, ok := tree.Branch(ref)
		if !ok {
			return nil, errors.New(errors.ErrorTypeData, "counter branch not found in tree").
				WithDetail("branch", root.Name).
				WithDetail("counter", ref)
		}
		counter := parseType(ref, branch.TypeName(), cat, map[string]bool{})
		if counter.Kind != KindPrimitive || !counter.Scalar.IsInteger() {
			return nil, errors.New(errors.ErrorTypeData, "counter branch is not an integer leaf").
				WithDetail("branch", root.Name).
				WithDetail("counter", ref)
		}
		counter.Hidden = true
		t.Roots = append(t.Roots, counter)
		retained[ref] = true
	}

	return t, nil
}

// parseType resolves a declared type name into an ATT node. visiting
// tracks the class expansion path so self-referential streamer graphs
// are cut to unsupported nodes instead of recursed infinitely.
func parseType(name, typeName string, cat *streamer.Catalog, visiting map[string]bool) *Node {
	tn := strings.TrimSpace(typeName)

	if inner, ok := vectorElem(tn); ok {
		elem := parseType(name, inner, cat, visiting)
		if elem.Kind == KindUnsupported {
			return unsupported(name, elem.Reason)
		}
		return &Node{Name: name, Kind: KindVarArray, Elem: elem}
	}

	if open := strings.IndexByte(tn, '['); open >= 0 {
		return parseArray(name, tn, open, cat, visiting)
	}

	if scalar, ok := scalarNames[tn]; ok {
		return &Node{Name: name, Kind: KindPrimitive, Scalar: scalar}
	}

	cls, ok := cat.Class(tn)
	if !ok {
		return unsupported(name, "unknown type "+tn)
	}
	if visiting[tn] {
		return unsupported(name, "recursive class "+tn)
	}

	visiting[tn] = true
	defer delete(visiting, tn)

	node := &Node{Name: name, Kind: KindStruct, Children: make([]*Node, 0, len(cls.Fields))}
	for _, f := range cls.Fields {
		child := parseType(f.Name, f.TypeName, cat, visiting)
		if child.Kind == KindUnsupported {
			// A struct with an undecodable member cannot be decoded at
			// all, since the member's byte width is unknown.
			return unsupported(name, child.Reason)
		}
		node.Children = append(node.Children, child)
	}
	return node
}

// parseArray handles "T[N]" and "T[counter]" declarations.
func parseArray(name, tn string, open int, cat *streamer.Catalog, visiting map[string]bool) *Node {
	end := strings.IndexByte(tn, ']')
	if end < open || end != len(tn)-1 {
		return unsupported(name, "malformed array type "+tn)
	}

	dim := strings.TrimSpace(tn[open+1 : end])
	elem := parseType(name, tn[:open], cat, visiting)
	if elem.Kind == KindUnsupported {
		return unsupported(name, elem.Reason)
	}

	if n, err := strconv.Atoi(dim); err == nil {
		if n < 0 {
			return unsupported(name, "negative array length in "+tn)
		}
		return &Node{Name: name, Kind: KindFixedArray, Elem: elem, Len: n}
	}

	if !isIdentifier(dim) {
		return unsupported(name, "malformed array dimension in "+tn)
	}
	return &Node{Name: name, Kind: KindVarArray, Elem: elem, CountRef: dim}
}

func vectorElem(tn string) (string, bool) {
	for _, prefix := range []string{"vector<", "std::vector<"} {
		if strings.HasPrefix(tn, prefix) && strings.HasSuffix(tn, ">") {
			return strings.TrimSpace(tn[len(prefix) : len(tn)-1]), true
		}
	}
	return "", false
}

func unsupported(name, reason string) *Node {
	return &Node{Name: name, Kind: KindUnsupported, Reason: reason}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if !letter && !(digit && i > 0) {
			return false
		}
	}
	return true
}
