package streamer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/treescan/pkg/errors"
	"github.com/ajitpratap0/treescan/pkg/rio"
	"github.com/ajitpratap0/treescan/pkg/rio/riotest"
)

func vertexClass() rio.StreamerClass {
	return rio.StreamerClass{
		Name: "Vertex",
		Fields: []rio.StreamerField{
			{Name: "x", TypeName: "double"},
			{Name: "y", TypeName: "double"},
		},
	}
}

func TestLoad(t *testing.T) {
	f := riotest.NewFile().WithStreamers(vertexClass())

	cat, err := Load(f)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())

	cls, ok := cat.Class("Vertex")
	require.True(t, ok)
	assert.Equal(t, "Vertex", cls.Name)
	require.Len(t, cls.Fields, 2)
	assert.Equal(t, "x", cls.Fields[0].Name)
	assert.Equal(t, "double", cls.Fields[0].TypeName)
}

func TestLoadUnavailable(t *testing.T) {
	f := riotest.NewFile().WithoutStreamers()

	_, err := Load(f)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCatalog))
}

func TestLoadEmptyMetadata(t *testing.T) {
	// A present but empty metadata section is a valid catalog; only an
	// undecodable section is an error.
	cat, err := Load(riotest.NewFile())
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())

	_, ok := cat.Class("Anything")
	assert.False(t, ok)
}

func TestCatalogDuplicateClassReplaced(t *testing.T) {
	cat := NewCatalog([]rio.StreamerClass{
		{Name: "P", Fields: []rio.StreamerField{{Name: "old", TypeName: "int32_t"}}},
		{Name: "P", Fields: []rio.StreamerField{{Name: "new", TypeName: "float"}}},
	})

	require.Equal(t, 1, cat.Len())
	cls, ok := cat.Class("P")
	require.True(t, ok)
	require.Len(t, cls.Fields, 1)
	assert.Equal(t, "new", cls.Fields[0].Name)
}

func TestFieldCount(t *testing.T) {
	cat := NewCatalog([]rio.StreamerClass{
		vertexClass(),
		{Name: "Hit", Fields: []rio.StreamerField{{Name: "id", TypeName: "int32_t"}}},
	})
	assert.Equal(t, 3, cat.FieldCount())
}

func TestFingerprint(t *testing.T) {
	t.Run("identical metadata shares a fingerprint", func(t *testing.T) {
		a := NewCatalog([]rio.StreamerClass{vertexClass()})
		b := NewCatalog([]rio.StreamerClass{vertexClass()})
		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("field type change alters the fingerprint", func(t *testing.T) {
		a := NewCatalog([]rio.StreamerClass{vertexClass()})
		mod := vertexClass()
		mod.Fields[1].TypeName = "float"
		b := NewCatalog([]rio.StreamerClass{mod})
		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})

	t.Run("field boundaries are not ambiguous", func(t *testing.T) {
		a := NewCatalog([]rio.StreamerClass{
			{Name: "A", Fields: []rio.StreamerField{{Name: "ab", TypeName: "c"}}},
		})
		b := NewCatalog([]rio.StreamerClass{
			{Name: "A", Fields: []rio.StreamerField{{Name: "a", TypeName: "bc"}}},
		})
		assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	})
}
