package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/treescan/pkg/errors"
)

func TestNewBaseConfigDefaults(t *testing.T) {
	cfg := NewBaseConfig("events", "root")

	assert.Equal(t, "events", cfg.Name)
	assert.Equal(t, "root", cfg.Type)
	assert.Equal(t, DefaultExtension, cfg.Source.Extension)
	assert.Equal(t, 1000, cfg.Performance.BufferSize)
	assert.Equal(t, 1, cfg.Performance.Workers)
	assert.True(t, cfg.Observability.EnableLogging)
}

func TestValidate(t *testing.T) {
	t.Run("missing path fails", func(t *testing.T) {
		cfg := NewBaseConfig("events", "root")
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("zero values are defaulted", func(t *testing.T) {
		cfg := &BaseConfig{}
		cfg.Source.Path = "/data"
		require.NoError(t, cfg.Validate())

		assert.Equal(t, DefaultExtension, cfg.Source.Extension)
		assert.Equal(t, 1000, cfg.Performance.BufferSize)
		assert.Equal(t, 1000, cfg.Performance.BatchSize)
		assert.Equal(t, 1, cfg.Performance.Workers)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relation.yaml")

	yaml := `
name: events
type: root
source:
  path: /data/2024
  tree: Events
  columns:
    - run
    - pt
performance:
  buffer_size: 64
observability:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg := NewBaseConfig("default", "root")
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, "events", cfg.Name)
	assert.Equal(t, "/data/2024", cfg.Source.Path)
	assert.Equal(t, "Events", cfg.Source.Tree)
	assert.Equal(t, []string{"run", "pt"}, cfg.Source.Columns)
	assert.Equal(t, 64, cfg.Performance.BufferSize)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	cfg := NewBaseConfig("events", "root")
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [unclosed"), 0o644))

	err := Load(path, NewBaseConfig("events", "root"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DATA_DIR", "/mnt/store")

	dir := t.TempDir()
	path := filepath.Join(dir, "relation.yaml")
	yaml := "source:\n  path: ${TEST_DATA_DIR}/run2024\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg := NewBaseConfig("events", "root")
	require.NoError(t, Load(path, cfg))
	assert.Equal(t, "/mnt/store/run2024", cfg.Source.Path)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TREESCAN_SOURCE_TREE", "DecayTree")

	dir := t.TempDir()
	path := filepath.Join(dir, "relation.yaml")
	yaml := "source:\n  path: /data\n  tree: Events\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg := NewBaseConfig("events", "root")
	require.NoError(t, Load(path, cfg))
	assert.Equal(t, "DecayTree", cfg.Source.Tree)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")

	cfg := NewBaseConfig("events", "root")
	cfg.Source.Path = "/data"
	cfg.Source.Columns = []string{"run"}
	require.NoError(t, Save(path, cfg))

	loaded := &BaseConfig{}
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, cfg.Name, loaded.Name)
	assert.Equal(t, cfg.Source.Path, loaded.Source.Path)
	assert.Equal(t, cfg.Source.Columns, loaded.Source.Columns)
}
