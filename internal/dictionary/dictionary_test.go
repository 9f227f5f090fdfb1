package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_ContainsIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	s := New([]string{"Agra", "  Buenos Aires "})

	assert.True(t, s.Contains("agra"))
	assert.True(t, s.Contains("AGRA"))
	assert.True(t, s.Contains("buenos aires"))
	assert.False(t, s.Contains("atlantis"))
	assert.Equal(t, 2, s.Len())
}

func TestDefault(t *testing.T) {
	t.Parallel()

	s := Default()
	assert.True(t, s.Contains("Agra"))
	assert.True(t, s.Contains("accra"))
	assert.False(t, s.Contains("# Built-in place list: countries, capitals and well-known cities."))
	assert.Greater(t, s.Len(), 100)
}

func TestLoad_TextFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "places.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nLima\n\nOslo\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("lima"))
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "places.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- Nairobi\n- Naples\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.True(t, s.Contains("NAPLES"))
	assert.Equal(t, 2, s.Len())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/places.txt")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("key: [unterminated"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSet_StartingWith(t *testing.T) {
	t.Parallel()

	s := New([]string{"Madrid", "agra", "Amsterdam", "Oslo"})

	assert.Equal(t, []string{"agra", "amsterdam"}, s.StartingWith("A"))
	assert.Equal(t, []string{"madrid"}, s.StartingWith("m"))
	assert.Empty(t, s.StartingWith("z"))
}
