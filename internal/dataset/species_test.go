package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSpeciesNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"code,common_name\nAMRO,American Robin\nNOMO,Northern Mockingbird\n",
	), 0o644))

	names, err := ReadSpeciesNames(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"AMRO": "American Robin",
		"NOMO": "Northern Mockingbird",
	}, names)
}

func TestReadSpeciesNamesNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.csv")
	require.NoError(t, os.WriteFile(path, []byte("HOFI,House Finch\n"), 0o644))

	names, err := ReadSpeciesNames(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"HOFI": "House Finch"}, names)
}

func TestReadSpeciesNamesSkipsShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.csv")
	require.NoError(t, os.WriteFile(path, []byte("AMRO,American Robin\nstray\n"), 0o644))

	names, err := ReadSpeciesNames(path)
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

func TestReadSpeciesNamesMissingFile(t *testing.T) {
	_, err := ReadSpeciesNames(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}
