package database

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingFiles_SortedSQLOnly(t *testing.T) {
	files := fstest.MapFS{
		"010_b.sql":   {Data: []byte("SELECT 1")},
		"002_a.sql":   {Data: []byte("SELECT 1")},
		"README.md":   {Data: []byte("notes")},
		"sub/003.sql": {Data: []byte("SELECT 1")},
	}

	names, err := PendingFiles(files)
	require.NoError(t, err)
	assert.Equal(t, []string{"002_a.sql", "010_b.sql"}, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	require.NoError(t, err)

	names, err := PendingFiles(sub)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_create_kv_store.sql", names[0])

	content, err := fs.ReadFile(sub, names[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "kv_store")
}
