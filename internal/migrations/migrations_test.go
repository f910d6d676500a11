package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1", parseVersion("V1__init.sql"))
	require.Equal(t, "12", parseVersion("V12__lesson_images.sql"))
	require.Equal(t, "", parseVersion("seed.sql"))
	require.Equal(t, "", parseVersion("V3.sql"))

	n, ok := parseVersionNumber("V10__x.sql")
	require.True(t, ok)
	require.Equal(t, 10, n)

	_, ok = parseVersionNumber("Vabc__x.sql")
	require.False(t, ok)
}

func TestListMigrationsOrdersByVersion(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"V10__later.sql":   {Data: []byte("SELECT 1;")},
		"V2__second.sql":   {Data: []byte("SELECT 1;")},
		"V1__init.sql":     {Data: []byte("SELECT 1;")},
		"zz_manual.sql":    {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("not a migration")},
		"nested/V3__x.sql": {Data: []byte("SELECT 1;")},
	}

	migs, err := listMigrations(fsys)
	require.NoError(t, err)

	names := make([]string, 0, len(migs))
	for _, m := range migs {
		names = append(names, m.Name)
	}
	require.Equal(t, []string{"V1__init.sql", "V2__second.sql", "V10__later.sql", "zz_manual.sql"}, names)
}

func TestEmbeddedSchemaIsPresent(t *testing.T) {
	t.Parallel()

	content, err := embedded.ReadFile("sql/V1__init.sql")
	require.NoError(t, err)
	require.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS time_records")
	require.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS allowlist_entries")
}
