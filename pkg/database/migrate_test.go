package database

import (
	"io/fs"
	"strings"
	"testing"

	"krib-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationURL(t *testing.T) {
	got := migrationURL(utils.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		Name:     "krib",
		User:     "krib",
		Password: "p@ss word",
	})

	assert.Equal(t, "pgx5://krib:p%40ss%20word@db:5432/krib?sslmode=disable", got)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}

	assert.Equal(t, ups, downs)
}

func TestInitSchemaPreventsOverlappingBookings(t *testing.T) {
	body, err := fs.ReadFile(migrationFiles, "migrations/000001_init_schema.up.sql")
	require.NoError(t, err)

	schema := string(body)
	assert.Contains(t, schema, "EXCLUDE USING gist")
	assert.Contains(t, schema, "daterange(check_in, check_out, '[)') WITH &&")
	assert.Contains(t, schema, "webhook_url          TEXT NOT NULL UNIQUE")
	assert.Contains(t, schema, "external_event_id VARCHAR(255) NOT NULL UNIQUE")
}
