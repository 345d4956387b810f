package iocache

import (
	"testing"
	"time"

	"github.com/huangsam/auditor/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "catalog_cache", false},
		{"leading underscore", "_cache", false},
		{"with digits", "cache2", false},
		{"empty", "", true},
		{"leading digit", "2cache", true},
		{"dash", "catalog-cache", true},
		{"injection", "cache; DROP TABLE users", true},
		{"quote", `cache"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`auditor_runs`", quoteTableName("auditor_runs", schema.MySQLBackend))
	assert.Equal(t, `"auditor_runs"`, quoteTableName("auditor_runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"auditor_runs"`, quoteTableName("auditor_runs", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$3", placeholder(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.MySQLBackend, 3))
	assert.Equal(t, "?", placeholder(schema.SQLiteBackend, 1))

	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "?, ?", placeholders(schema.SQLiteBackend, 2))
	assert.Empty(t, placeholders(schema.SQLiteBackend, 0))
}

func TestDriverFor(t *testing.T) {
	tests := map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "pgx",
	}
	for backend, want := range tests {
		got, err := driverFor(backend)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := driverFor(schema.RedisBackend)
	assert.Error(t, err)
}

func TestOpenSQLErrors(t *testing.T) {
	_, err := openSQL(schema.MySQLBackend, "not a dsn", "")
	assert.Error(t, err)

	_, err = openSQL(schema.NoneBackend, "", "")
	assert.Error(t, err)
}

func TestFormatAndParseTime(t *testing.T) {
	ts := time.Date(2024, 3, 15, 8, 30, 0, 123456789, time.FixedZone("X", 3600))

	formatted := formatTime(ts, schema.SQLiteBackend)
	s, ok := formatted.(string)
	require.True(t, ok)
	parsed, err := parseTime(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))

	assert.Equal(t, ts, formatTime(ts, schema.PostgreSQLBackend))
}
