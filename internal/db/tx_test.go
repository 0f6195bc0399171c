package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(`CREATE TABLE test_table (id INTEGER PRIMARY KEY, value TEXT)`)
	require.NoError(t, err)
	return conn
}

func count(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM test_table`).Scan(&n))
	return n
}

func TestWithTx_Commit(t *testing.T) {
	conn := setupTestDB(t)

	err := WithTx(conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO test_table (value) VALUES (?)`, "a")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(t, conn))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	conn := setupTestDB(t)
	boom := errors.New("boom")

	err := WithTx(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO test_table (value) VALUES (?)`, "a"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, conn))
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, conn.Ping())
	assert.FileExists(t, path)
}

func TestNullHelpers(t *testing.T) {
	assert.Equal(t, int64(0), NullInt64Value(sql.NullInt64{}))
	assert.Equal(t, int64(7), NullInt64Value(sql.NullInt64{Int64: 7, Valid: true}))
	assert.Equal(t, "", NullStringValue(sql.NullString{}))
	assert.Equal(t, "x", NullStringValue(sql.NullString{String: "x", Valid: true}))
	assert.False(t, NullString("").Valid)
	assert.True(t, NullString("y").Valid)
}
