package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDeclaresActiveHoldIndex(t *testing.T) {
	s := Schema()
	assert.Contains(t, s, "active_key")
	assert.Contains(t, s, "UNIQUE KEY uq_seat_holds_active (active_key)")
	assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS seat_locks")
}

func TestSchemaStoresMicrosecondTimes(t *testing.T) {
	s := Schema()
	for _, col := range []string{"created_at", "expires_at", "purchased_at", "boarded_at", "cancelled_at"} {
		assert.Regexp(t, regexp.MustCompile(`(?m)^\s+`+col+`\s+DATETIME\(6\)`), s, col)
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureSchema(context.Background(), db))

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("denied"))
	err = EnsureSchema(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}
