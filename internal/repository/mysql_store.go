package repository

import (
	"context"
	"database/sql"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLStore implements Store on the MySQL schema in internal/database.
// All timestamps are stored and compared in UTC.
type MySQLStore struct {
	db   *sql.DB
	q    querier
	inTx bool
}

// NewMySQLStore returns a Store bound to db.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db, q: db}
}

// txOptions runs every transaction at READ COMMITTED: each statement reads
// the latest committed rows, so reads issued after LockSeat see what the
// previous holder of the seat lock committed. InnoDB's REPEATABLE READ
// default would keep serving the snapshot taken by the first read.
var txOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// WithinTx runs fn in a transaction that is committed only if fn returns
// nil. Nested calls join the outer transaction.
func (s *MySQLStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&MySQLStore{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// locking appends FOR UPDATE inside a transaction so that the rows read
// stay locked until commit. Outside a transaction the read is plain.
func (s *MySQLStore) locking(query string) string {
	if s.inTx {
		return query + " FOR UPDATE"
	}
	return query
}

// rowsAffected reports whether a conditional UPDATE matched a row.
func rowsAffected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func count(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
