package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// schema mirrors database/migrations with column types the sqlite driver
// decodes into time.Time.
const schema = `
CREATE TABLE transaction_categories (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL CHECK (type IN ('income', 'expense', 'both')),
	description TEXT,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL,
	UNIQUE (name, type)
);

CREATE TABLE transactions (
	id               TEXT PRIMARY KEY,
	description      TEXT NOT NULL,
	amount           NUMERIC NOT NULL CHECK (amount > 0),
	type             TEXT NOT NULL CHECK (type IN ('income', 'expense')),
	category         TEXT NOT NULL,
	date             DATE NOT NULL,
	status           TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'cancelled')),
	payment_method   TEXT,
	reference_number TEXT,
	notes            TEXT,
	created_at       TIMESTAMP NOT NULL,
	updated_at       TIMESTAMP NOT NULL
);

CREATE INDEX idx_transactions_date ON transactions (date);
`

// NewDB opens an in-memory sqlite database with the finance schema applied.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
