package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/homveloper/luvjson/crdtpatch"
)

// SQLAdapter persists change logs and snapshots through database/sql,
// against any driver the caller has registered. Queries use `?`
// placeholders and TEXT/INTEGER/BLOB columns, as SQLite and MySQL accept; a
// driver requiring different placeholder syntax (such as Postgres's `$1`)
// needs its own adapter.
type SQLAdapter struct {
	db             *sql.DB
	changesTable   string
	snapshotsTable string
}

// NewSQLAdapter wraps an already-open *sql.DB and creates its two tables
// if they do not exist. The caller owns the connection's lifecycle.
func NewSQLAdapter(ctx context.Context, db *sql.DB, tableName string) (*SQLAdapter, error) {
	a := &SQLAdapter{
		db:             db,
		changesTable:   tableName + "_changes",
		snapshotsTable: tableName + "_snapshots",
	}
	if err := a.createTables(ctx); err != nil {
		return nil, errors.Wrap(err, "create storage tables")
	}
	return a, nil
}

func (a *SQLAdapter) createTables(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			document_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (document_id, seq)
		)
	`, a.changesTable))
	if err != nil {
		return errors.Wrap(err, "create changes table")
	}

	_, err = a.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			document_id TEXT PRIMARY KEY,
			data BLOB NOT NULL
		)
	`, a.snapshotsTable))
	if err != nil {
		return errors.Wrap(err, "create snapshots table")
	}
	return nil
}

func (a *SQLAdapter) AppendChange(ctx context.Context, documentID string, seq uint64, change crdtpatch.EncodedChange) error {
	query := fmt.Sprintf("INSERT INTO %s (document_id, seq, data) VALUES (?, ?, ?)", a.changesTable)
	if _, err := a.db.ExecContext(ctx, query, documentID, seq, []byte(change)); err != nil {
		return errors.Wrapf(err, "append change for %s", documentID)
	}
	return nil
}

func (a *SQLAdapter) LoadChanges(ctx context.Context, documentID string) ([]crdtpatch.EncodedChange, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE document_id = ? ORDER BY seq ASC", a.changesTable)
	rows, err := a.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, errors.Wrapf(err, "load changes for %s", documentID)
	}
	defer rows.Close()

	var out []crdtpatch.EncodedChange
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "scan change row")
		}
		out = append(out, crdtpatch.EncodedChange(data))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate change rows")
	}
	return out, nil
}

func (a *SQLAdapter) SaveSnapshot(ctx context.Context, documentID string, snapshot []byte) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin snapshot transaction")
	}
	defer tx.Rollback()

	var exists bool
	checkQuery := fmt.Sprintf("SELECT 1 FROM %s WHERE document_id = ?", a.snapshotsTable)
	err = tx.QueryRowContext(ctx, checkQuery, documentID).Scan(&exists)
	switch {
	case err == sql.ErrNoRows:
		insert := fmt.Sprintf("INSERT INTO %s (document_id, data) VALUES (?, ?)", a.snapshotsTable)
		_, err = tx.ExecContext(ctx, insert, documentID, snapshot)
	case err == nil:
		update := fmt.Sprintf("UPDATE %s SET data = ? WHERE document_id = ?", a.snapshotsTable)
		_, err = tx.ExecContext(ctx, update, snapshot, documentID)
	}
	if err != nil {
		return errors.Wrapf(err, "save snapshot for %s", documentID)
	}

	return errors.Wrap(tx.Commit(), "commit snapshot transaction")
}

func (a *SQLAdapter) LoadSnapshot(ctx context.Context, documentID string) ([]byte, bool, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE document_id = ?", a.snapshotsTable)
	var data []byte
	err := a.db.QueryRowContext(ctx, query, documentID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load snapshot for %s", documentID)
	}
	return data, true, nil
}

func (a *SQLAdapter) ListDocuments(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT document_id FROM %s", a.changesTable)
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan document id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate document rows")
	}
	return ids, nil
}

func (a *SQLAdapter) DeleteDocument(ctx context.Context, documentID string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin delete transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE document_id = ?", a.changesTable), documentID); err != nil {
		return errors.Wrapf(err, "delete changes for %s", documentID)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE document_id = ?", a.snapshotsTable), documentID); err != nil {
		return errors.Wrapf(err, "delete snapshot for %s", documentID)
	}
	return errors.Wrap(tx.Commit(), "commit delete transaction")
}

// Close is a no-op: the *sql.DB is owned by the caller.
func (a *SQLAdapter) Close() error { return nil }

var _ Adapter = (*SQLAdapter)(nil)
