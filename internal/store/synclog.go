package store

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// SyncRecord is one sync action as recorded in the local history.
type SyncRecord struct {
	ID        int
	Op        string
	EntryID   string
	Status    string
	Error     string
	CreatedAt time.Time
}

func (db *DB) RecordSync(op, entryID string, syncErr error) error {
	status := StatusOK
	var errText sql.NullString
	if syncErr != nil {
		status = StatusFailed
		errText = sql.NullString{String: syncErr.Error(), Valid: true}
	}

	_, err := db.Exec(
		`INSERT INTO sync_log (op, entry_id, status, error, created_at) VALUES (?, ?, ?, ?, ?)`,
		op, entryID, status, errText, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting sync record: %w", err)
	}
	return nil
}

// RecentSyncs returns up to limit records, newest first.
func (db *DB) RecentSyncs(limit int) ([]SyncRecord, error) {
	rows, err := db.Query(
		`SELECT id, op, entry_id, status, error, created_at
		 FROM sync_log
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sync log: %w", err)
	}
	defer rows.Close()

	var records []SyncRecord
	for rows.Next() {
		var r SyncRecord
		var entryID, errText sql.NullString
		var createdStr string

		if err := rows.Scan(&r.ID, &r.Op, &entryID, &r.Status, &errText, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning sync record: %w", err)
		}

		r.EntryID = entryID.String
		r.Error = errText.String
		if t, err := time.Parse(time.RFC3339, createdStr); err == nil {
			r.CreatedAt = t
		}

		records = append(records, r)
	}

	return records, rows.Err()
}
