package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/estimate.space/internal/services/estimate/storage"
	"github.com/louisbranch/estimate.space/internal/services/estimate/storage/filter"
)

// AppendJournalEntry persists one journal entry. Seq is assigned by SQLite.
func (s *Store) AppendJournalEntry(ctx context.Context, entry storage.JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(entry.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(string(entry.Kind)) == "" {
		return fmt.Errorf("kind is required")
	}
	if entry.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	detail := strings.TrimSpace(entry.Detail)
	if detail == "" {
		detail = "{}"
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO journal_entries (
	ts_millis, session_id, kind, connection_id, role, name, detail
) VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		toMillis(entry.Timestamp),
		entry.SessionID,
		string(entry.Kind),
		entry.ConnectionID,
		entry.Role,
		entry.Name,
		detail,
	)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// ListJournalEntries returns one page of entries matching query.
func (s *Store) ListJournalEntries(ctx context.Context, query storage.JournalQuery) (storage.JournalPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.JournalPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.JournalPage{}, fmt.Errorf("storage is not configured")
	}
	if query.PageSize <= 0 {
		return storage.JournalPage{}, fmt.Errorf("page size must be greater than zero")
	}

	cond, err := filter.ParseJournalFilter(query.Filter)
	if err != nil {
		return storage.JournalPage{}, err
	}

	var whereParts []string
	var args []any
	if cond.Clause != "" {
		whereParts = append(whereParts, cond.Clause)
		args = append(args, cond.Params...)
	}

	order := "ASC"
	cursorOp := ">"
	if query.Descending {
		order = "DESC"
		cursorOp = "<"
	}
	if token := strings.TrimSpace(query.PageToken); token != "" {
		cursor, parseErr := strconv.ParseInt(token, 10, 64)
		if parseErr != nil || cursor < 0 {
			return storage.JournalPage{}, fmt.Errorf("invalid page token")
		}
		whereParts = append(whereParts, "seq "+cursorOp+" ?")
		args = append(args, cursor)
	}

	sqlQuery := `
SELECT seq, ts_millis, session_id, kind, connection_id, role, name, detail
FROM journal_entries`
	if len(whereParts) > 0 {
		sqlQuery += "\nWHERE " + strings.Join(whereParts, " AND ")
	}
	sqlQuery += "\nORDER BY seq " + order + "\nLIMIT ?"
	args = append(args, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return storage.JournalPage{}, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]storage.JournalEntry, 0, query.PageSize)
	for rows.Next() {
		var (
			entry    storage.JournalEntry
			tsMillis int64
			kind     string
		)
		if err := rows.Scan(
			&entry.Seq,
			&tsMillis,
			&entry.SessionID,
			&kind,
			&entry.ConnectionID,
			&entry.Role,
			&entry.Name,
			&entry.Detail,
		); err != nil {
			return storage.JournalPage{}, fmt.Errorf("scan journal entry: %w", err)
		}
		entry.Timestamp = fromMillis(tsMillis)
		entry.Kind = storage.JournalKind(kind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return storage.JournalPage{}, fmt.Errorf("iterate journal entries: %w", err)
	}

	page := storage.JournalPage{Entries: entries}
	if len(entries) > query.PageSize {
		page.Entries = entries[:query.PageSize]
		page.NextPageToken = strconv.FormatInt(page.Entries[query.PageSize-1].Seq, 10)
	}
	return page, nil
}
