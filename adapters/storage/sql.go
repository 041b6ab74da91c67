package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const defaultTable = "moderator_markers"

// SQLAdapter stores advertising markers in a SQL table using "?" placeholders
// (SQLite, MySQL).
type SQLAdapter struct {
	db    *sql.DB
	table string
}

// NewSQLAdapter creates an adapter over *sql.DB.
func NewSQLAdapter(db *sql.DB, table string) (*SQLAdapter, error) {
	if db == nil {
		return nil, errors.New("storage: db is nil")
	}
	if strings.TrimSpace(table) == "" {
		table = defaultTable
	}
	return &SQLAdapter{db: db, table: table}, nil
}

// EnsureSchema creates table if missing.
func (s *SQLAdapter) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (marker TEXT PRIMARY KEY)`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *SQLAdapter) AddToken(ctx context.Context, token string) error {
	marker := normalize(token)
	if marker == "" {
		return errEmptyMarker
	}
	q := fmt.Sprintf(`INSERT INTO %s (marker) VALUES (?)`, s.table)
	_, err := s.db.ExecContext(ctx, q, marker)
	if err == nil || isDuplicate(err) {
		return nil
	}
	return err
}

func (s *SQLAdapter) RemoveToken(ctx context.Context, token string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE marker = ?`, s.table)
	_, err := s.db.ExecContext(ctx, q, normalize(token))
	return err
}

func (s *SQLAdapter) GetTokens(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf(`SELECT marker FROM %s ORDER BY marker`, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 32)
	for rows.Next() {
		var marker string
		if scanErr := rows.Scan(&marker); scanErr != nil {
			return nil, scanErr
		}
		out = append(out, marker)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLAdapter) TokenExists(ctx context.Context, token string) (bool, error) {
	q := fmt.Sprintf(`SELECT 1 FROM %s WHERE marker = ? LIMIT 1`, s.table)
	var v int
	err := s.db.QueryRowContext(ctx, q, normalize(token)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
