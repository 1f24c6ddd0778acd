// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/meetscribe/meetscribe/internal/meeting"
)

// SQLiteStore provides durable SQLite persistence for meetings and their
// artifacts. Artifacts are stored as a JSON column on the meeting row, so a
// completion writes status and all artifacts in one row update and a delete
// removes everything in one statement.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore initializes the store and runs migrations.
// Sets WAL mode + busy_timeout for a read-heavy workload.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// modernc.org/sqlite takes pragmas via _pragma=name(value). _txlock makes
	// every transaction take the write lock up front, so concurrent Updates
	// on one row queue on busy_timeout instead of failing with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meetings (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		language TEXT NOT NULL,
		status TEXT NOT NULL CHECK(status IN ('processing', 'completed', 'failed')),
		created_at TEXT NOT NULL,
		duration TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		artifacts TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_meetings_created_at ON meetings(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Put(ctx context.Context, m *meeting.Meeting) error {
	artifacts, err := marshalArtifacts(m.Artifacts)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO meetings (id, title, language, status, created_at, duration, error_message, artifacts)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		m.ID, m.Title, string(m.Language), string(m.Status),
		m.CreatedAt.UTC().Format(time.RFC3339Nano), m.Duration, m.ErrorMessage, artifacts)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*meeting.Meeting, error) {
	row := s.db.QueryRowContext(ctx, selectMeeting+` WHERE id = ?`, id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (s *SQLiteStore) List(ctx context.Context) ([]*meeting.Meeting, error) {
	rows, err := s.db.QueryContext(ctx, selectMeeting+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var list []*meeting.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Update runs fn against the current row inside an immediate transaction
// (see the _txlock DSN parameter). Concurrent transitions for the same
// meeting serialize on the write lock; the loser starts its transaction
// after the winner commits, re-reads the settled row and its guard fires.
func (s *SQLiteStore) Update(ctx context.Context, id string, fn func(*meeting.Meeting) error) (*meeting.Meeting, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, selectMeeting+` WHERE id = ?`, id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, meeting.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := fn(m); err != nil {
		return nil, err
	}

	artifacts, err := marshalArtifacts(m.Artifacts)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE meetings
	SET title = ?, language = ?, status = ?, duration = ?, error_message = ?, artifacts = ?
	WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, query,
		m.Title, string(m.Language), string(m.Status),
		m.Duration, m.ErrorMessage, artifacts, m.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return meeting.ErrNotFound
	}
	return nil
}

const selectMeeting = `
	SELECT id, title, language, status, created_at, duration, error_message, artifacts
	FROM meetings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*meeting.Meeting, error) {
	var m meeting.Meeting
	var language, status, createdAt string
	var artifacts sql.NullString

	if err := row.Scan(&m.ID, &m.Title, &language, &status, &createdAt,
		&m.Duration, &m.ErrorMessage, &artifacts); err != nil {
		return nil, err
	}

	m.Language = meeting.Language(language)
	m.Status = meeting.Status(status)

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for meeting %s: %w", m.ID, err)
	}
	m.CreatedAt = t

	if artifacts.Valid && artifacts.String != "" {
		var a meeting.Artifacts
		if err := json.Unmarshal([]byte(artifacts.String), &a); err != nil {
			return nil, fmt.Errorf("decode artifacts for meeting %s: %w", m.ID, err)
		}
		m.Artifacts = &a
	}

	return &m, nil
}

func marshalArtifacts(a *meeting.Artifacts) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode artifacts: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
