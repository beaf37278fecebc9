package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id             TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	base_url       TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL DEFAULT '',
	updated_at     TEXT NOT NULL DEFAULT '',
	uploaded_files TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS messages (
	transcript_id TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	role          TEXT NOT NULL,
	content       TEXT NOT NULL,
	timestamp     TEXT NOT NULL DEFAULT '',
	metadata      TEXT,
	PRIMARY KEY (transcript_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_transcripts_updated ON transcripts(updated_at);
`

// Store keeps transcripts in a SQLite database
type Store struct {
	db   *sql.DB
	path string
}

// NewTranscriptID returns a fresh transcript id
func NewTranscriptID() string {
	return uuid.NewString()
}

// OpenStore opens (and if needed creates) the history database at path
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &StoreError{Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: fmt.Errorf("failed to open database: %w", err)}
	}
	// One connection keeps writes serialized and an in-memory database shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Op: "open", Err: fmt.Errorf("database ping failed: %w", err)}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &StoreError{Op: "migrate", Err: err}
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database location
func (s *Store) Path() string {
	return s.path
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes t. Messages already stored under the same sequence number are
// left as they are, so saving a growing transcript only adds its new tail.
func (s *Store) Save(ctx context.Context, t *Transcript) error {
	if t.ID == "" {
		return &StoreError{Op: "save", Err: fmt.Errorf("transcript has no id")}
	}

	files, err := json.Marshal(nonNil(t.UploadedFiles))
	if err != nil {
		return &StoreError{Op: "save", ID: t.ID, Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Op: "save", ID: t.ID, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transcripts (id, session_id, base_url, created_at, updated_at, uploaded_files)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			uploaded_files = excluded.uploaded_files`,
		t.ID, t.SessionID, t.BaseURL, t.CreatedAt, t.UpdatedAt, string(files))
	if err != nil {
		return &StoreError{Op: "save", ID: t.ID, Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO messages (transcript_id, seq, role, content, timestamp, metadata)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &StoreError{Op: "save", ID: t.ID, Err: err}
	}
	defer stmt.Close()

	for i, msg := range t.Messages {
		var meta sql.NullString
		if msg.Metadata != nil {
			data, err := json.Marshal(msg.Metadata)
			if err != nil {
				return &StoreError{Op: "save", ID: t.ID, Err: err}
			}
			meta = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, t.ID, i, string(msg.Role), msg.Content, msg.Timestamp, meta); err != nil {
			return &StoreError{Op: "save", ID: t.ID, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "save", ID: t.ID, Err: err}
	}
	return nil
}

// List returns summaries of all transcripts, most recently updated first
func (s *Store) List(ctx context.Context) ([]TranscriptSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.session_id, t.created_at, t.updated_at, t.uploaded_files,
			(SELECT COUNT(*) FROM messages m WHERE m.transcript_id = t.id),
			(SELECT content FROM messages m WHERE m.transcript_id = t.id AND m.role = 'user' ORDER BY m.seq LIMIT 1)
		FROM transcripts t
		ORDER BY t.updated_at DESC, t.id`)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: fmt.Errorf("query failed: %w", err)}
	}
	defer rows.Close()

	var summaries []TranscriptSummary
	for rows.Next() {
		var (
			sum   TranscriptSummary
			files string
			title sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.SessionID, &sum.CreatedAt, &sum.UpdatedAt, &files, &sum.MessageCount, &title); err != nil {
			return nil, &StoreError{Op: "list", Err: fmt.Errorf("scan failed: %w", err)}
		}
		var names []string
		if err := json.Unmarshal([]byte(files), &names); err == nil {
			sum.FileCount = len(names)
		}
		if title.Valid {
			sum.Title = shorten(title.String, 60)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list", Err: fmt.Errorf("rows iteration error: %w", err)}
	}
	return summaries, nil
}

// Resolve expands a unique id prefix to a full transcript id
func (s *Store) Resolve(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", &StoreError{Op: "load", Err: ErrTranscriptNotFound}
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM transcripts WHERE substr(id, 1, length(?)) = ? ORDER BY id LIMIT 2`, prefix, prefix)
	if err != nil {
		return "", &StoreError{Op: "load", ID: prefix, Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", &StoreError{Op: "load", ID: prefix, Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", &StoreError{Op: "load", ID: prefix, Err: err}
	}

	switch len(ids) {
	case 0:
		return "", &StoreError{Op: "load", ID: prefix, Err: ErrTranscriptNotFound}
	case 1:
		return ids[0], nil
	default:
		return "", &StoreError{Op: "load", ID: prefix, Err: ErrAmbiguousID}
	}
}

// Load reads the transcript whose id is or starts with id
func (s *Store) Load(ctx context.Context, id string) (*Transcript, error) {
	fullID, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	t := &Transcript{ID: fullID}
	var files string
	err = s.db.QueryRowContext(ctx,
		`SELECT session_id, base_url, created_at, updated_at, uploaded_files FROM transcripts WHERE id = ?`, fullID).
		Scan(&t.SessionID, &t.BaseURL, &t.CreatedAt, &t.UpdatedAt, &files)
	if err != nil {
		return nil, &StoreError{Op: "load", ID: fullID, Err: err}
	}
	if err := json.Unmarshal([]byte(files), &t.UploadedFiles); err != nil {
		return nil, &StoreError{Op: "load", ID: fullID, Err: fmt.Errorf("invalid uploaded_files: %w", err)}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, timestamp, metadata FROM messages WHERE transcript_id = ? ORDER BY seq`, fullID)
	if err != nil {
		return nil, &StoreError{Op: "load", ID: fullID, Err: err}
	}
	defer rows.Close()

	t.Messages = []Message{}
	for rows.Next() {
		var (
			msg  Message
			role string
			meta sql.NullString
		)
		if err := rows.Scan(&role, &msg.Content, &msg.Timestamp, &meta); err != nil {
			return nil, &StoreError{Op: "load", ID: fullID, Err: err}
		}
		msg.Role = Role(role)
		if meta.Valid {
			var md AnswerMetadata
			if err := json.Unmarshal([]byte(meta.String), &md); err == nil {
				msg.Metadata = &md
			} else {
				LogWarn("Ignoring unreadable metadata in transcript %s: %v", fullID, err)
			}
		}
		t.Messages = append(t.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "load", ID: fullID, Err: err}
	}

	return t, nil
}

// LoadAll reads every transcript, most recently updated first
func (s *Store) LoadAll(ctx context.Context) ([]*Transcript, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	transcripts := make([]*Transcript, 0, len(summaries))
	for _, sum := range summaries {
		t, err := s.Load(ctx, sum.ID)
		if err != nil {
			LogWarn("Failed to load transcript %s: %v", sum.ID, err)
			continue
		}
		transcripts = append(transcripts, t)
	}
	return transcripts, nil
}

// Delete removes the transcript whose id is or starts with id and returns the full id
func (s *Store) Delete(ctx context.Context, id string) (string, error) {
	fullID, err := s.Resolve(ctx, id)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &StoreError{Op: "delete", ID: fullID, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE transcript_id = ?`, fullID); err != nil {
		return "", &StoreError{Op: "delete", ID: fullID, Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transcripts WHERE id = ?`, fullID); err != nil {
		return "", &StoreError{Op: "delete", ID: fullID, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return "", &StoreError{Op: "delete", ID: fullID, Err: err}
	}
	return fullID, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
