package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Fixed width so that text order is time order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps topic history in a SQLite database.
// All methods are safe for concurrent use via internal mutex.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (creating if needed) the history database at dbPath.
// ":memory:" gives a private in-memory database.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A second pooled connection to ":memory:" would see a different database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logrus.Infof("Topic history database initialized at %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS topic_history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		topic_text TEXT NOT NULL,
		issue_number INTEGER NOT NULL,
		keywords TEXT NOT NULL,
		category TEXT,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_topic_history_recorded ON topic_history(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_topic_history_issue ON topic_history(issue_number);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Append inserts entries in one transaction. Entries without an ID get one.
func (s *SQLiteStore) Append(ctx context.Context, entries ...models.TopicHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO topic_history (id, topic_text, issue_number, keywords, category, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		keywords, err := json.Marshal(entry.Keywords)
		if err != nil {
			return fmt.Errorf("encode keywords: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			entry.ID, entry.TopicText, entry.IssueNumber, string(keywords), entry.Category,
			entry.RecordedAt.UTC().Format(timeLayout),
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

// Recent returns entries recorded at or after since, oldest first
func (s *SQLiteStore) Recent(ctx context.Context, since time.Time) ([]models.TopicHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic_text, issue_number, keywords, category, recorded_at
		FROM topic_history
		WHERE recorded_at >= ?
		ORDER BY recorded_at ASC, seq ASC
	`, since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []models.TopicHistoryEntry
	for rows.Next() {
		var (
			entry      models.TopicHistoryEntry
			keywords   string
			category   sql.NullString
			recordedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.TopicText, &entry.IssueNumber, &keywords, &category, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}

		entry.RecordedAt, err = time.Parse(timeLayout, recordedAt)
		if err != nil {
			logrus.Warnf("Skipping history entry %s with bad timestamp %q: %v", entry.ID, recordedAt, err)
			continue
		}
		if err := json.Unmarshal([]byte(keywords), &entry.Keywords); err != nil {
			logrus.Warnf("History entry %s has unreadable keywords: %v", entry.ID, err)
		}
		entry.Category = category.String
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// LatestIssue returns the highest recorded issue number, or 0 when empty
func (s *SQLiteStore) LatestIssue(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(issue_number) FROM topic_history").Scan(&latest); err != nil {
		return 0, fmt.Errorf("query latest issue: %w", err)
	}
	return int(latest.Int64), nil
}

// Compact deletes entries recorded before the cutoff and returns how many were removed
func (s *SQLiteStore) Compact(ctx context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM topic_history WHERE recorded_at < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("compact history: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(removed), nil
}
