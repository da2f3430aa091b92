// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound      = errors.New("conversation not found")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// Store persists conversation transcripts in a SQLite database.
type Store struct {
	db   *sql.DB
	path string

	// MaxConversations limits stored transcripts (0 = unlimited). The
	// oldest are pruned on Save once the limit is exceeded.
	MaxConversations int
}

// ConversationMeta contains metadata for listing conversations.
type ConversationMeta struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	TurnCount int
	Preview   string
}

// Open opens (or creates) the transcript database at the default
// location under the config directory.
func Open() (*Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, "transcripts.db"))
}

// OpenPath opens (or creates) the transcript database at path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{
		db:               db,
		path:             path,
		MaxConversations: 100,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the database schema.
func (s *Store) initSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return err
	}
	_, err := s.db.Exec(InitMetadata)
	return err
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a conversation and returns its ID. Saving the same
// conversation again replaces its turns wholesale.
func (s *Store) Save(conv *model.Conversation) (string, error) {
	if conv == nil || conv.IsEmpty() {
		return "", errors.New("cannot save an empty conversation")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	title := conv.GetTitle()
	_, err = tx.Exec(`
		INSERT INTO conversations (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at
	`, conv.ID, title, conv.CreatedAt.Unix(), conv.UpdatedAt.Unix())
	if err != nil {
		return "", fmt.Errorf("failed to save conversation: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM turns WHERE conversation_id = ?", conv.ID); err != nil {
		return "", fmt.Errorf("failed to clear turns: %w", err)
	}

	for seq, turn := range conv.Turns {
		_, err := tx.Exec(`
			INSERT INTO turns (id, conversation_id, seq, role, content, diagnostic, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, turn.ID, conv.ID, seq, string(turn.Role), turn.Content, boolToInt(turn.Diagnostic), turn.Timestamp.Unix())
		if err != nil {
			return "", fmt.Errorf("failed to save turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}

	return conv.ID, nil
}

// enforceLimit removes the oldest conversations if over limit.
func (s *Store) enforceLimit() {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&count); err != nil {
		return
	}
	if count <= s.MaxConversations {
		return
	}

	s.db.Exec(`
		DELETE FROM conversations WHERE id IN (
			SELECT id FROM conversations ORDER BY updated_at ASC LIMIT ?
		)
	`, count-s.MaxConversations)
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a conversation by ID.
func (s *Store) Load(id string) (*model.Conversation, error) {
	conv := &model.Conversation{ID: id}

	var created, updated int64
	err := s.db.QueryRow(`
		SELECT title, created_at, updated_at FROM conversations WHERE id = ?
	`, id).Scan(&conv.Title, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	conv.CreatedAt = time.Unix(created, 0)
	conv.UpdatedAt = time.Unix(updated, 0)

	rows, err := s.db.Query(`
		SELECT id, role, content, diagnostic, created_at
		FROM turns WHERE conversation_id = ? ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Turn
		var role string
		var diagnostic int
		var ts int64
		if err := rows.Scan(&t.ID, &role, &t.Content, &diagnostic, &ts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		t.Role = model.Role(role)
		t.Diagnostic = diagnostic != 0
		t.Timestamp = time.Unix(ts, 0)
		conv.Turns = append(conv.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return conv, nil
}

// LoadByIndex loads a conversation by its position in the list
// (0 = most recently updated).
func (s *Store) LoadByIndex(index int) (*model.Conversation, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(metas) {
		return nil, ErrNotFound
	}
	return s.Load(metas[index].ID)
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns all saved conversations, most recently updated first.
func (s *Store) List() ([]ConversationMeta, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.title, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM turns t WHERE t.conversation_id = c.id),
		       COALESCE((
		           SELECT t.content FROM turns t
		           WHERE t.conversation_id = c.id AND t.role = 'user'
		           ORDER BY t.seq ASC LIMIT 1
		       ), '')
		FROM conversations c
		ORDER BY c.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var metas []ConversationMeta
	for rows.Next() {
		var m ConversationMeta
		var created, updated int64
		var preview string
		if err := rows.Scan(&m.ID, &m.Title, &created, &updated, &m.TurnCount, &preview); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		m.CreatedAt = time.Unix(created, 0)
		m.UpdatedAt = time.Unix(updated, 0)
		m.Preview = util.TruncateRunes(preview, 80)
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	return metas, nil
}

// Search finds conversations whose title or any turn content matches the
// query, case-insensitively.
func (s *Store) Search(query string) ([]ConversationMeta, error) {
	if query == "" {
		return s.List()
	}

	rows, err := s.db.Query(`
		SELECT DISTINCT c.id FROM conversations c
		LEFT JOIN turns t ON t.conversation_id = c.id
		WHERE c.title LIKE '%' || ? || '%' COLLATE NOCASE
		   OR t.content LIKE '%' || ? || '%' COLLATE NOCASE
	`, query, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	matched := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		matched[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var results []ConversationMeta
	for _, m := range all {
		if matched[m.ID] {
			results = append(results, m)
		}
	}
	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation by ID.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes all saved conversations.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM conversations"); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
