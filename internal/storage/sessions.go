package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Session is one completed analysis, resumable for follow-up questions.
type Session struct {
	ID            string
	AudioFilename string
	UserRole      string
	AnalysisType  string
	Scenario      string
	Language      string
	ReportPath    string
	CreatedAt     time.Time
	LastAccessed  time.Time
}

// SessionDB persists sessions in SQLite.
type SessionDB struct {
	db *sql.DB
}

// NewSessionDB opens (and if needed creates) the session database.
func NewSessionDB(dbPath string) (*SessionDB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		audio_filename TEXT NOT NULL,
		user_role TEXT NOT NULL,
		analysis_type TEXT NOT NULL,
		scenario TEXT NOT NULL,
		language TEXT NOT NULL,
		report_path TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		last_accessed DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %v", err)
	}

	return &SessionDB{db: db}, nil
}

// Save inserts a new session record.
func (s *SessionDB) Save(sess Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	if sess.LastAccessed.IsZero() {
		sess.LastAccessed = sess.CreatedAt
	}
	_, err := s.db.Exec(`
	INSERT INTO sessions (id, audio_filename, user_role, analysis_type, scenario, language, report_path, created_at, last_accessed)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.AudioFilename, sess.UserRole, sess.AnalysisType, sess.Scenario,
		sess.Language, sess.ReportPath, sess.CreatedAt, sess.LastAccessed)
	if err != nil {
		return fmt.Errorf("failed to save session: %v", err)
	}
	return nil
}

// List returns sessions, most recent first.
func (s *SessionDB) List(limit int) ([]Session, error) {
	rows, err := s.db.Query(`
	SELECT id, audio_filename, user_role, analysis_type, scenario, language, report_path, created_at, last_accessed
	FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %v", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.AudioFilename, &sess.UserRole, &sess.AnalysisType,
			&sess.Scenario, &sess.Language, &sess.ReportPath, &sess.CreatedAt, &sess.LastAccessed); err != nil {
			return nil, fmt.Errorf("failed to scan session: %v", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Get retrieves one session by id.
func (s *SessionDB) Get(id string) (*Session, error) {
	row := s.db.QueryRow(`
	SELECT id, audio_filename, user_role, analysis_type, scenario, language, report_path, created_at, last_accessed
	FROM sessions WHERE id = ?`, id)

	var sess Session
	err := row.Scan(&sess.ID, &sess.AudioFilename, &sess.UserRole, &sess.AnalysisType,
		&sess.Scenario, &sess.Language, &sess.ReportPath, &sess.CreatedAt, &sess.LastAccessed)
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %v", id, err)
	}
	return &sess, nil
}

// Touch updates a session's last-accessed time.
func (s *SessionDB) Touch(id string) error {
	_, err := s.db.Exec(`UPDATE sessions SET last_accessed = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to touch session %s: %v", id, err)
	}
	return nil
}

// Delete removes a session record.
func (s *SessionDB) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %v", id, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SessionDB) Close() error {
	return s.db.Close()
}
