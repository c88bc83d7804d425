package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/opencivics/civicassist/internal/interfaces"
	"github.com/opencivics/civicassist/pkg/models"
)

//go:embed migration.sql
var migrationSQL string

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// New opens (or creates) the portal database and runs migrations.
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{
		conn: conn,
		path: dbPath,
	}

	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// Migrate runs database migrations
func (db *DB) Migrate() error {
	_, err := db.conn.Exec(migrationSQL)
	if err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying database connection for advanced operations
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Begin starts a transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// GetSetting retrieves a setting value; missing keys return "".
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting updates or inserts a setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = strftime('%s', 'now')
	`, key, value, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// AddChatMessage records one question/response exchange.
func (db *DB) AddChatMessage(username, question, response string) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO chat_messages (username, question, response)
		VALUES (?, ?, ?)
	`, username, question, response)
	if err != nil {
		return 0, fmt.Errorf("failed to add chat message: %w", err)
	}
	return result.LastInsertId()
}

// RecentChats returns the latest exchanges, newest first.
func (db *DB) RecentChats(limit int) ([]models.ChatMessage, error) {
	rows, err := db.conn.Query(`
		SELECT id, username, question, response, created_at
		FROM chat_messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		var created int64
		if err := rows.Scan(&msg.ID, &msg.Username, &msg.Question, &msg.Response, &created); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msg.CreatedAt = time.Unix(created, 0)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CountChatMessages returns the total number of exchanges.
func (db *DB) CountChatMessages() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM chat_messages").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chat messages: %w", err)
	}
	return count, nil
}

// AddFeedback records a feedback submission with its scored sentiment.
func (db *DB) AddFeedback(text, sentiment string) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO feedback (text, sentiment) VALUES (?, ?)
	`, text, sentiment)
	if err != nil {
		return 0, fmt.Errorf("failed to add feedback: %w", err)
	}
	return result.LastInsertId()
}

// SentimentCounts aggregates feedback tallies per category.
func (db *DB) SentimentCounts() (models.SentimentCounts, error) {
	var counts models.SentimentCounts
	rows, err := db.conn.Query(`
		SELECT sentiment, COUNT(*) FROM feedback GROUP BY sentiment
	`)
	if err != nil {
		return counts, fmt.Errorf("failed to count sentiment: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sentiment string
		var count int
		if err := rows.Scan(&sentiment, &count); err != nil {
			return counts, fmt.Errorf("failed to scan sentiment count: %w", err)
		}
		switch sentiment {
		case "Positive":
			counts.Positive = count
		case "Negative":
			counts.Negative = count
		default:
			counts.Neutral += count
		}
	}
	return counts, rows.Err()
}

// AddConcern records a new concern. The caller supplies the public
// reference; ID, status, and timestamps come from the database.
func (db *DB) AddConcern(concern *models.Concern) error {
	result, err := db.conn.Exec(`
		INSERT INTO concerns (reference, subject, detail, contact)
		VALUES (?, ?, ?, ?)
	`, concern.Reference, concern.Subject, concern.Detail, concern.Contact)
	if err != nil {
		return fmt.Errorf("failed to add concern: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read concern id: %w", err)
	}
	concern.ID = id
	concern.Status = models.ConcernOpen
	now := time.Now()
	concern.CreatedAt = now
	concern.UpdatedAt = now
	return nil
}

// GetConcern looks up a concern by its public reference.
func (db *DB) GetConcern(reference string) (*models.Concern, error) {
	var concern models.Concern
	var created, updated int64
	err := db.conn.QueryRow(`
		SELECT id, reference, subject, detail, COALESCE(contact, ''), status, created_at, updated_at
		FROM concerns WHERE reference = ?
	`, reference).Scan(&concern.ID, &concern.Reference, &concern.Subject,
		&concern.Detail, &concern.Contact, &concern.Status, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get concern %s: %w", reference, err)
	}
	concern.CreatedAt = time.Unix(created, 0)
	concern.UpdatedAt = time.Unix(updated, 0)
	return &concern, nil
}

// RecentConcerns returns the latest concerns, newest first.
func (db *DB) RecentConcerns(limit int) ([]models.Concern, error) {
	rows, err := db.conn.Query(`
		SELECT id, reference, subject, detail, COALESCE(contact, ''), status, created_at, updated_at
		FROM concerns
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query concerns: %w", err)
	}
	defer rows.Close()

	var concerns []models.Concern
	for rows.Next() {
		var concern models.Concern
		var created, updated int64
		if err := rows.Scan(&concern.ID, &concern.Reference, &concern.Subject,
			&concern.Detail, &concern.Contact, &concern.Status, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan concern: %w", err)
		}
		concern.CreatedAt = time.Unix(created, 0)
		concern.UpdatedAt = time.Unix(updated, 0)
		concerns = append(concerns, concern)
	}
	return concerns, rows.Err()
}

// UpdateConcernStatus moves a concern to a new workflow status.
// Unknown references return an error.
func (db *DB) UpdateConcernStatus(reference, status string) error {
	result, err := db.conn.Exec(`
		UPDATE concerns
		SET status = ?, updated_at = strftime('%s', 'now')
		WHERE reference = ?
	`, status, reference)
	if err != nil {
		return fmt.Errorf("failed to update concern %s: %w", reference, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check concern update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("concern %s not found", reference)
	}
	return nil
}

// CountConcernsByStatus returns how many concerns sit in a status.
func (db *DB) CountConcernsByStatus(status string) (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM concerns WHERE status = ?", status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count concerns: %w", err)
	}
	return count, nil
}

// ReplaceServices reseeds the services directory in one transaction.
func (db *DB) ReplaceServices(services []models.Service) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM services"); err != nil {
		return fmt.Errorf("failed to clear services: %w", err)
	}

	for _, svc := range services {
		_, err := tx.Exec(`
			INSERT INTO services (name, category, description, keywords, url, phone)
			VALUES (?, ?, ?, ?, ?, ?)
		`, svc.Name, svc.Category, svc.Description,
			strings.Join(svc.Keywords, ","), svc.URL, svc.Phone)
		if err != nil {
			return fmt.Errorf("failed to insert service %s: %w", svc.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit services: %w", err)
	}
	return nil
}

// ListServices returns the services directory ordered by name.
func (db *DB) ListServices() ([]models.Service, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, category, description, COALESCE(keywords, ''), COALESCE(url, ''), COALESCE(phone, '')
		FROM services
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var svc models.Service
		var keywords string
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Category, &svc.Description,
			&keywords, &svc.URL, &svc.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		if keywords != "" {
			svc.Keywords = strings.Split(keywords, ",")
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

var _ interfaces.DatabaseConnection = (*DB)(nil)
