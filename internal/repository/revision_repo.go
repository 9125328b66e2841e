package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chatforge/widgetd/internal/domain"
)

// RevisionRepository records the settings history of each chatbot
type RevisionRepository struct {
	db *DB
}

// NewRevisionRepository creates a new revision repository
func NewRevisionRepository(db *DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Create records one settings revision
func (r *RevisionRepository) Create(rev *domain.SettingsRevision) error {
	if rev.ID == "" {
		rev.ID = uuid.New().String()
	}
	rev.CreatedAt = time.Now()

	settingsJSON, _ := json.Marshal(rev.Settings)

	_, err := r.db.Exec(`
		INSERT INTO settings_revisions (id, chatbot_id, version, settings, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rev.ID, rev.ChatbotID, rev.Version, string(settingsJSON), rev.CreatedAt)

	return err
}

// ListByChatbot retrieves a chatbot's revisions, newest first.
func (r *RevisionRepository) ListByChatbot(chatbotID string) ([]*domain.SettingsRevision, error) {
	rows, err := r.db.Query(`
		SELECT id, chatbot_id, version, settings, created_at
		FROM settings_revisions WHERE chatbot_id = ?
		ORDER BY created_at DESC
	`, chatbotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*domain.SettingsRevision
	for rows.Next() {
		rev := &domain.SettingsRevision{}
		var settingsJSON string

		if err := rows.Scan(&rev.ID, &rev.ChatbotID, &rev.Version,
			&settingsJSON, &rev.CreatedAt); err != nil {
			return nil, err
		}

		json.Unmarshal([]byte(settingsJSON), &rev.Settings)
		revisions = append(revisions, rev)
	}

	return revisions, rows.Err()
}
