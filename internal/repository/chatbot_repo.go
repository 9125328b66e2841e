package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chatforge/widgetd/internal/domain"
)

// ChatbotRepository handles chatbot persistence
type ChatbotRepository struct {
	db *DB
}

// NewChatbotRepository creates a new chatbot repository
func NewChatbotRepository(db *DB) *ChatbotRepository {
	return &ChatbotRepository{db: db}
}

// Create creates a new chatbot. A fresh version identifier is assigned if
// the caller did not set one.
func (r *ChatbotRepository) Create(bot *domain.Chatbot) error {
	if bot.ID == "" {
		bot.ID = uuid.New().String()
	}
	if bot.Version == "" {
		bot.Version = uuid.New().String()
	}
	now := time.Now()
	bot.CreatedAt = now
	bot.UpdatedAt = now

	settingsJSON, _ := json.Marshal(bot.WidgetSettings)

	_, err := r.db.Exec(`
		INSERT INTO chatbots (id, name, domain, widget_settings, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, bot.ID, bot.Name, bot.Domain, string(settingsJSON), bot.Version,
		bot.CreatedAt, bot.UpdatedAt)

	return err
}

// Get retrieves a chatbot by ID
func (r *ChatbotRepository) Get(id string) (*domain.Chatbot, error) {
	bot := &domain.Chatbot{}
	var settingsJSON string
	var botDomain sql.NullString

	err := r.db.QueryRow(`
		SELECT id, name, domain, widget_settings, version, created_at, updated_at
		FROM chatbots WHERE id = ?
	`, id).Scan(&bot.ID, &bot.Name, &botDomain, &settingsJSON,
		&bot.Version, &bot.CreatedAt, &bot.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if botDomain.Valid {
		bot.Domain = botDomain.String
	}
	json.Unmarshal([]byte(settingsJSON), &bot.WidgetSettings)

	return bot, nil
}

// List retrieves all chatbots
func (r *ChatbotRepository) List() ([]*domain.Chatbot, error) {
	rows, err := r.db.Query(`
		SELECT id, name, domain, widget_settings, version, created_at, updated_at
		FROM chatbots ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []*domain.Chatbot
	for rows.Next() {
		bot := &domain.Chatbot{}
		var settingsJSON string
		var botDomain sql.NullString

		if err := rows.Scan(&bot.ID, &bot.Name, &botDomain, &settingsJSON,
			&bot.Version, &bot.CreatedAt, &bot.UpdatedAt); err != nil {
			return nil, err
		}

		if botDomain.Valid {
			bot.Domain = botDomain.String
		}
		json.Unmarshal([]byte(settingsJSON), &bot.WidgetSettings)
		bots = append(bots, bot)
	}

	return bots, rows.Err()
}

// Update updates a chatbot, persisting its current settings and version.
func (r *ChatbotRepository) Update(bot *domain.Chatbot) error {
	bot.UpdatedAt = time.Now()
	settingsJSON, _ := json.Marshal(bot.WidgetSettings)

	result, err := r.db.Exec(`
		UPDATE chatbots SET name = ?, domain = ?, widget_settings = ?, version = ?, updated_at = ?
		WHERE id = ?
	`, bot.Name, bot.Domain, string(settingsJSON), bot.Version, bot.UpdatedAt, bot.ID)

	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("chatbot %s: %w", bot.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a chatbot
func (r *ChatbotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM chatbots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("chatbot %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
