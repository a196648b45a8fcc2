// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// append-only ConversationMessage log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/domain"
)

// CreateConversationMessage appends one message to a user's conversation
// log. Rows are never updated or deleted afterwards.
func CreateConversationMessage(ctx context.Context, db *gorm.DB, m *domain.ConversationMessage) (*domain.ConversationMessage, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// LastConversationMessages returns the most recent limit messages for
// userID, reordered oldest-first so they can be fed to the completion
// service as conversational context.
func LastConversationMessages(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.ConversationMessage, error) {
	var recent []domain.ConversationMessage
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recent).Error; err != nil {
		return nil, err
	}
	// Reverse in place: newest-first from the query, oldest-first out.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// CountConversationMessages returns the total number of messages for userID.
func CountConversationMessages(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ConversationMessage{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListConversationPage returns a page of a user's messages ordered
// deterministically oldest-first (CreatedAt ASC, ID ASC).
func ListConversationPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.ConversationMessage, error) {
	var out []domain.ConversationMessage
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountSessionMessages returns how many messages exist in a session. Used to
// decide whether a session still needs an auto-generated topic.
func CountSessionMessages(ctx context.Context, db *gorm.DB, userID, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ConversationMessage{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Count(&total).Error
	return total, err
}

// GetPreferences fetches the chat persona preferences for userID, or
// ErrNotFound when the user never saved any.
func GetPreferences(ctx context.Context, db *gorm.DB, userID string) (*domain.UserPreferences, error) {
	var p domain.UserPreferences
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePreferences creates or replaces the persona preferences for userID.
func SavePreferences(ctx context.Context, db *gorm.DB, p *domain.UserPreferences) error {
	return db.WithContext(ctx).Save(p).Error
}
