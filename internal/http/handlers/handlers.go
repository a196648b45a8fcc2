// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the service contracts the handlers depend on and the
// Handlers aggregate that the router wires up. Handlers are transport-thin:
// they validate and normalize inputs, delegate to application services, and
// translate sentinel errors into the HTTP error taxonomy.
package handlers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/realtime"
	"github.com/jari-app/jari-backend/internal/repo"
	"github.com/jari-app/jari-backend/internal/services"
)

// EntryService is the entry lifecycle contract consumed by the HTTP layer.
type EntryService interface {
	Create(ctx context.Context, userID string, in services.CreateEntryInput) (*domain.GratitudeEntry, error)
	Update(ctx context.Context, userID, entryID string, in services.UpdateEntryInput) (*domain.GratitudeEntry, error)
	ListPage(ctx context.Context, userID string, f repo.EntryFilter, page, pageSize int) ([]domain.GratitudeEntry, int64, error)
	ToggleFavorite(ctx context.Context, userID, entryID string) (*domain.GratitudeEntry, error)
	Delete(ctx context.Context, userID, entryID string) error
}

// ProfileService is the profile/analytics contract consumed by the HTTP layer.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Update(ctx context.Context, userID string, in services.UpdateProfileInput) (*domain.Profile, error)
	Stats(ctx context.Context, userID string) (*services.ProfileStats, error)
	MoodTrend(ctx context.Context, userID string, days int) ([]domain.MoodAnalytics, error)
	Preferences(ctx context.Context, userID string) (*domain.UserPreferences, error)
	SavePreferences(ctx context.Context, userID string, age *int, interests []string) (*domain.UserPreferences, error)
}

// ChatService is the companion chat contract consumed by the HTTP layer.
type ChatService interface {
	Send(ctx context.Context, userID, sessionID, message string) (*domain.ConversationMessage, error)
	HistoryPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ConversationMessage, int64, error)
}

// Handlers aggregates all HTTP endpoint implementations with their injected
// dependencies. DB and IdemTTL back the optional idempotency replay path on
// entry creation; Hub backs the websocket stream.
type Handlers struct {
	entrySvc   EntryService
	profileSvc ProfileService
	chatSvc    ChatService

	hub     *realtime.Hub
	db      *gorm.DB
	idemTTL time.Duration
}

// New constructs the Handlers aggregate.
func New(entrySvc EntryService, profileSvc ProfileService, chatSvc ChatService, hub *realtime.Hub, db *gorm.DB, idemTTL time.Duration) *Handlers {
	return &Handlers{
		entrySvc:   entrySvc,
		profileSvc: profileSvc,
		chatSvc:    chatSvc,
		hub:        hub,
		db:         db,
		idemTTL:    idemTTL,
	}
}
