// Package services – ProfileService
//
// This file implements ProfileService, which serves the profile page:
// display fields, streak counters, the stats card, the mood trend used for
// charting, and the persona preferences the chat companion reads.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/repo"
)

// ProfileStats is the aggregate block rendered on the profile page.
type ProfileStats struct {
	TotalEntries  int64      `json:"total_entries"`
	Favorites     int64      `json:"favorites"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastEntryDate *time.Time `json:"last_entry_date,omitempty"`
}

// ProfileService provides profile reads and display-field updates. Streak
// counters are read-only here; they only move through entry creation.
type ProfileService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// MoodTrendMaxDays caps the analytics window; defaults to 90.
	MoodTrendMaxDays int
}

// NewProfileService constructs a ProfileService with default limits.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db, MoodTrendMaxDays: 90}
}

// Get returns the user's profile, creating an empty row on first touch.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return repo.GetOrCreateProfile(ctx, s.DB, userID)
}

// UpdateProfileInput is a partial patch of the profile display fields.
type UpdateProfileInput struct {
	Username  *string
	FullName  *string
	AvatarURL *string
}

// Update patches the display fields of the user's profile.
func (s *ProfileService) Update(ctx context.Context, userID string, in UpdateProfileInput) (*domain.Profile, error) {
	fields := map[string]any{}
	if in.Username != nil {
		fields["username"] = strings.TrimSpace(*in.Username)
	}
	if in.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if len(fields) == 0 {
		return s.Get(ctx, userID)
	}

	// Materialize the row first so a fresh user can set a username in one call.
	if _, err := repo.GetOrCreateProfile(ctx, s.DB, userID); err != nil {
		return nil, err
	}
	if err := repo.UpdateProfileFields(ctx, s.DB, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return repo.GetProfile(ctx, s.DB, userID)
}

// Stats returns the profile page aggregates: entry totals, favorites, and
// the streak counters.
func (s *ProfileService) Stats(ctx context.Context, userID string) (*ProfileStats, error) {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "Stats",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	p, err := repo.GetOrCreateProfile(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	total, _, err := repo.EntriesStats(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	favorites, err := repo.CountFavorites(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileStats{
		TotalEntries:  total,
		Favorites:     favorites,
		CurrentStreak: p.CurrentStreak,
		LongestStreak: p.LongestStreak,
		LastEntryDate: p.LastGratitudeDate,
	}, nil
}

// MoodTrend returns up to days of per-day mood aggregates ending today,
// ordered oldest-first for charting. days <= 0 defaults to 30 and is capped
// at MoodTrendMaxDays.
func (s *ProfileService) MoodTrend(ctx context.Context, userID string, days int) ([]domain.MoodAnalytics, error) {
	maxDays := s.MoodTrendMaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	if days <= 0 {
		days = 30
	}
	if days > maxDays {
		days = maxDays
	}
	from := time.Now().UTC().AddDate(0, 0, -(days - 1))
	return repo.ListMoodAnalytics(ctx, s.DB, userID, from, days)
}

// Preferences returns the user's chat persona preferences; a user who never
// saved any gets an empty value rather than an error.
func (s *ProfileService) Preferences(ctx context.Context, userID string) (*domain.UserPreferences, error) {
	p, err := repo.GetPreferences(ctx, s.DB, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.UserPreferences{UserID: userID}, nil
	}
	return p, err
}

// SavePreferences replaces the user's persona preferences.
func (s *ProfileService) SavePreferences(ctx context.Context, userID string, age *int, interests []string) (*domain.UserPreferences, error) {
	p := &domain.UserPreferences{
		UserID:    userID,
		Age:       age,
		Interests: normalizeTags(interests),
	}
	if err := repo.SavePreferences(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}
