// Package services – EntryService
//
// This file implements EntryService, the application-level component that
// owns the gratitude entry lifecycle. It validates and normalizes input,
// enforces ownership, and coordinates the two derived writes that follow a
// successful creation: the profile streak update and the per-day mood
// analytics upsert.
//
// The entry insert and the derived writes are deliberately independent: the
// entry is committed first, and a failure in either follow-up is logged and
// swallowed rather than rolled into the caller's result. A crash between
// the writes leaves the streak un-updated but the entry persisted, which is
// an accepted, recoverable inconsistency for a single-user journal. Edits
// and deletes never touch streaks or analytics.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the user identifier and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/repo"
	"github.com/jari-app/jari-backend/internal/streak"
)

// EntryRepo defines the repository contract required by EntryService.
// Implementations are responsible for persistence of entries and the
// profile/analytics rows the service derives from them.
type EntryRepo interface {
	// CreateEntry inserts a new entry row, assigning its ID and timestamps.
	CreateEntry(ctx context.Context, db *gorm.DB, e *domain.GratitudeEntry) (*domain.GratitudeEntry, error)

	// GetEntry fetches an entry by ID ensuring it belongs to the user.
	GetEntry(ctx context.Context, db *gorm.DB, id, userID string) (*domain.GratitudeEntry, error)

	// SaveEntry persists the mutable fields of a loaded entry.
	SaveEntry(ctx context.Context, db *gorm.DB, e *domain.GratitudeEntry) error

	// DeleteEntry removes an entry owned by the user.
	DeleteEntry(ctx context.Context, db *gorm.DB, id, userID string) error

	// CountEntries returns the filtered total for pagination.
	CountEntries(ctx context.Context, db *gorm.DB, userID string, f repo.EntryFilter) (int64, error)

	// ListEntriesPage returns a filtered, ordered page of entries.
	ListEntriesPage(ctx context.Context, db *gorm.DB, userID string, f repo.EntryFilter, offset, limit int) ([]domain.GratitudeEntry, error)

	// GetOrCreateProfile returns the user's profile, materializing it on
	// first touch.
	GetOrCreateProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error)

	// UpdateStreak persists advanced streak counters.
	UpdateStreak(ctx context.Context, db *gorm.DB, userID string, current, longest int, lastDay time.Time) error

	// UpsertMoodAnalytics folds a mood intensity into the user's day row.
	UpsertMoodAnalytics(ctx context.Context, db *gorm.DB, userID string, day time.Time, intensity int) (*domain.MoodAnalytics, error)
}

// EntryService provides the gratitude entry use-cases: create, edit, list
// with filters, favorite toggle, and delete.
type EntryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the entry repository used by this service.
	Repo EntryRepo

	// MaxContentRunes caps entry content by rune length; 0 disables the cap.
	MaxContentRunes int
}

// NewEntryService constructs an EntryService with the default content cap.
func NewEntryService(db *gorm.DB, r EntryRepo) *EntryService {
	return &EntryService{DB: db, Repo: r, MaxContentRunes: 2000}
}

// CreateEntryInput carries the caller-supplied fields for a new entry.
type CreateEntryInput struct {
	Content       string
	IsPublic      bool
	MoodIntensity *int
	Sticker       *domain.StickerConfig
	Tags          []string
}

// UpdateEntryInput is a partial patch for an existing entry. Nil fields are
// left untouched; RemoveSticker clears the sticker when no replacement is
// given.
type UpdateEntryInput struct {
	Content       *string
	IsPublic      *bool
	MoodIntensity *int
	Sticker       *domain.StickerConfig
	RemoveSticker bool
	Tags          []string
}

// Create validates the input, persists the entry, and then advances the
// owner's streak and (when a mood intensity is present) the day's mood
// analytics. Validation failures happen before anything is written.
func (s *EntryService) Create(ctx context.Context, userID string, in CreateEntryInput) (*domain.GratitudeEntry, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, ErrContentTooLong
	}
	if err := validateMoodIntensity(in.MoodIntensity); err != nil {
		return nil, err
	}
	if err := in.Sticker.Normalize(); err != nil {
		return nil, ErrInvalidSticker
	}

	entry := &domain.GratitudeEntry{
		UserID:        userID,
		Content:       content,
		IsPublic:      in.IsPublic,
		MoodIntensity: in.MoodIntensity,
		Sticker:       in.Sticker,
		Tags:          normalizeTags(in.Tags),
	}
	entry, err := s.Repo.CreateEntry(ctx, s.DB, entry)
	if err != nil {
		return nil, err
	}

	s.advanceStreak(ctx, userID, entry.CreatedAt)
	if entry.MoodIntensity != nil {
		s.recordMood(ctx, userID, entry.CreatedAt, *entry.MoodIntensity)
	}

	return entry, nil
}

// Update applies a partial patch to an entry owned by userID. Streaks and
// analytics are not recomputed on edit.
func (s *EntryService) Update(ctx context.Context, userID, entryID string, in UpdateEntryInput) (*domain.GratitudeEntry, error) {
	entry, err := s.Repo.GetEntry(ctx, s.DB, entryID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, ErrEmptyContent
		}
		if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
			return nil, ErrContentTooLong
		}
		entry.Content = content
	}
	if in.IsPublic != nil {
		entry.IsPublic = *in.IsPublic
	}
	if in.MoodIntensity != nil {
		if err := validateMoodIntensity(in.MoodIntensity); err != nil {
			return nil, err
		}
		entry.MoodIntensity = in.MoodIntensity
	}
	switch {
	case in.Sticker != nil:
		if err := in.Sticker.Normalize(); err != nil {
			return nil, ErrInvalidSticker
		}
		entry.Sticker = in.Sticker
	case in.RemoveSticker:
		entry.Sticker = nil
	}
	if in.Tags != nil {
		entry.Tags = normalizeTags(in.Tags)
	}

	if err := s.Repo.SaveEntry(ctx, s.DB, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListPage returns a filtered page of the user's entries and the filtered
// total. Defaults are applied for invalid page/pageSize.
func (s *EntryService) ListPage(ctx context.Context, userID string, f repo.EntryFilter, page, pageSize int) ([]domain.GratitudeEntry, int64, error) {
	tr := otel.Tracer("services/EntryService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, 0, ErrInvalidDateRange
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountEntries(ctx, s.DB, userID, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.GratitudeEntry{}, 0, nil
	}

	items, err := s.Repo.ListEntriesPage(ctx, s.DB, userID, f, offset, pageSize)
	return items, total, err
}

// ToggleFavorite flips the favorite flag of an entry owned by userID and
// returns the updated entry. Two toggles restore the original state.
func (s *EntryService) ToggleFavorite(ctx context.Context, userID, entryID string) (*domain.GratitudeEntry, error) {
	entry, err := s.Repo.GetEntry(ctx, s.DB, entryID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	entry.IsFavorite = !entry.IsFavorite
	if err := s.Repo.SaveEntry(ctx, s.DB, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry owned by userID. Deleting someone else's entry or
// a missing one yields ErrEntryNotFound and leaves the list unchanged.
func (s *EntryService) Delete(ctx context.Context, userID, entryID string) error {
	if err := s.Repo.DeleteEntry(ctx, s.DB, entryID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	return nil
}

// advanceStreak applies the consecutive-day transition to the owner's
// profile. Failures are logged, not surfaced: the entry is already durable.
func (s *EntryService) advanceStreak(ctx context.Context, userID string, createdAt time.Time) {
	p, err := s.Repo.GetOrCreateProfile(ctx, s.DB, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("streak: load profile failed")
		return
	}
	next := streak.Advance(streak.State{
		Current: p.CurrentStreak,
		Longest: p.LongestStreak,
		LastDay: p.LastGratitudeDate,
	}, createdAt)
	if err := s.Repo.UpdateStreak(ctx, s.DB, userID, next.Current, next.Longest, *next.LastDay); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("streak: update failed")
	}
}

// recordMood folds the intensity into the day's analytics row. Failures are
// logged, not surfaced.
func (s *EntryService) recordMood(ctx context.Context, userID string, createdAt time.Time, intensity int) {
	if _, err := s.Repo.UpsertMoodAnalytics(ctx, s.DB, userID, createdAt, intensity); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("mood analytics: upsert failed")
	}
}

// validateMoodIntensity accepts nil or a value in [1,5].
func validateMoodIntensity(v *int) error {
	if v == nil {
		return nil
	}
	if *v < 1 || *v > 5 {
		return ErrInvalidMoodIntensity
	}
	return nil
}

// normalizeTags trims tags, drops empties and duplicates, and preserves
// first-seen order.
func normalizeTags(tags []string) domain.StringList {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make(domain.StringList, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
