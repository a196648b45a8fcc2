// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// GratitudeEntry model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Ownership is enforced by scoping every
// query to the caller's userID; a row that exists but belongs to someone
// else is indistinguishable from a missing one (ErrNotFound).
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// SortOrder selects list ordering by creation time.
type SortOrder string

const (
	// SortNewestFirst orders entries by created_at descending (the default).
	SortNewestFirst SortOrder = "newest"
	// SortOldestFirst orders entries by created_at ascending.
	SortOldestFirst SortOrder = "oldest"
)

// EntryFilter narrows and orders a user's entry list. Zero values mean
// "no constraint".
type EntryFilter struct {
	// Mood matches sticker mood exactly.
	Mood string
	// From/To bound created_at to [From, To+1day). Both are interpreted at
	// day granularity.
	From *time.Time
	To   *time.Time
	// Search is a case-insensitive substring match on content or sticker mood.
	Search string
	// FavoritesOnly keeps only favorited entries.
	FavoritesOnly bool
	// Sort defaults to SortNewestFirst when empty.
	Sort SortOrder
}

// CreateEntry inserts a new gratitude entry owned by userID. The entry ID is
// a randomly generated UUID and CreatedAt is set to UTC. The denormalized
// sticker_mood column is derived from the sticker before the insert.
func CreateEntry(ctx context.Context, db *gorm.DB, e *domain.GratitudeEntry) (*domain.GratitudeEntry, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	syncStickerMood(e)
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// GetEntry fetches a single entry by ID and owner. If the record does not
// exist or belongs to another user, it returns ErrNotFound.
func GetEntry(ctx context.Context, db *gorm.DB, id, userID string) (*domain.GratitudeEntry, error) {
	var e domain.GratitudeEntry
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SaveEntry persists all mutable fields of an already-loaded entry, keeping
// sticker_mood in sync. The caller is responsible for ownership checks
// (normally done by loading through GetEntry first).
func SaveEntry(ctx context.Context, db *gorm.DB, e *domain.GratitudeEntry) error {
	syncStickerMood(e)
	return db.WithContext(ctx).Save(e).Error
}

// DeleteEntry soft-deletes an entry scoped to its owner. If no rows are
// affected (missing or not owned), it returns ErrNotFound.
func DeleteEntry(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.GratitudeEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountEntries returns the number of entries owned by userID that match the
// filter. Pair with ListEntriesPage for pagination metadata.
func CountEntries(ctx context.Context, db *gorm.DB, userID string, f EntryFilter) (int64, error) {
	var total int64
	err := applyEntryFilter(db.WithContext(ctx).Model(&domain.GratitudeEntry{}), userID, f).
		Count(&total).Error
	return total, err
}

// ListEntriesPage returns a page of entries matching the filter, ordered per
// f.Sort (newest-first by default) with the entry ID as a deterministic
// tie-break.
func ListEntriesPage(ctx context.Context, db *gorm.DB, userID string, f EntryFilter, offset, limit int) ([]domain.GratitudeEntry, error) {
	order := "created_at DESC, id DESC"
	if f.Sort == SortOldestFirst {
		order = "created_at ASC, id ASC"
	}
	var out []domain.GratitudeEntry
	err := applyEntryFilter(db.WithContext(ctx), userID, f).
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// applyEntryFilter composes the WHERE clauses shared by count and list.
// The date range is inclusive of From's day and of To's entire day
// (created_at < To+1d).
func applyEntryFilter(q *gorm.DB, userID string, f EntryFilter) *gorm.DB {
	q = q.Where("user_id = ?", userID)
	if f.Mood != "" {
		q = q.Where("sticker_mood = ?", strings.ToLower(f.Mood))
	}
	if f.FavoritesOnly {
		q = q.Where("is_favorite = ?", true)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", dayStart(*f.From))
	}
	if f.To != nil {
		q = q.Where("created_at < ?", dayStart(*f.To).AddDate(0, 0, 1))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		needle := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(content) LIKE ? OR sticker_mood LIKE ?", needle, needle)
	}
	return q
}

// syncStickerMood mirrors the sticker's mood into the indexed filter column.
func syncStickerMood(e *domain.GratitudeEntry) {
	if e.Sticker != nil {
		e.StickerMood = string(e.Sticker.Mood)
	} else {
		e.StickerMood = ""
	}
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
