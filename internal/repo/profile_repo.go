// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model, including the streak counter update that runs on entry creation.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/domain"
)

// GetProfile fetches the profile row for userID, or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrCreateProfile returns the profile for userID, creating an empty row
// with zeroed streak counters on first touch. Identity issuance is external,
// so the first authenticated request is allowed to materialize the row.
func GetOrCreateProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	p, err := GetProfile(ctx, db, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p = &domain.Profile{ID: userID, CreatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProfileFields updates the display fields of a profile. Streak
// counters are intentionally not updatable through this path.
func UpdateProfileFields(ctx context.Context, db *gorm.DB, userID string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStreak persists new streak counters and the last-gratitude day for
// userID. Last writer wins: concurrent entry creations are not coordinated
// here (single-user journaling makes the race benign).
func UpdateStreak(ctx context.Context, db *gorm.DB, userID string, current, longest int, lastDay time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"current_streak":      current,
			"longest_streak":      longest,
			"last_gratitude_date": lastDay,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
