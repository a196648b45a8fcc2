// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the per-day
// MoodAnalytics aggregate.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/domain"
)

// UpsertMoodAnalytics folds one mood intensity into the (userID, day) row.
// A missing row is created with the intensity as its average and a count of
// one; an existing row gets a running mean:
//
//	avg' = (avg*total + intensity) / (total+1), total' = total+1
//
// The read-modify-write runs in a transaction so two same-day entries cannot
// both fold into the same snapshot.
func UpsertMoodAnalytics(ctx context.Context, db *gorm.DB, userID string, day time.Time, intensity int) (*domain.MoodAnalytics, error) {
	day = dayStart(day)
	var out *domain.MoodAnalytics

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec domain.MoodAnalytics
		err := tx.Where("user_id = ? AND date = ?", userID, day).First(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = domain.MoodAnalytics{
				ID:                   uuid.NewString(),
				UserID:               userID,
				Date:                 day,
				AverageMoodIntensity: float64(intensity),
				TotalEntries:         1,
				CreatedAt:            time.Now().UTC(),
			}
			return tx.Create(&rec).Error
		case err != nil:
			return err
		}

		total := rec.TotalEntries
		rec.AverageMoodIntensity = (rec.AverageMoodIntensity*float64(total) + float64(intensity)) / float64(total+1)
		rec.TotalEntries = total + 1
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		// Created branch: re-read for a consistent return value.
		var rec domain.MoodAnalytics
		if err := db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, day).First(&rec).Error; err != nil {
			return nil, err
		}
		out = &rec
	}
	return out, nil
}

// ListMoodAnalytics returns up to limit day rows for userID ordered by date
// ascending, starting from the given day (inclusive). A zero from lists from
// the beginning.
func ListMoodAnalytics(ctx context.Context, db *gorm.DB, userID string, from time.Time, limit int) ([]domain.MoodAnalytics, error) {
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC")
	if !from.IsZero() {
		q = q.Where("date >= ?", dayStart(from))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.MoodAnalytics
	err := q.Find(&out).Error
	return out, err
}
