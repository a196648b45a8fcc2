package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/repo"
)

// ----- Fake repo -----

type fakeEntryRepo struct {
	// capture args
	createEntry *domain.GratitudeEntry
	createErr   error

	getID     string
	getUserID string
	getEntry  *domain.GratitudeEntry
	getErr    error

	savedEntry *domain.GratitudeEntry
	saveErr    error

	deleteID     string
	deleteUserID string
	deleteErr    error

	countTotal int64
	countErr   error

	pageFilter repo.EntryFilter
	pageOffset int
	pageLimit  int
	pageItems  []domain.GratitudeEntry
	pageErr    error

	profile    *domain.Profile
	profileErr error

	streakCurrent int
	streakLongest int
	streakLastDay time.Time
	streakCalls   int
	streakErr     error

	moodDay       time.Time
	moodIntensity int
	moodCalls     int
	moodErr       error
}

func (r *fakeEntryRepo) CreateEntry(ctx context.Context, db *gorm.DB, e *domain.GratitudeEntry) (*domain.GratitudeEntry, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	e.ID = "e1"
	e.CreatedAt = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	r.createEntry = e
	return e, nil
}

func (r *fakeEntryRepo) GetEntry(ctx context.Context, db *gorm.DB, id, userID string) (*domain.GratitudeEntry, error) {
	r.getID, r.getUserID = id, userID
	return r.getEntry, r.getErr
}

func (r *fakeEntryRepo) SaveEntry(ctx context.Context, db *gorm.DB, e *domain.GratitudeEntry) error {
	r.savedEntry = e
	return r.saveErr
}

func (r *fakeEntryRepo) DeleteEntry(ctx context.Context, db *gorm.DB, id, userID string) error {
	r.deleteID, r.deleteUserID = id, userID
	return r.deleteErr
}

func (r *fakeEntryRepo) CountEntries(ctx context.Context, db *gorm.DB, userID string, f repo.EntryFilter) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeEntryRepo) ListEntriesPage(ctx context.Context, db *gorm.DB, userID string, f repo.EntryFilter, offset, limit int) ([]domain.GratitudeEntry, error) {
	r.pageFilter, r.pageOffset, r.pageLimit = f, offset, limit
	return r.pageItems, r.pageErr
}

func (r *fakeEntryRepo) GetOrCreateProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	if r.profile == nil && r.profileErr == nil {
		r.profile = &domain.Profile{ID: userID}
	}
	return r.profile, r.profileErr
}

func (r *fakeEntryRepo) UpdateStreak(ctx context.Context, db *gorm.DB, userID string, current, longest int, lastDay time.Time) error {
	r.streakCalls++
	r.streakCurrent, r.streakLongest, r.streakLastDay = current, longest, lastDay
	return r.streakErr
}

func (r *fakeEntryRepo) UpsertMoodAnalytics(ctx context.Context, db *gorm.DB, userID string, day time.Time, intensity int) (*domain.MoodAnalytics, error) {
	r.moodCalls++
	r.moodDay, r.moodIntensity = day, intensity
	return &domain.MoodAnalytics{UserID: userID}, r.moodErr
}

func intptr(v int) *int { return &v }

// ----- Create -----

func TestCreate_EmptyContentRejectedBeforeWrite(t *testing.T) {
	r := &fakeEntryRepo{}
	s := NewEntryService(nil, r)

	_, err := s.Create(context.Background(), "u1", CreateEntryInput{Content: "   \n  "})
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("err = %v, want ErrEmptyContent", err)
	}
	if r.createEntry != nil {
		t.Fatalf("entry was persisted despite validation failure")
	}
	if r.streakCalls != 0 || r.moodCalls != 0 {
		t.Fatalf("derived writes ran despite validation failure")
	}
}

func TestCreate_ContentOverCapRejectedBeforeWrite(t *testing.T) {
	r := &fakeEntryRepo{}
	s := NewEntryService(nil, r)
	s.MaxContentRunes = 10

	long := strings.Repeat("é", 11) // rune count is what matters, not bytes
	_, err := s.Create(context.Background(), "u1", CreateEntryInput{Content: long})
	if !errors.Is(err, ErrContentTooLong) {
		t.Fatalf("err = %v, want ErrContentTooLong", err)
	}
	if r.createEntry != nil || r.streakCalls != 0 {
		t.Fatalf("writes ran despite validation failure")
	}

	if _, err := s.Create(context.Background(), "u1", CreateEntryInput{Content: strings.Repeat("é", 10)}); err != nil {
		t.Fatalf("content at the cap rejected: %v", err)
	}
}

func TestUpdate_ContentOverCapRejected(t *testing.T) {
	r := &fakeEntryRepo{getEntry: &domain.GratitudeEntry{ID: "e1", UserID: "u1", Content: "old"}}
	s := NewEntryService(nil, r)
	s.MaxContentRunes = 10

	long := strings.Repeat("x", 11)
	_, err := s.Update(context.Background(), "u1", "e1", UpdateEntryInput{Content: &long})
	if !errors.Is(err, ErrContentTooLong) {
		t.Fatalf("err = %v, want ErrContentTooLong", err)
	}
	if r.savedEntry != nil {
		t.Fatalf("entry was saved despite validation failure")
	}
}

func TestCreate_InvalidMoodIntensity(t *testing.T) {
	s := NewEntryService(nil, &fakeEntryRepo{})
	for _, v := range []int{0, 6, -1} {
		if _, err := s.Create(context.Background(), "u1", CreateEntryInput{
			Content:       "thankful",
			MoodIntensity: intptr(v),
		}); !errors.Is(err, ErrInvalidMoodIntensity) {
			t.Fatalf("intensity %d: err = %v, want ErrInvalidMoodIntensity", v, err)
		}
	}
}

func TestCreate_InvalidStickerMood(t *testing.T) {
	s := NewEntryService(nil, &fakeEntryRepo{})
	_, err := s.Create(context.Background(), "u1", CreateEntryInput{
		Content: "thankful",
		Sticker: &domain.StickerConfig{Mood: "furious"},
	})
	if !errors.Is(err, ErrInvalidSticker) {
		t.Fatalf("err = %v, want ErrInvalidSticker", err)
	}
}

func TestCreate_AdvancesStreakAndRecordsMood(t *testing.T) {
	r := &fakeEntryRepo{}
	s := NewEntryService(nil, r)

	e, err := s.Create(context.Background(), "u1", CreateEntryInput{
		Content:       "grateful for rain",
		MoodIntensity: intptr(4),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == "" {
		t.Fatalf("entry id not assigned")
	}
	if r.streakCalls != 1 {
		t.Fatalf("streak update calls = %d, want 1", r.streakCalls)
	}
	if r.streakCurrent != 1 || r.streakLongest != 1 {
		t.Fatalf("first entry streak = %d/%d, want 1/1", r.streakCurrent, r.streakLongest)
	}
	if r.moodCalls != 1 || r.moodIntensity != 4 {
		t.Fatalf("mood upsert calls/intensity = %d/%d, want 1/4", r.moodCalls, r.moodIntensity)
	}
}

func TestCreate_NoMoodNoAnalyticsWrite(t *testing.T) {
	r := &fakeEntryRepo{}
	s := NewEntryService(nil, r)

	if _, err := s.Create(context.Background(), "u1", CreateEntryInput{Content: "plain thanks"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.moodCalls != 0 {
		t.Fatalf("analytics written for a mood-less entry")
	}
}

func TestCreate_StreakFailureDoesNotSurface(t *testing.T) {
	r := &fakeEntryRepo{streakErr: errors.New("disk full")}
	s := NewEntryService(nil, r)

	if _, err := s.Create(context.Background(), "u1", CreateEntryInput{Content: "still thankful"}); err != nil {
		t.Fatalf("streak failure leaked to caller: %v", err)
	}
}

func TestCreate_NormalizesTags(t *testing.T) {
	r := &fakeEntryRepo{}
	s := NewEntryService(nil, r)

	e, err := s.Create(context.Background(), "u1", CreateEntryInput{
		Content: "walk in the park",
		Tags:    []string{" nature ", "nature", "NATURE", "", "family"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.Tags) != 2 || e.Tags[0] != "nature" || e.Tags[1] != "family" {
		t.Fatalf("tags = %v, want [nature family]", e.Tags)
	}
}

// ----- Update -----

func TestUpdate_NotFound(t *testing.T) {
	r := &fakeEntryRepo{getErr: gorm.ErrRecordNotFound}
	s := NewEntryService(nil, r)

	if _, err := s.Update(context.Background(), "u1", "missing", UpdateEntryInput{}); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("err = %v, want ErrEntryNotFound", err)
	}
}

func TestUpdate_RemoveSticker(t *testing.T) {
	r := &fakeEntryRepo{getEntry: &domain.GratitudeEntry{
		ID: "e1", UserID: "u1", Content: "old",
		Sticker: &domain.StickerConfig{Mood: domain.MoodHappy},
	}}
	s := NewEntryService(nil, r)

	e, err := s.Update(context.Background(), "u1", "e1", UpdateEntryInput{RemoveSticker: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Sticker != nil {
		t.Fatalf("sticker not cleared")
	}
	if r.savedEntry == nil {
		t.Fatalf("entry not saved")
	}
}

func TestUpdate_NeverTouchesStreak(t *testing.T) {
	r := &fakeEntryRepo{getEntry: &domain.GratitudeEntry{ID: "e1", UserID: "u1", Content: "old"}}
	s := NewEntryService(nil, r)

	if _, err := s.Update(context.Background(), "u1", "e1", UpdateEntryInput{
		MoodIntensity: intptr(5),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.streakCalls != 0 || r.moodCalls != 0 {
		t.Fatalf("edit moved streak or analytics")
	}
}

// ----- ListPage -----

func TestListPage_InvalidDateRange(t *testing.T) {
	s := NewEntryService(nil, &fakeEntryRepo{})
	from := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := s.ListPage(context.Background(), "u1", repo.EntryFilter{From: &from, To: &to}, 1, 20)
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
}

func TestListPage_DefaultsAndOffset(t *testing.T) {
	r := &fakeEntryRepo{countTotal: 50, pageItems: []domain.GratitudeEntry{{ID: "e1"}}}
	s := NewEntryService(nil, r)

	items, total, err := s.ListPage(context.Background(), "u1", repo.EntryFilter{}, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 50 || len(items) != 1 {
		t.Fatalf("total/items = %d/%d", total, len(items))
	}
	// pageSize defaulted to 20, so page 3 starts at offset 40.
	if r.pageOffset != 40 || r.pageLimit != 20 {
		t.Fatalf("offset/limit = %d/%d, want 40/20", r.pageOffset, r.pageLimit)
	}
}

func TestListPage_EmptyTotalSkipsQuery(t *testing.T) {
	r := &fakeEntryRepo{countTotal: 0, pageErr: errors.New("should not be called")}
	s := NewEntryService(nil, r)

	items, total, err := s.ListPage(context.Background(), "u1", repo.EntryFilter{}, 1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty page, got total=%d items=%d", total, len(items))
	}
}

// ----- ToggleFavorite / Delete -----

func TestToggleFavorite_Involution(t *testing.T) {
	entry := &domain.GratitudeEntry{ID: "e1", UserID: "u1", Content: "x"}
	r := &fakeEntryRepo{getEntry: entry}
	s := NewEntryService(nil, r)

	e, err := s.ToggleFavorite(context.Background(), "u1", "e1")
	if err != nil || !e.IsFavorite {
		t.Fatalf("first toggle: err=%v favorite=%v", err, e.IsFavorite)
	}
	e, err = s.ToggleFavorite(context.Background(), "u1", "e1")
	if err != nil || e.IsFavorite {
		t.Fatalf("second toggle: err=%v favorite=%v", err, e.IsFavorite)
	}
}

func TestDelete_NotFound(t *testing.T) {
	r := &fakeEntryRepo{deleteErr: gorm.ErrRecordNotFound}
	s := NewEntryService(nil, r)

	if err := s.Delete(context.Background(), "u1", "missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("err = %v, want ErrEntryNotFound", err)
	}
	if r.deleteID != "missing" || r.deleteUserID != "u1" {
		t.Fatalf("delete args = (%s, %s)", r.deleteID, r.deleteUserID)
	}
}
