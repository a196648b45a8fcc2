// Package domain defines the persistence models for gratitude entries,
// profiles, mood analytics, and the companion conversation log. These types
// are mapped with GORM and form the core data layer of the application.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// GratitudeEntry is a single journal record owned by one user. Entries are
// created on submit, mutated on edit/favorite toggle, and removed on delete;
// there are no cross-entry relationships beyond the shared user id.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: opaque identifier of the owner; indexed for retrieval.
//   - Content: the gratitude text; always non-empty after trimming
//     (enforced by the service layer before persistence).
//   - IsPublic / IsFavorite: visibility and favorite flags.
//   - MoodIntensity: optional self-reported strength of the feeling (1–5).
//   - Sticker: optional mood decoration, serialized to a JSON TEXT column.
//   - StickerMood: denormalized copy of Sticker.Mood used for indexed
//     filtering; kept in sync by the repository on every write.
//   - Tags: optional labels, serialized as JSON.
type GratitudeEntry struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string         `json:"user_id"        gorm:"type:varchar(64);not null;index:idx_user_entries,priority:1"`
	Content       string         `json:"content"        gorm:"type:text;not null"`
	IsPublic      bool           `json:"is_public"      gorm:"not null;default:false"`
	IsFavorite    bool           `json:"is_favorite"    gorm:"not null;default:false"`
	MoodIntensity *int           `json:"mood_intensity,omitempty" gorm:"check:mood_intensity BETWEEN 1 AND 5"`
	Sticker       *StickerConfig `json:"sticker,omitempty" gorm:"type:text"`
	StickerMood   string         `json:"-"              gorm:"type:varchar(16);index"`
	Tags          StringList     `json:"tags,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"     gorm:"index:idx_user_entries,priority:2"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for GratitudeEntry.
func (GratitudeEntry) TableName() string { return "gratitude_entries" }

// Profile holds per-user display fields and the streak counters advanced on
// every new entry. Exactly one row per user; created lazily on first access.
//
// CurrentStreak counts consecutive calendar days with at least one entry,
// LongestStreak is the historical maximum, and LastGratitudeDate is the day
// (UTC, day granularity) of the most recent entry. The counters move only on
// entry creation, never on edit or delete.
type Profile struct {
	ID                string         `json:"id"                  gorm:"type:varchar(64);primaryKey"`
	Username          string         `json:"username"            gorm:"type:varchar(64)"`
	FullName          string         `json:"full_name"           gorm:"type:varchar(128)"`
	AvatarURL         string         `json:"avatar_url"          gorm:"type:varchar(512)"`
	CurrentStreak     int            `json:"current_streak"      gorm:"not null;default:0;check:current_streak >= 0"`
	LongestStreak     int            `json:"longest_streak"      gorm:"not null;default:0;check:longest_streak >= 0"`
	LastGratitudeDate *time.Time     `json:"last_gratitude_date,omitempty" gorm:"type:date"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// MoodAnalytics is the per-user, per-day mood aggregate used for charting.
// Exactly one row per (user_id, date); upserted on entry creation when the
// entry carries a mood intensity. AverageMoodIntensity is a running mean
// over the day's TotalEntries.
type MoodAnalytics struct {
	ID                   string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID               string    `json:"user_id"   gorm:"type:varchar(64);not null;uniqueIndex:ux_mood_user_date,priority:1"`
	Date                 time.Time `json:"date"      gorm:"type:date;not null;uniqueIndex:ux_mood_user_date,priority:2"`
	AverageMoodIntensity float64   `json:"average_mood_intensity" gorm:"not null"`
	TotalEntries         int       `json:"total_entries"          gorm:"not null;default:0"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName returns the database table name for MoodAnalytics.
func (MoodAnalytics) TableName() string { return "mood_analytics" }

// ConversationMessage is one utterance in the companion chat. The log is
// append-only: rows are never mutated or deleted. IsAI distinguishes
// assistant replies from user messages; SessionID/SessionTopic group
// messages into optional named sessions.
type ConversationMessage struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_user_msgs,priority:1"`
	Message      string    `json:"message"       gorm:"type:text;not null"`
	IsAI         bool      `json:"is_ai"         gorm:"not null;default:false"`
	SessionID    string    `json:"session_id,omitempty"    gorm:"type:char(36);index"`
	SessionTopic string    `json:"session_topic,omitempty" gorm:"type:varchar(120)"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index:idx_user_msgs,priority:2"`
}

// TableName returns the database table name for ConversationMessage.
func (ConversationMessage) TableName() string { return "conversations" }

// UserPreferences carries the optional persona hints the chat companion
// weaves into its system prompt (age and interests). One row per user.
type UserPreferences struct {
	UserID    string     `json:"user_id"   gorm:"type:varchar(64);primaryKey"`
	Age       *int       `json:"age,omitempty"`
	Interests StringList `json:"interests,omitempty" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName returns the database table name for UserPreferences.
func (UserPreferences) TableName() string { return "user_preferences" }

// StringList stores a slice of strings as a JSON TEXT column. An empty list
// is stored as NULL so absent and empty mean the same thing on read.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, (*[]string)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(l))
	default:
		return errors.New("unsupported column type for StringList")
	}
}
