// Package domain defines the core persistence models for the application.
// This file holds the sticker value object attached to gratitude entries:
// a named mood, a display color, and an optional short caption.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// Mood is one of the named moods a sticker can express.
type Mood string

// The full mood catalog. Each mood carries a default display color; the
// stored color is independent so a user can override it.
const (
	MoodHappy      Mood = "happy"
	MoodExcited    Mood = "excited"
	MoodLoved      Mood = "loved"
	MoodPeaceful   Mood = "peaceful"
	MoodGrateful   Mood = "grateful"
	MoodConfident  Mood = "confident"
	MoodBlessed    Mood = "blessed"
	MoodJoyful     Mood = "joyful"
	MoodOptimistic Mood = "optimistic"
	MoodEnergetic  Mood = "energetic"
	MoodContent    Mood = "content"
	MoodInspired   Mood = "inspired"
)

// StickerTextMaxLen caps the sticker caption length in runes.
const StickerTextMaxLen = 20

// moodColors maps each mood to its default display color.
var moodColors = map[Mood]string{
	MoodHappy:      "#FDE68A",
	MoodExcited:    "#F97316",
	MoodLoved:      "#FB7185",
	MoodPeaceful:   "#A7F3D0",
	MoodGrateful:   "#F4E7FF",
	MoodConfident:  "#0EA5E9",
	MoodBlessed:    "#FCD34D",
	MoodJoyful:     "#D946EF",
	MoodOptimistic: "#F2FCE2",
	MoodEnergetic:  "#FB923C",
	MoodContent:    "#9B87F5",
	MoodInspired:   "#67E8F9",
}

// Valid reports whether m is part of the mood catalog.
func (m Mood) Valid() bool {
	_, ok := moodColors[m]
	return ok
}

// DefaultColor returns the catalog color for m, or "" for unknown moods.
func (m Mood) DefaultColor() string { return moodColors[m] }

// Moods returns the catalog in a stable order, for validation messages and
// client pickers.
func Moods() []Mood {
	return []Mood{
		MoodHappy, MoodExcited, MoodLoved, MoodPeaceful, MoodGrateful,
		MoodConfident, MoodBlessed, MoodJoyful, MoodOptimistic,
		MoodEnergetic, MoodContent, MoodInspired,
	}
}

// StickerConfig is the mood/color/caption decoration embedded in a
// GratitudeEntry. It has no lifecycle of its own: it is stored inline as a
// JSON TEXT column and lives and dies with its entry.
type StickerConfig struct {
	Mood  Mood   `json:"mood"`
	Color string `json:"color"`
	Text  string `json:"text,omitempty"`
}

// Normalize validates the sticker and fills derived fields: the mood must be
// in the catalog, the caption is trimmed and capped at StickerTextMaxLen
// runes, and a missing color falls back to the mood's default.
func (s *StickerConfig) Normalize() error {
	if s == nil {
		return nil
	}
	s.Mood = Mood(strings.ToLower(strings.TrimSpace(string(s.Mood))))
	if !s.Mood.Valid() {
		return errors.New("unknown sticker mood")
	}
	s.Text = strings.TrimSpace(s.Text)
	if utf8.RuneCountInString(s.Text) > StickerTextMaxLen {
		return errors.New("sticker text too long")
	}
	if strings.TrimSpace(s.Color) == "" {
		s.Color = s.Mood.DefaultColor()
	}
	return nil
}

// Value implements driver.Valuer so GORM can persist the sticker as JSON.
// A nil sticker is stored as NULL.
func (s *StickerConfig) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the JSON sticker column.
func (s *StickerConfig) Scan(value any) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported column type for StickerConfig")
	}
}
