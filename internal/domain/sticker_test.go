package domain

import (
	"strings"
	"testing"
)

func TestStickerNormalize_LowercasesMoodAndFillsColor(t *testing.T) {
	s := &StickerConfig{Mood: "  Grateful ", Text: "  first coffee  "}
	if err := s.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mood != MoodGrateful {
		t.Errorf("mood = %q, want %q", s.Mood, MoodGrateful)
	}
	if s.Color != MoodGrateful.DefaultColor() {
		t.Errorf("color = %q, want catalog default %q", s.Color, MoodGrateful.DefaultColor())
	}
	if s.Text != "first coffee" {
		t.Errorf("text = %q, want trimmed caption", s.Text)
	}
}

func TestStickerNormalize_KeepsExplicitColor(t *testing.T) {
	s := &StickerConfig{Mood: MoodHappy, Color: "#123456"}
	if err := s.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Color != "#123456" {
		t.Errorf("color = %q, user override replaced", s.Color)
	}
}

func TestStickerNormalize_UnknownMoodRejected(t *testing.T) {
	s := &StickerConfig{Mood: "furious"}
	if err := s.Normalize(); err == nil {
		t.Fatal("expected error for mood outside the catalog")
	}
}

func TestStickerNormalize_CaptionCap(t *testing.T) {
	at := &StickerConfig{Mood: MoodJoyful, Text: strings.Repeat("a", StickerTextMaxLen)}
	if err := at.Normalize(); err != nil {
		t.Fatalf("caption at the cap rejected: %v", err)
	}

	over := &StickerConfig{Mood: MoodJoyful, Text: strings.Repeat("a", StickerTextMaxLen+1)}
	if err := over.Normalize(); err == nil {
		t.Fatal("expected error for caption over the cap")
	}

	// The cap counts runes, not bytes.
	wide := &StickerConfig{Mood: MoodJoyful, Text: strings.Repeat("é", StickerTextMaxLen)}
	if err := wide.Normalize(); err != nil {
		t.Fatalf("multibyte caption at the cap rejected: %v", err)
	}
}

func TestStickerNormalize_NilReceiverIsNoop(t *testing.T) {
	var s *StickerConfig
	if err := s.Normalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStickerColumnRoundTrip(t *testing.T) {
	in := &StickerConfig{Mood: MoodPeaceful, Color: "#A7F3D0", Text: "calm"}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	raw, ok := v.(string)
	if !ok {
		t.Fatalf("Value type = %T, want string", v)
	}

	var out StickerConfig
	if err := out.Scan(raw); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out != *in {
		t.Errorf("round trip = %+v, want %+v", out, *in)
	}
}

func TestStickerColumn_NilAndNull(t *testing.T) {
	var s *StickerConfig
	v, err := s.Value()
	if err != nil || v != nil {
		t.Fatalf("nil sticker Value = (%v, %v), want (nil, nil)", v, err)
	}

	var out StickerConfig
	if err := out.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if out != (StickerConfig{}) {
		t.Errorf("Scan(nil) mutated receiver: %+v", out)
	}

	if err := out.Scan(42); err == nil {
		t.Fatal("expected error for unsupported column type")
	}
}

func TestStringListRoundTrip(t *testing.T) {
	in := StringList{"family", "morning walks"}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out StringList
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out) != 2 || out[0] != "family" || out[1] != "morning walks" {
		t.Errorf("round trip = %v", out)
	}
}

func TestStringList_EmptyStoredAsNull(t *testing.T) {
	v, err := StringList{}.Value()
	if err != nil || v != nil {
		t.Fatalf("empty list Value = (%v, %v), want (nil, nil)", v, err)
	}

	out := StringList{"stale"}
	if err := out.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if out != nil {
		t.Errorf("Scan(nil) = %v, want nil", out)
	}
}
