package domain

import (
	"reflect"
	"testing"
)

func TestNormTag_CanonicalLowercase(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Food", "food"},
		{"  Live   Music ", "live music"},
		{"ROOFTOP", "rooftop"},
		{"Café", "café"},
		{"&amp;Friends", "&friends"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormTag(c.in); got != c.want {
			t.Errorf("NormTag(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormTag_Deterministic(t *testing.T) {
	t.Parallel()

	a := NormTag("Bangkok Nightlife")
	b := NormTag("bangkok NIGHTLIFE")
	if a != b {
		t.Fatalf("case variants must normalize identically: %q vs %q", a, b)
	}
	if a != NormTag("Bangkok Nightlife") {
		t.Fatalf("NormTag not stable across calls")
	}
}

func TestNormTags_DedupPreservesOrder(t *testing.T) {
	t.Parallel()

	got := NormTags([]string{"Food", "food", "  ", "Music", "FOOD", "art"})
	want := []string{"food", "music", "art"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormTags = %v, want %v", got, want)
	}
}

func TestNormTags_EmptyIsNil(t *testing.T) {
	t.Parallel()

	if got := NormTags(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := NormTags([]string{"", "  "}); got != nil {
		t.Fatalf("expected nil for all-empty input, got %v", got)
	}
}

func TestNormalizeText_UnescapesAndCollapses(t *testing.T) {
	t.Parallel()

	got := NormalizeText("  Fish &amp; Chips\n\t Night  ")
	if got != "Fish & Chips Night" {
		t.Fatalf("NormalizeText = %q", got)
	}
}

func TestSafeTruncate(t *testing.T) {
	t.Parallel()

	if got := SafeTruncate("short", 100); got != "short" {
		t.Fatalf("short strings pass through, got %q", got)
	}
	got := SafeTruncate("one two three four", 9)
	if got != "one two…" {
		t.Fatalf("SafeTruncate = %q", got)
	}
}

func TestRecord_HasCategoryAndFlag(t *testing.T) {
	t.Parallel()

	r := Record{
		Categories: []string{"food", "music"},
		Flags:      map[string]bool{"rooftop": true, "indoor": false},
	}
	if !r.HasCategory("Food") {
		t.Fatalf("category match should be case-insensitive")
	}
	if r.HasCategory("art") {
		t.Fatalf("unexpected category match")
	}
	if !r.HasFlag("Rooftop") {
		t.Fatalf("flag lookup should normalize its input")
	}
	if r.HasFlag("indoor") {
		t.Fatalf("false flags must not match")
	}
}
