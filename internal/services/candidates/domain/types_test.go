package domain

import "testing"

func TestKeys_DeterministicAndCaseInsensitive(t *testing.T) {
	t.Parallel()

	a := KeyForCategory("Bangkok", "2026-09-01", "Food")
	b := KeyForCategory("bangkok", "2026-09-01", "food")
	if a != b {
		t.Fatalf("case variants must build the same key: %q vs %q", a, b)
	}
	if a != "cand:v1:bangkok:2026-09-01:food" {
		t.Fatalf("unexpected category key %q", a)
	}

	f := KeyForFlag("BANGKOK", "2026-09-01", "Rooftop")
	if f != "cand:v1:bangkok:2026-09-01:flag:rooftop" {
		t.Fatalf("unexpected flag key %q", f)
	}

	base := BaseKey(" Bangkok ", "2026-09-01")
	if base != "cand:v1:bangkok:2026-09-01" {
		t.Fatalf("unexpected base key %q", base)
	}
}

func TestKeys_StableAcrossCalls(t *testing.T) {
	t.Parallel()

	k1 := KeyForCategory("chiangmai", "2026-12-31", "live music")
	k2 := KeyForCategory("chiangmai", "2026-12-31", "live music")
	if k1 != k2 {
		t.Fatalf("key not stable: %q vs %q", k1, k2)
	}
}
