// Package domain defines the candidate-list cache keys, payload, and read statuses
package domain

import (
	"strings"

	catdom "citypulse/internal/services/catalog/domain"
)

// Namespace versions the key scheme; bump it to invalidate every entry at once
const Namespace = "cand:v1"

// Status is the freshness outcome of a cache read
type Status string

// Read statuses; BYPASS means the backend was never consulted
const (
	StatusHit    Status = "HIT"
	StatusStale  Status = "STALE"
	StatusMiss   Status = "MISS"
	StatusBypass Status = "BYPASS"
)

// Entry is the stored payload: the candidate ids plus the creation time
// used to compute logical freshness at read time
type Entry struct {
	IDs []string `json:"ids"`
	TS  int64    `json:"ts"`
}

// KeyForCategory builds "<ns>:<city>:<day>:<category>", lowercased and deterministic
func KeyForCategory(city, dayISO, category string) string {
	return Namespace + ":" + normCity(city) + ":" + dayISO + ":" + catdom.NormTag(category)
}

// KeyForFlag builds "<ns>:<city>:<day>:flag:<flag>"
func KeyForFlag(city, dayISO, flag string) string {
	return Namespace + ":" + normCity(city) + ":" + dayISO + ":flag:" + catdom.NormTag(flag)
}

// BaseKey builds the bare per-day key. It is written even when a day has no
// records so consumers can tell "checked, nothing found" from "never ingested"
func BaseKey(city, dayISO string) string {
	return Namespace + ":" + normCity(city) + ":" + dayISO
}

func normCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
