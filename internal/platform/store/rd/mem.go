package rd

import (
	"context"
	"sync"
	"time"
)

// memKV is the in-process KV implementation. It backs dev/test runs and any
// deployment that opts out of a remote backend; business logic only ever sees
// the KV interface so the two are interchangeable at construction time
type memKV struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	val       []byte
	expiresAt time.Time
}

// OpenMemory returns an in-memory KV with per-key TTL expiry
func OpenMemory() KV {
	return &memKV{m: make(map[string]memEntry), now: time.Now}
}

func (k *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && k.now().After(e.expiresAt) {
		delete(k.m, key)
		return nil, false, nil
	}
	// copy so callers can't mutate the stored value
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, true, nil
}

func (k *memKV) SetEx(_ context.Context, key string, val []byte, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	cp := make([]byte, len(val))
	copy(cp, val)
	var exp time.Time
	if ttl > 0 {
		exp = k.now().Add(ttl)
	}
	k.m[key] = memEntry{val: cp, expiresAt: exp}
	return nil
}

func (k *memKV) Ping(context.Context) error { return nil }

func (k *memKV) Endpoint() string { return "mem:local" }

func (k *memKV) Close() error { return nil }
