package cache

import (
	"context"
	"sync"
	"time"
)

// memorySweepInterval controls how often the background sweep removes
// expired entries that are never read again.
const memorySweepInterval = time.Minute

type memoryEntry struct {
	value []byte
	// expiresAt is zero when the entry never expires.
	expiresAt time.Time
}

// MemoryProvider is a process-local Provider backed by a mutex-guarded map.
// Values are copied on write and on read, so callers may mutate their
// slices freely. Expired entries are dropped lazily on Get and by a
// background sweep that runs until Close.
type MemoryProvider struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryProvider creates an in-memory cache and starts its sweep
// goroutine. Call Close to stop the sweep and release the stored entries.
func NewMemoryProvider() *MemoryProvider {
	p := &MemoryProvider{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
		done:    make(chan struct{}),
	}
	go p.sweepLoop()
	return p
}

// Get returns the value stored under key, or ErrCacheMiss when the key is
// absent or its entry has expired.
func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && p.clock().After(entry.expiresAt) {
		delete(p.entries, key)
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), entry.value...), nil
}

// Set stores value under key. A ttl greater than zero bounds the entry's
// lifetime; any other ttl stores the entry without an expiry.
func (p *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = p.clock().Add(ttl)
	}
	p.entries[key] = entry
	return nil
}

// Del removes key from the cache. Deleting an absent key is not an error.
func (p *MemoryProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.entries, key)
	return nil
}

// Close stops the sweep goroutine and drops all stored entries. It is
// safe to call more than once.
func (p *MemoryProvider) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		p.entries = make(map[string]memoryEntry)
		p.mu.Unlock()
	})
	return nil
}

func (p *MemoryProvider) sweepLoop() {
	ticker := time.NewTicker(memorySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.removeExpired()
		}
	}
}

func (p *MemoryProvider) removeExpired() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()
	for key, entry := range p.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(p.entries, key)
		}
	}
}

var _ Provider = (*MemoryProvider)(nil)
var _ Provider = NoopProvider{}
