package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultPublicTokenLedgerMaxEntries = 8192

// PublicTokenKey derives the ledger key for a public token. The raw token is
// never stored.
func PublicTokenKey(publicToken Secret) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(publicToken.Reveal())))
	return "public_token:" + hex.EncodeToString(sum[:])
}

// MemoryPublicTokenLedger is a process-local claim set with TTL expiry. Live
// claims are never evicted; once maxEntries live claims are held, new claims
// fail with ErrPublicTokenLedgerFull until entries expire.
type MemoryPublicTokenLedger struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	maxEntries int
	entries    map[string]time.Time
	Now        func() time.Time
}

func NewMemoryPublicTokenLedger(defaultTTL time.Duration) *MemoryPublicTokenLedger {
	return NewMemoryPublicTokenLedgerWithLimits(defaultTTL, defaultPublicTokenLedgerMaxEntries)
}

func NewMemoryPublicTokenLedgerWithLimits(defaultTTL time.Duration, maxEntries int) *MemoryPublicTokenLedger {
	if defaultTTL <= 0 {
		defaultTTL = DefaultPublicTokenTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultPublicTokenLedgerMaxEntries
	}
	return &MemoryPublicTokenLedger{
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		entries:    map[string]time.Time{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (l *MemoryPublicTokenLedger) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if l == nil {
		return false, fmt.Errorf("core: public token ledger is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("core: ledger key is required")
	}
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneExpiredLocked(now)
	if expiresAt, ok := l.entries[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	if len(l.entries) >= l.maxEntries {
		return false, ErrPublicTokenLedgerFull
	}
	l.entries[key] = now.Add(ttl)
	return true, nil
}

// Len reports live claims, expired entries included until the next prune.
func (l *MemoryPublicTokenLedger) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *MemoryPublicTokenLedger) PurgeExpired(_ context.Context) (int, error) {
	if l == nil {
		return 0, fmt.Errorf("core: public token ledger is not configured")
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	before := len(l.entries)
	l.pruneExpiredLocked(now)
	return before - len(l.entries), nil
}

func (l *MemoryPublicTokenLedger) now() time.Time {
	if l != nil && l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *MemoryPublicTokenLedger) pruneExpiredLocked(now time.Time) {
	for key, expiresAt := range l.entries {
		if !now.Before(expiresAt) {
			delete(l.entries, key)
		}
	}
}
