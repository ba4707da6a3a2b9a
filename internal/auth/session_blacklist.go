package auth

import (
	"context"
	"sync"
	"time"
)

// JwtBlacklistStore remembers tokens that were logged out
type JwtBlacklistStore interface {
	// IsBlacklisted checks if the given token is blacklisted.
	IsBlacklisted(token string) (bool, error)
	// AddToBlacklist adds the given token to the blacklist until exp.
	AddToBlacklist(token string, exp time.Time) error
}

// InMemoryBlacklistStore is a JwtBlacklistStore kept in process memory
type InMemoryBlacklistStore struct {
	blacklist map[string]time.Time
	mu        sync.RWMutex
}

// NewInMemoryBlacklistStore returns an empty store. Call Run to drop expired entries periodically.
func NewInMemoryBlacklistStore() *InMemoryBlacklistStore {
	return &InMemoryBlacklistStore{
		blacklist: make(map[string]time.Time),
	}
}

// DefaultCleanupInterval is used by Run when the given interval is not positive
const DefaultCleanupInterval = 10 * time.Minute

// Run removes expired entries every interval until ctx is done
func (s *InMemoryBlacklistStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanUpExpired()
		}
	}
}

// CleanUpExpired removes every entry whose token already expired
func (s *InMemoryBlacklistStore) CleanUpExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, exp := range s.blacklist {
		if exp.Before(now) {
			delete(s.blacklist, token)
		}
	}
}

// Len is the number of blacklisted tokens
func (s *InMemoryBlacklistStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blacklist)
}

// IsBlacklisted implements JwtBlacklistStore
func (s *InMemoryBlacklistStore) IsBlacklisted(token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.blacklist[token]
	return exists, nil
}

// AddToBlacklist implements JwtBlacklistStore
func (s *InMemoryBlacklistStore) AddToBlacklist(token string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blacklist[token] = exp
	return nil
}
