package ratelimit

import (
	"context"
	"sync"
	"time"

	"channel-relay-bot/internal/domain/ports/repository"
)

var _ repository.RateStore = (*MemoryStore)(nil)

type userState struct {
	lastMessage time.Time // zero until the first admitted message
	windowStart time.Time
	count       int
}

// MemoryStore keeps rate state and the active-user set in process memory.
type MemoryStore struct {
	opts Options

	mu     sync.Mutex
	users  map[int64]*userState
	active map[int64]time.Time
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:   opts,
		users:  make(map[int64]*userState),
		active: make(map[int64]time.Time),
	}
}

func (s *MemoryStore) Admit(_ context.Context, userID int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.users[userID]
	if !ok {
		st = &userState{windowStart: now}
		s.users[userID] = st
	}
	if now.Sub(st.windowStart) >= s.opts.Window {
		st.count = 0
		st.windowStart = now
	}
	if st.count >= s.opts.MaxPerWindow {
		return false, nil
	}
	if !st.lastMessage.IsZero() && now.Sub(st.lastMessage) < s.opts.Cooldown {
		return false, nil
	}
	st.lastMessage = now
	st.count++
	return true, nil
}

func (s *MemoryStore) Touch(_ context.Context, userID int64, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[userID]; !ok && len(s.active) >= s.opts.MaxActive {
		return false, nil
	}
	s.active[userID] = now
	return true, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.opts.InactiveAfter)
	removed := 0
	for id, seen := range s.active {
		if seen.Before(cutoff) {
			delete(s.active, id)
			removed++
		}
	}
	for id, st := range s.users {
		last := st.lastMessage
		if last.IsZero() {
			last = st.windowStart
		}
		if last.Before(cutoff) {
			delete(s.users, id)
		}
	}
	return removed, nil
}

func (s *MemoryStore) ActiveCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active), nil
}

// tracked reports whether rate state exists for the user.
func (s *MemoryStore) tracked(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[userID]
	return ok
}
