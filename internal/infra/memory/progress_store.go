package memory

import (
	"context"
	"sync"

	"flag-quiz-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore. Best
// scores are keyed by (user, game, difficulty); unlocked tiers live in a
// single set per (user, game) with easy always present.
type ProgressStore struct {
	mu       sync.RWMutex
	best     map[progressKey]int
	unlocked map[unlockKey]map[domain.Difficulty]struct{}
}

type progressKey struct {
	userID     string
	gameType   string
	difficulty domain.Difficulty
}

type unlockKey struct {
	userID   string
	gameType string
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		best:     make(map[progressKey]int),
		unlocked: make(map[unlockKey]map[domain.Difficulty]struct{}),
	}
}

func (s *ProgressStore) BestScore(_ context.Context, userID, gameType string, difficulty domain.Difficulty) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.best[progressKey{userID, gameType, difficulty}], nil
}

func (s *ProgressStore) SetBestScore(_ context.Context, userID, gameType string, difficulty domain.Difficulty, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.best[progressKey{userID, gameType, difficulty}] = score
	return nil
}

func (s *ProgressStore) UnlockedLevels(_ context.Context, userID, gameType string) ([]domain.Difficulty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.unlocked[unlockKey{userID, gameType}]

	levels := []domain.Difficulty{domain.DifficultyEasy}
	for _, tier := range domain.Difficulties {
		if tier == domain.DifficultyEasy {
			continue
		}
		if _, ok := set[tier]; ok {
			levels = append(levels, tier)
		}
	}
	return levels, nil
}

func (s *ProgressStore) Unlock(_ context.Context, userID, gameType string, difficulty domain.Difficulty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := unlockKey{userID, gameType}
	if s.unlocked[key] == nil {
		s.unlocked[key] = make(map[domain.Difficulty]struct{})
	}
	s.unlocked[key][difficulty] = struct{}{}
	return nil
}
