package memory

import (
	"context"
	"sync"

	"flag-quiz-service/internal/domain"
)

// ScoreStore is an in-memory implementation of app.ScoreStore.
type ScoreStore struct {
	mu      sync.RWMutex
	records []domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{}
}

func (s *ScoreStore) Append(_ context.Context, record domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *ScoreStore) ByUser(_ context.Context, userID, gameType string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.ScoreRecord, 0)
	for _, record := range s.records {
		if record.UserID == userID && record.GameType == gameType {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (s *ScoreStore) ByGame(_ context.Context, gameType string, difficulty domain.Difficulty) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.ScoreRecord, 0)
	for _, record := range s.records {
		if record.GameType == gameType && record.Difficulty == difficulty {
			matched = append(matched, record)
		}
	}
	return matched, nil
}
