package redis

import (
	"context"
	"strconv"

	"flag-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProgressStore keeps best scores and the unlock ledger in Redis:
//
//	HSET progress:{userId}:{gameType} {difficulty} {bestScore}
//	SADD unlocks:{userId}:{gameType}  {difficulty}
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) BestScore(ctx context.Context, userID, gameType string, difficulty domain.Difficulty) (int, error) {
	raw, err := s.client.HGet(ctx, progressKey(userID, gameType), string(difficulty)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

func (s *ProgressStore) SetBestScore(ctx context.Context, userID, gameType string, difficulty domain.Difficulty, score int) error {
	return s.client.HSet(ctx, progressKey(userID, gameType), string(difficulty), score).Err()
}

func (s *ProgressStore) UnlockedLevels(ctx context.Context, userID, gameType string) ([]domain.Difficulty, error) {
	members, err := s.client.SMembers(ctx, unlockKey(userID, gameType)).Result()
	if err != nil {
		return nil, err
	}
	set := make(map[domain.Difficulty]struct{}, len(members))
	for _, member := range members {
		set[domain.Difficulty(member)] = struct{}{}
	}

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

func (s *ProgressStore) Unlock(ctx context.Context, userID, gameType string, difficulty domain.Difficulty) error {
	return s.client.SAdd(ctx, unlockKey(userID, gameType), string(difficulty)).Err()
}

func progressKey(userID, gameType string) string {
	return "progress:" + userID + ":" + gameType
}

func unlockKey(userID, gameType string) string {
	return "unlocks:" + userID + ":" + gameType
}
