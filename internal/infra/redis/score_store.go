package redis

import (
	"context"
	"encoding/json"

	"flag-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ScoreStore keeps append-only score records in Redis lists:
//
//	LPUSH scores:game:{gameType}:{difficulty} {recordJSON}
//	LPUSH scores:user:{userId}:{gameType}     {recordJSON}
type ScoreStore struct {
	client *redis.Client
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

func (s *ScoreStore) Append(ctx context.Context, record domain.ScoreRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, gameKey(record.GameType, record.Difficulty), raw)
	pipe.LPush(ctx, userKey(record.UserID, record.GameType), raw)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *ScoreStore) ByUser(ctx context.Context, userID, gameType string) ([]domain.ScoreRecord, error) {
	return s.list(ctx, userKey(userID, gameType))
}

func (s *ScoreStore) ByGame(ctx context.Context, gameType string, difficulty domain.Difficulty) ([]domain.ScoreRecord, error) {
	return s.list(ctx, gameKey(gameType, difficulty))
}

func (s *ScoreStore) list(ctx context.Context, key string) ([]domain.ScoreRecord, error) {
	raws, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	records := make([]domain.ScoreRecord, 0, len(raws))
	for _, raw := range raws {
		var record domain.ScoreRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func gameKey(gameType string, difficulty domain.Difficulty) string {
	return "scores:game:" + gameType + ":" + string(difficulty)
}

func userKey(userID, gameType string) string {
	return "scores:user:" + userID + ":" + gameType
}
