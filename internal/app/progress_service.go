package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/metrics"
)

// defaultLeaderboardLimit matches the API default and is used for feed snapshots.
const defaultLeaderboardLimit = 10

// ScoreStore persists append-only score records.
type ScoreStore interface {
	Append(ctx context.Context, record domain.ScoreRecord) error
	ByUser(ctx context.Context, userID, gameType string) ([]domain.ScoreRecord, error)
	ByGame(ctx context.Context, gameType string, difficulty domain.Difficulty) ([]domain.ScoreRecord, error)
}

// ProgressStore holds per-user best scores and the unlock ledger. Best scores
// are keyed by (user, game, difficulty); the unlock ledger is a single set per
// (user, game).
type ProgressStore interface {
	BestScore(ctx context.Context, userID, gameType string, difficulty domain.Difficulty) (int, error)
	SetBestScore(ctx context.Context, userID, gameType string, difficulty domain.Difficulty, score int) error
	UnlockedLevels(ctx context.Context, userID, gameType string) ([]domain.Difficulty, error)
	Unlock(ctx context.Context, userID, gameType string, difficulty domain.Difficulty) error
}

type feedKey struct {
	gameType   string
	difficulty domain.Difficulty
}

// ProgressService records score submissions, tracks best scores and tier
// unlocks, and answers progress and leaderboard queries.
type ProgressService struct {
	scores   ScoreStore
	progress ProgressStore
	now      func() time.Time
	newID    func() string

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	feedMu      sync.Mutex
	subscribers map[feedKey]map[chan domain.Leaderboard]struct{}
}

func NewProgressService(scores ScoreStore, progress ProgressStore) *ProgressService {
	return NewProgressServiceWithClock(scores, progress, time.Now)
}

// NewProgressServiceWithClock is test-only for deterministic timestamps.
func NewProgressServiceWithClock(scores ScoreStore, progress ProgressStore, now func() time.Time) *ProgressService {
	return &ProgressService{
		scores:      scores,
		progress:    progress,
		now:         now,
		newID:       uuid.NewString,
		locks:       make(map[string]*sync.Mutex),
		subscribers: make(map[feedKey]map[chan domain.Leaderboard]struct{}),
	}
}

// Submit validates and records a score, then updates the best score and
// unlock ledger under a per-key critical section so concurrent submissions
// for the same user and tier cannot lose an update.
func (s *ProgressService) Submit(ctx context.Context, sub domain.ScoreSubmission) (domain.SubmissionResult, error) {
	if sub.UserID == "" || sub.GameType == "" || sub.Difficulty == "" || sub.Score < 0 {
		return domain.SubmissionResult{}, domain.ErrValidation
	}
	tier, err := domain.ParseDifficulty(sub.Difficulty)
	if err != nil {
		return domain.SubmissionResult{}, domain.ErrValidation
	}

	accuracy := 0.0
	if sub.QuestionsAnswered > 0 {
		accuracy = float64(sub.CorrectAnswers) / float64(sub.QuestionsAnswered) * 100
	}
	record := domain.ScoreRecord{
		ID:                fmt.Sprintf("%s_%s_%s_%s", sub.UserID, sub.GameType, tier, s.newID()),
		UserID:            sub.UserID,
		GameType:          sub.GameType,
		Difficulty:        tier,
		Score:             sub.Score,
		QuestionsAnswered: sub.QuestionsAnswered,
		CorrectAnswers:    sub.CorrectAnswers,
		Accuracy:          accuracy,
		Timestamp:         s.now(),
	}

	unlock := s.lockFor(sub.UserID + "\x00" + sub.GameType + "\x00" + string(tier))
	defer unlock()

	if err := s.scores.Append(ctx, record); err != nil {
		return domain.SubmissionResult{}, err
	}

	best, err := s.progress.BestScore(ctx, sub.UserID, sub.GameType, tier)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	newBest := sub.Score > best
	if newBest {
		best = sub.Score
		if err := s.progress.SetBestScore(ctx, sub.UserID, sub.GameType, tier, best); err != nil {
			return domain.SubmissionResult{}, err
		}
		if next, ok := tier.Next(); ok {
			if err := s.progress.Unlock(ctx, sub.UserID, sub.GameType, next); err != nil {
				return domain.SubmissionResult{}, err
			}
		}
	}

	unlocked, err := s.progress.UnlockedLevels(ctx, sub.UserID, sub.GameType)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	metrics.ScoresSubmitted.Inc()
	s.broadcast(ctx, sub.GameType, tier)

	return domain.SubmissionResult{
		ScoreID:        record.ID,
		NewBestScore:   newBest,
		BestScore:      best,
		UnlockedLevels: unlocked,
	}, nil
}

// QueryProgress reports best scores per tier, the unlock ledger, and the ten
// most recent scores for a user and game.
func (s *ProgressService) QueryProgress(ctx context.Context, userID, gameType string) (domain.ProgressView, error) {
	high := make(map[domain.Difficulty]int, len(domain.Difficulties))
	for _, tier := range domain.Difficulties {
		best, err := s.progress.BestScore(ctx, userID, gameType, tier)
		if err != nil {
			return domain.ProgressView{}, err
		}
		high[tier] = best
	}

	unlocked, err := s.progress.UnlockedLevels(ctx, userID, gameType)
	if err != nil {
		return domain.ProgressView{}, err
	}

	records, err := s.scores.ByUser(ctx, userID, gameType)
	if err != nil {
		return domain.ProgressView{}, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	total := len(records)
	if len(records) > 10 {
		records = records[:10]
	}

	return domain.ProgressView{
		HighScores:       high,
		UnlockedLevels:   unlocked,
		RecentScores:     records,
		TotalGamesPlayed: total,
	}, nil
}

// QueryLeaderboard ranks users for a game and tier. Each user is first
// reduced to their single best score, then the result is sorted and truncated
// to limit with dense ranks. Deduplicating before truncation means a user's
// weaker scores can never shadow their best one out of the board.
func (s *ProgressService) QueryLeaderboard(ctx context.Context, gameType string, difficulty domain.Difficulty, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	records, err := s.scores.ByGame(ctx, gameType, difficulty)
	if err != nil {
		return nil, err
	}

	bestByUser := make(map[string]domain.ScoreRecord)
	for _, record := range records {
		cur, ok := bestByUser[record.UserID]
		if !ok || record.Score > cur.Score || (record.Score == cur.Score && record.Timestamp.Before(cur.Timestamp)) {
			bestByUser[record.UserID] = record
		}
	}

	top := make([]domain.ScoreRecord, 0, len(bestByUser))
	for _, record := range bestByUser {
		top = append(top, record)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score != top[j].Score {
			return top[i].Score > top[j].Score
		}
		// Tie-break by who reached the score earlier, then by user id.
		if !top[i].Timestamp.Equal(top[j].Timestamp) {
			return top[i].Timestamp.Before(top[j].Timestamp)
		}
		return top[i].UserID < top[j].UserID
	})
	if len(top) > limit {
		top = top[:limit]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(top))
	for i, record := range top {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:      i + 1,
			UserID:    record.UserID,
			Score:     record.Score,
			Accuracy:  record.Accuracy,
			Timestamp: record.Timestamp,
		})
	}
	return entries, nil
}

// Subscribe returns a channel that receives leaderboard snapshots for a game
// and tier: one immediately, then one after every score submission. The
// caller must invoke the returned cancel function to avoid leaks.
func (s *ProgressService) Subscribe(ctx context.Context, gameType string, difficulty domain.Difficulty) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.snapshot(ctx, gameType, difficulty)
	if err != nil {
		return nil, nil, err
	}

	key := feedKey{gameType: gameType, difficulty: difficulty}
	ch := make(chan domain.Leaderboard, 8)

	s.feedMu.Lock()
	if s.subscribers[key] == nil {
		s.subscribers[key] = make(map[chan domain.Leaderboard]struct{})
	}
	s.subscribers[key][ch] = struct{}{}
	s.feedMu.Unlock()

	metrics.FeedSubscribers.Inc()
	ch <- initial

	cancel := func() {
		s.feedMu.Lock()
		if set, ok := s.subscribers[key]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
				metrics.FeedSubscribers.Dec()
			}
			if len(set) == 0 {
				delete(s.subscribers, key)
			}
		}
		s.feedMu.Unlock()
	}
	return ch, cancel, nil
}

func (s *ProgressService) snapshot(ctx context.Context, gameType string, difficulty domain.Difficulty) (domain.Leaderboard, error) {
	entries, err := s.QueryLeaderboard(ctx, gameType, difficulty, defaultLeaderboardLimit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{
		GameType:   gameType,
		Difficulty: difficulty,
		Entries:    entries,
		UpdatedAt:  s.now(),
	}, nil
}

func (s *ProgressService) broadcast(ctx context.Context, gameType string, difficulty domain.Difficulty) {
	key := feedKey{gameType: gameType, difficulty: difficulty}

	s.feedMu.Lock()
	if len(s.subscribers[key]) == 0 {
		s.feedMu.Unlock()
		return
	}
	s.feedMu.Unlock()

	lb, err := s.snapshot(ctx, gameType, difficulty)
	if err != nil {
		return
	}

	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	for ch := range s.subscribers[key] {
		select {
		case ch <- lb:
		default:
			// Drop a stale frame so slow clients never block a submission.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

// lockFor serializes the read-modify-write of a progress key.
func (s *ProgressService) lockFor(key string) func() {
	s.lockMu.Lock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	s.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
