package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/metrics"
)

// maxDrawAttempts bounds the redraw loop when picking an unused country, so
// generation terminates even when the pool is nearly exhausted.
const maxDrawAttempts = 100

// CountryCatalog serves the static country dataset (from cache/backing store).
type CountryCatalog interface {
	Countries(ctx context.Context) ([]domain.Country, error)
	ByDifficulty(ctx context.Context, difficulty domain.Difficulty) ([]domain.Country, error)
}

// QuestionService generates multiple-choice flag questions.
type QuestionService struct {
	catalog CountryCatalog

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionService(catalog CountryCatalog) *QuestionService {
	return NewQuestionServiceWithRand(catalog, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuestionServiceWithRand allows a deterministic source in tests.
func NewQuestionServiceWithRand(catalog CountryCatalog, rnd *rand.Rand) *QuestionService {
	return &QuestionService{catalog: catalog, rnd: rnd}
}

// Generate produces up to count questions for the given tier. Each question
// has four options unique by id, and no two questions share a correct answer
// while unused countries remain. Fewer than count questions are returned once
// the tier's pool is exhausted.
func (s *QuestionService) Generate(ctx context.Context, difficulty string, count int) ([]domain.Question, error) {
	tier, err := domain.ParseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, domain.ErrInvalidCount
	}

	pool, err := s.catalog.ByDifficulty(ctx, tier)
	if err != nil {
		return nil, err
	}
	if len(pool) < 4 {
		return nil, domain.ErrInsufficientPool
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	used := make(map[int]struct{})
	questions := make([]domain.Question, 0, count)

	for i := 0; i < count && len(used) < len(pool); i++ {
		correct, ok := s.drawUnused(pool, used)
		if !ok {
			break
		}
		used[correct.ID] = struct{}{}

		distractors := s.pickDistractors(pool, used, correct)
		options := append([]domain.Country{correct}, distractors...)
		s.rnd.Shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})

		questions = append(questions, domain.Question{
			ID:              i + 1,
			Country:         correct,
			Options:         options,
			CorrectAnswerID: correct.ID,
		})
	}

	metrics.QuestionsGenerated.Add(float64(len(questions)))
	return questions, nil
}

// drawUnused picks a uniformly random country not yet used as a correct
// answer, giving up after maxDrawAttempts draws.
func (s *QuestionService) drawUnused(pool []domain.Country, used map[int]struct{}) (domain.Country, bool) {
	var candidate domain.Country
	for attempts := 0; attempts < maxDrawAttempts; attempts++ {
		candidate = pool[s.rnd.Intn(len(pool))]
		if _, taken := used[candidate.ID]; !taken {
			return candidate, true
		}
	}
	return domain.Country{}, false
}

// pickDistractors samples three wrong answers, preferring countries that have
// not yet appeared as correct answers. Near pool exhaustion it falls back to
// the whole tier minus the correct answer; the three picks are always unique
// by id either way.
func (s *QuestionService) pickDistractors(pool []domain.Country, used map[int]struct{}, correct domain.Country) []domain.Country {
	candidates := make([]domain.Country, 0, len(pool))
	for _, c := range pool {
		if c.ID == correct.ID {
			continue
		}
		if _, taken := used[c.ID]; taken {
			continue
		}
		candidates = append(candidates, c)
	}

	if len(candidates) < 3 {
		candidates = candidates[:0]
		for _, c := range pool {
			if c.ID != correct.ID {
				candidates = append(candidates, c)
			}
		}
	}

	s.rnd.Shuffle(len(candidates), func(a, b int) {
		candidates[a], candidates[b] = candidates[b], candidates[a]
	})
	return candidates[:3]
}
