package domain

import "time"

// Difficulty is an ordered game tier. Higher tiers are unlocked by
// beating the previous one.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the tiers in unlock order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty validates a raw tier name.
func ParseDifficulty(raw string) (Difficulty, error) {
	for _, d := range Difficulties {
		if string(d) == raw {
			return d, nil
		}
	}
	return "", ErrUnknownDifficulty
}

// Next returns the tier unlocked by beating this one, if any.
func (d Difficulty) Next() (Difficulty, bool) {
	for i, cur := range Difficulties {
		if cur == d && i+1 < len(Difficulties) {
			return Difficulties[i+1], true
		}
	}
	return "", false
}

// Country is an immutable reference entry from the flag dataset.
type Country struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Flag       string     `json:"flag"`
	Difficulty Difficulty `json:"difficulty"`
}

// Question is a generated multiple-choice round: one country to guess and
// four shuffled options. CorrectAnswerID identifies the answer explicitly
// so clients never infer it from option order.
type Question struct {
	ID              int       `json:"id"`
	Country         Country   `json:"country"`
	Options         []Country `json:"options"`
	CorrectAnswerID int       `json:"correctAnswerId"`
}

// ScoreSubmission models a finished game reported by a client.
type ScoreSubmission struct {
	UserID            string `json:"userId"`
	GameType          string `json:"gameType"`
	Difficulty        string `json:"difficulty"`
	Score             int    `json:"score"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	CorrectAnswers    int    `json:"correctAnswers"`
}

// ScoreRecord is an append-only row derived from a submission.
type ScoreRecord struct {
	ID                string     `json:"scoreId"`
	UserID            string     `json:"userId"`
	GameType          string     `json:"gameType"`
	Difficulty        Difficulty `json:"difficulty"`
	Score             int        `json:"score"`
	QuestionsAnswered int        `json:"questionsAnswered"`
	CorrectAnswers    int        `json:"correctAnswers"`
	Accuracy          float64    `json:"accuracy"`
	Timestamp         time.Time  `json:"timestamp"`
}

// SubmissionResult summarizes the outcome of a score submission.
type SubmissionResult struct {
	ScoreID        string       `json:"scoreId"`
	NewBestScore   bool         `json:"newBestScore"`
	BestScore      int          `json:"bestScore"`
	UnlockedLevels []Difficulty `json:"unlockedLevels"`
}

// ProgressView aggregates a user's standing across all tiers of a game.
type ProgressView struct {
	HighScores       map[Difficulty]int `json:"highScores"`
	UnlockedLevels   []Difficulty       `json:"unlockedLevels"`
	RecentScores     []ScoreRecord      `json:"recentScores"`
	TotalGamesPlayed int                `json:"totalGamesPlayed"`
}

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	UserID    string    `json:"userId"`
	Score     int       `json:"score"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Leaderboard is a snapshot of the standings for one game and tier.
type Leaderboard struct {
	GameType   string             `json:"gameType"`
	Difficulty Difficulty         `json:"difficulty"`
	Entries    []LeaderboardEntry `json:"entries"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}
