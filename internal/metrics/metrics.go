package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QuestionsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flagquiz_questions_generated_total",
		Help: "The total number of quiz questions generated",
	})
	ScoresSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flagquiz_scores_submitted_total",
		Help: "The total number of score submissions accepted",
	})
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flagquiz_feed_subscribers",
		Help: "The current number of leaderboard feed subscribers",
	})
)
