package interview

import (
	"math"

	"github.com/okian/talentflow/internal/domain/model"
)

// Default aggregation constants.
const (
	defaultDimensionWeight = 1.0
	maxScoreValue          = 100
)

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithDimensionWeights sets per-rating weights keyed by rating name
// (technical, communication, problemSolving, cultureFit, overall).
// Non-positive weights are ignored.
func WithDimensionWeights(weights map[string]float64, defaultWeight float64) Option {
	return func(a *Aggregator) {
		a.weights = make(map[string]float64, len(weights))
		for name, w := range weights {
			if w > 0 {
				a.weights[name] = w
			}
		}
		if defaultWeight > 0 {
			a.defaultWeight = defaultWeight
		}
	}
}

// Aggregator folds the feedback of a candidate's rounds into one summary.
type Aggregator struct {
	weights       map[string]float64
	defaultWeight float64
}

// NewAggregator creates an aggregator; every rating weighs the same unless
// configured otherwise.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		weights:       make(map[string]float64),
		defaultWeight: defaultDimensionWeight,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summary is the aggregated view of a candidate's feedback.
type Summary struct {
	CandidateID     string                       `json:"candidateId"`
	Completed       int                          `json:"completed"`
	Pending         int                          `json:"pending"`
	Averages        map[string]float64           `json:"averages"`
	Score           float64                      `json:"score"`
	Recommendations map[model.Recommendation]int `json:"recommendations"`
	Consensus       model.Recommendation         `json:"consensus,omitempty"`
}

// Aggregate summarizes the feedback of c. Score is the weighted mean rating
// scaled to 0..100; Consensus is the most frequent recommendation, ties going
// to the more cautious one. Both are zero when no feedback exists.
func (a *Aggregator) Aggregate(c model.Candidate) Summary {
	s := Summary{
		CandidateID:     c.ID,
		Averages:        make(map[string]float64),
		Recommendations: make(map[model.Recommendation]int),
	}
	sums := make(map[string]int)

	for _, r := range c.Rounds {
		if !r.Closed() {
			s.Pending++
			continue
		}
		s.Completed++
		r.Feedback.Ratings.Each(func(name string, v int) { sums[name] += v })
		s.Recommendations[r.Feedback.Recommendation]++
	}
	if s.Completed == 0 {
		return s
	}

	var weighted, totalWeight float64
	for name, sum := range sums {
		avg := float64(sum) / float64(s.Completed)
		s.Averages[name] = avg
		w, ok := a.weights[name]
		if !ok {
			w = a.defaultWeight
		}
		weighted += avg * w
		totalWeight += w
	}
	mean := weighted / totalWeight
	score := (mean - minRating) / (maxRating - minRating) * maxScoreValue
	s.Score = math.Round(math.Max(0, math.Min(maxScoreValue, score))*100) / 100

	best := 0
	// Recommendations is ordered strongest-yes first; iterating from the end
	// lets the cautious side win ties.
	for i := len(model.Recommendations) - 1; i >= 0; i-- {
		rec := model.Recommendations[i]
		if n := s.Recommendations[rec]; n > best {
			best = n
			s.Consensus = rec
		}
	}
	return s
}
