package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hupe1980/schoolmate/storage"
)

const (
	// MaxExamScore is the maximum score of the national test.
	MaxExamScore = 140

	// examImprovementPermille is the expected improvement from a mock test to
	// the final one, 7.5% expressed in thousandths.
	examImprovementPermille = 1075
)

// Exams records mock exam results and predicts final scores.
type Exams struct {
	store storage.ExamStore
}

// NewExams creates an exam service.
func NewExams(store storage.ExamStore) *Exams {
	return &Exams{store: store}
}

// PredictFinalScore projects a mock test score to the final test, capped at MaxExamScore.
func PredictFinalScore(score int) int {
	predicted := (score*examImprovementPermille + 500) / 1000
	return min(predicted, MaxExamScore)
}

// Record stores a result together with its predicted final score.
func (e *Exams) Record(ctx context.Context, r storage.ExamResult) (storage.ExamResult, error) {
	if r.TotalScore < 0 || r.TotalScore > MaxExamScore {
		return storage.ExamResult{}, invalid(fmt.Sprintf("total score must be between 0 and %d", MaxExamScore))
	}
	if r.TestDate.IsZero() {
		return storage.ExamResult{}, invalid("test date is required")
	}
	r.ID = uuid.NewString()
	r.PredictedScore = PredictFinalScore(r.TotalScore)
	if err := e.store.PutExamResult(ctx, r); err != nil {
		return storage.ExamResult{}, fmt.Errorf("record exam result: %w", err)
	}
	return r, nil
}

// History returns the student's results, most recent first.
func (e *Exams) History(ctx context.Context, studentID string) ([]storage.ExamResult, error) {
	return e.store.ListExamResults(ctx, studentID)
}

// LatestPrediction returns the most recent result or nil when the student has none.
func (e *Exams) LatestPrediction(ctx context.Context, studentID string) (*storage.ExamResult, error) {
	results, err := e.store.ListExamResults(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("latest exam prediction: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	latest := results[0]
	return &latest, nil
}
