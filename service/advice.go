package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/schoolmate/cache"
	"github.com/hupe1980/schoolmate/core"
	"github.com/hupe1980/schoolmate/internal/util"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/model"
	"github.com/hupe1980/schoolmate/storage"
)

// Advice types.
const (
	AdviceGradeImprovement  = "grade_improvement"
	AdviceGeneral           = "general_advice"
	AdviceGeneralExcellence = "general_excellence_advice"
)

const (
	recentGradesForAdvice = 5
	adviceCacheKeyPrefix  = "advice:"
	defaultAdviceCacheTTL = 6 * time.Hour

	adviceInstructions      = "You are the AI Schoolmate assistant. Give personalized, helpful and safe study advice. Answer with a single JSON object and nothing else."
	generalAdviceText       = "I could not produce specific advice, but remember: regular review, active participation in lessons and asking questions are the keys to success."
	generalVisualSuggestion = "Build mind maps or flowcharts to visualize how topics connect."
	excellenceVisualSuggest = "Use progress charts to track your achievements and set new goals."
)

// Advice is a structured study recommendation.
type Advice struct {
	Type             string `json:"type"`
	Subject          string `json:"subject,omitempty"`
	Topic            string `json:"topic,omitempty"`
	Advice           string `json:"advice"`
	VisualSuggestion string `json:"visual_suggestion"`
}

// AdvisorOptions configures an Advisor.
type AdvisorOptions struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   logging.Logger
}

// Advisor generates personalized advice from a student's weak areas.
type Advisor struct {
	students storage.StudentStore
	grades   storage.GradeStore
	model    model.Model
	cache    cache.Cache
	cacheTTL time.Duration
	logger   logging.Logger
}

// NewAdvisor creates an advisor.
func NewAdvisor(students storage.StudentStore, grades storage.GradeStore, m model.Model, optFns ...func(o *AdvisorOptions)) *Advisor {
	opts := AdvisorOptions{
		Cache:    cache.Noop{},
		CacheTTL: defaultAdviceCacheTTL,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Advisor{
		students: students,
		grades:   grades,
		model:    m,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   opts.Logger,
	}
}

// AdviceCacheKey returns the cache key of a student's advice.
func AdviceCacheKey(studentID string) string { return adviceCacheKeyPrefix + studentID }

// Personalized returns advice for the student. Students without weak areas get
// encouragement without a model call. Model output that is not valid JSON is
// replaced by general advice that embeds the raw answer.
func (a *Advisor) Personalized(ctx context.Context, studentID string) (Advice, error) {
	student, err := a.students.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Advice{}, fmt.Errorf("student %s: %w", studentID, core.ErrNotFound)
		}
		return Advice{}, fmt.Errorf("personalized advice: %w", err)
	}

	var cached Advice
	if found, err := a.cache.Get(ctx, AdviceCacheKey(studentID), &cached); err != nil {
		a.logger.Warn("advice.cache.get.error", "student_id", studentID, "error", err.Error())
	} else if found {
		return cached, nil
	}

	grades, err := a.grades.ListGrades(ctx, studentID)
	if err != nil {
		return Advice{}, fmt.Errorf("personalized advice: %w", err)
	}
	report := Analyze(grades)

	if !report.HasWeaknesses() {
		return Advice{
			Type:             AdviceGeneralExcellence,
			Advice:           fmt.Sprintf("Great work, %s! Your grades show strong knowledge in every area. Keep it up, stay active in lessons and do not be afraid to take on new challenges.", student.Name),
			VisualSuggestion: excellenceVisualSuggest,
		}, nil
	}

	prompt, err := advicePrompt(student.Name, report, grades)
	if err != nil {
		return Advice{}, fmt.Errorf("personalized advice: %w", err)
	}

	resp, err := model.Collect(ctx, a.model, model.Request{
		Instructions: adviceInstructions,
		Contents:     []core.Content{core.NewUserContent(prompt)},
	})
	if err != nil {
		return Advice{}, fmt.Errorf("%w: advice generation: %v", core.ErrServiceUnavailable, err)
	}

	advice, ok := parseAdvice(resp.Text())
	if !ok {
		a.logger.Warn("advice.fallback", "student_id", studentID, "reason", "model did not return valid JSON")
		advice = Advice{
			Type:             AdviceGeneral,
			Advice:           strings.TrimSpace(generalAdviceText + " " + resp.Text()),
			VisualSuggestion: generalVisualSuggestion,
		}
	}

	if err := a.cache.Set(ctx, AdviceCacheKey(studentID), advice, a.cacheTTL); err != nil {
		a.logger.Warn("advice.cache.set.error", "student_id", studentID, "error", err.Error())
	}
	return advice, nil
}

const adviceTemplate = `Give personalized, useful and safe advice to the student {{.name}} to improve their performance.
Overall average: {{.overall}}.
{{- if .weakSubjects}}
Subjects that need improvement (average): {{join .weakSubjects ", "}}.
{{- end}}
{{- if .weakTopics}}
Topics that deserve special attention: {{join .weakTopics ", "}}.
{{- end}}
Recent grades: {{.recent}}.

Produce concrete, actionable advice and suggest how visual material (charts, diagrams) could help understanding. Answer in JSON:
{
  "type": "grade_improvement",
  "subject": "subject name if the advice is about one subject, otherwise null",
  "topic": "topic name if the advice is about one topic, otherwise null",
  "advice": "detailed advice, at most 200 words",
  "visual_suggestion": "visual material suggestion, at most 50 words"
}`

type recentGrade struct {
	Subject string  `json:"subject"`
	Topic   string  `json:"topic"`
	Score   float64 `json:"score"`
	Date    string  `json:"date"`
}

func advicePrompt(name string, report PerformanceReport, grades []storage.Grade) (string, error) {
	weakSubjects := make([]string, 0, len(report.WeakSubjects))
	for _, s := range report.WeakSubjects {
		weakSubjects = append(weakSubjects, fmt.Sprintf("%s (%.2f)", s.Subject, s.Average))
	}
	weakTopics := make([]string, 0, len(report.WeakTopics))
	for _, t := range report.WeakTopics {
		weakTopics = append(weakTopics, fmt.Sprintf("%s in %s (average: %.2f)", t.Topic, t.Subject, t.Average))
	}

	n := min(len(grades), recentGradesForAdvice)
	recent := make([]recentGrade, 0, n)
	for _, g := range grades[:n] {
		recent = append(recent, recentGrade{Subject: g.Subject, Topic: g.Topic, Score: g.Score, Date: storage.FormatDate(g.GradeDate)})
	}
	recentJSON, err := json.Marshal(recent)
	if err != nil {
		return "", err
	}

	return util.RenderTemplate(adviceTemplate, map[string]any{
		"name":         name,
		"overall":      fmt.Sprintf("%.2f", report.OverallAverage),
		"weakSubjects": weakSubjects,
		"weakTopics":   weakTopics,
		"recent":       string(recentJSON),
	})
}

// parseAdvice decodes a JSON advice object, tolerating a surrounding code fence.
func parseAdvice(text string) (Advice, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw struct {
		Type             string  `json:"type"`
		Subject          *string `json:"subject"`
		Topic            *string `json:"topic"`
		Advice           string  `json:"advice"`
		VisualSuggestion string  `json:"visual_suggestion"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil || raw.Advice == "" {
		return Advice{}, false
	}

	advice := Advice{
		Type:             raw.Type,
		Advice:           raw.Advice,
		VisualSuggestion: raw.VisualSuggestion,
	}
	if advice.Type == "" {
		advice.Type = AdviceGradeImprovement
	}
	if raw.Subject != nil {
		advice.Subject = *raw.Subject
	}
	if raw.Topic != nil {
		advice.Topic = *raw.Topic
	}
	return advice, true
}
