package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/schoolmate/capability"
	"github.com/hupe1980/schoolmate/service"
	"github.com/hupe1980/schoolmate/storage"
)

// PerformanceAnalyzer computes a student's performance report.
type PerformanceAnalyzer interface {
	Performance(ctx context.Context, studentID string) (service.PerformanceReport, error)
}

// EventLister lists events.
type EventLister interface {
	Upcoming(ctx context.Context, filter storage.EventFilter) ([]storage.Event, error)
}

// Advisor produces personalized advice.
type Advisor interface {
	Personalized(ctx context.Context, studentID string) (service.Advice, error)
}

// ExamPredictor returns the latest exam result with its prediction, nil when none.
type ExamPredictor interface {
	LatestPrediction(ctx context.Context, studentID string) (*storage.ExamResult, error)
}

// Services bundles the domain services behind the built-in capabilities.
type Services struct {
	Analytics PerformanceAnalyzer
	Events    EventLister
	Advice    Advisor
	Exams     ExamPredictor
}

// Handlers returns the dispatch table of the built-in capabilities.
func (s Services) Handlers() map[string]Handler {
	return map[string]Handler{
		capability.PerformanceAnalytics: PerformanceHandler(s.Analytics),
		capability.UpcomingEvents:       EventsHandler(s.Events),
		capability.PersonalizedAdvice:   AdviceHandler(s.Advice),
		capability.ExamPrediction:       ExamPredictionHandler(s.Exams),
	}
}

// PerformanceHandler serves get_performance_analytics.
func PerformanceHandler(a PerformanceAnalyzer) Handler {
	return HandlerFunc(func(ctx context.Context, args map[string]any) (string, error) {
		report, err := a.Performance(ctx, stringArg(args, capability.SubjectParam))
		if err != nil {
			return "", err
		}
		return RenderPerformance(report), nil
	})
}

// EventsHandler serves list_upcoming_events.
func EventsHandler(l EventLister) Handler {
	return HandlerFunc(func(ctx context.Context, args map[string]any) (string, error) {
		filter, err := eventFilter(args)
		if err != nil {
			return "", err
		}
		events, err := l.Upcoming(ctx, filter)
		if err != nil {
			return "", err
		}
		return RenderEvents(events), nil
	})
}

// AdviceHandler serves get_personalized_advice.
func AdviceHandler(a Advisor) Handler {
	return HandlerFunc(func(ctx context.Context, args map[string]any) (string, error) {
		advice, err := a.Personalized(ctx, stringArg(args, capability.SubjectParam))
		if err != nil {
			return "", err
		}
		return RenderAdvice(advice), nil
	})
}

// ExamPredictionHandler serves get_exam_prediction.
func ExamPredictionHandler(p ExamPredictor) Handler {
	return HandlerFunc(func(ctx context.Context, args map[string]any) (string, error) {
		result, err := p.LatestPrediction(ctx, stringArg(args, capability.SubjectParam))
		if err != nil {
			return "", err
		}
		return RenderExamPrediction(result), nil
	})
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return strings.TrimSpace(s)
}

func eventFilter(args map[string]any) (storage.EventFilter, error) {
	filter := storage.EventFilter{Type: stringArg(args, "type")}
	if v := stringArg(args, "start_date"); v != "" {
		d, err := storage.ParseDate(v)
		if err != nil {
			return storage.EventFilter{}, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", v)
		}
		filter.From = d
	}
	if v := stringArg(args, "end_date"); v != "" {
		d, err := storage.ParseDate(v)
		if err != nil {
			return storage.EventFilter{}, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", v)
		}
		filter.To = d
	}
	return filter, nil
}
