package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/schoolmate/service"
	"github.com/hupe1980/schoolmate/storage"
)

// RenderPerformance renders a performance report for synthesis.
func RenderPerformance(r service.PerformanceReport) string {
	var b strings.Builder
	b.WriteString("### Performance analysis:\n")
	if r.NoData {
		b.WriteString("No grades available for this student.")
		return b.String()
	}

	fmt.Fprintf(&b, "Overall average: %.2f.\n", r.OverallAverage)
	if len(r.SubjectAverages) > 0 {
		parts := make([]string, len(r.SubjectAverages))
		for i, s := range r.SubjectAverages {
			parts[i] = fmt.Sprintf("%s (%.2f)", s.Subject, s.Average)
		}
		fmt.Fprintf(&b, "Subject averages: %s.\n", strings.Join(parts, ", "))
	}
	if len(r.WeakSubjects) > 0 {
		parts := make([]string, len(r.WeakSubjects))
		for i, s := range r.WeakSubjects {
			parts[i] = fmt.Sprintf("%s (average: %.2f)", s.Subject, s.Average)
		}
		fmt.Fprintf(&b, "Weak subjects: %s.\n", strings.Join(parts, ", "))
	}
	if len(r.WeakTopics) > 0 {
		parts := make([]string, len(r.WeakTopics))
		for i, t := range r.WeakTopics {
			parts[i] = fmt.Sprintf("%s in %s (average: %.2f)", t.Topic, t.Subject, t.Average)
		}
		fmt.Fprintf(&b, "Weak topics: %s.\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, "Total grades: %d.", r.GradeCount)
	return b.String()
}

// RenderEvents renders an event list for synthesis.
func RenderEvents(events []storage.Event) string {
	if len(events) == 0 {
		return "### Upcoming events:\nNo upcoming events or olympiads match your request."
	}

	var b strings.Builder
	b.WriteString("### Upcoming events:\n")
	for i, ev := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		location := ev.Location
		if location == "" {
			location = "not specified"
		}
		link := ev.InvitationLink
		if link == "" {
			link = "no link"
		}
		fmt.Fprintf(&b, "- %s (%s) on %s. Location: %s. Link: %s",
			ev.Title, ev.Type, storage.FormatDate(ev.EventDate), location, link)
	}
	return b.String()
}

// RenderAdvice renders personalized advice for synthesis.
func RenderAdvice(a service.Advice) string {
	subject := a.Subject
	if subject == "" {
		subject = "General"
	}

	var b strings.Builder
	b.WriteString("### Personalized advice:\n")
	fmt.Fprintf(&b, "**Subject:** %s\n", subject)
	if a.Topic != "" {
		fmt.Fprintf(&b, "**Topic:** %s\n", a.Topic)
	}
	fmt.Fprintf(&b, "**Advice:** %s", a.Advice)
	if a.VisualSuggestion != "" {
		fmt.Fprintf(&b, "\n**Visual suggestion:** %s", a.VisualSuggestion)
	}
	return b.String()
}

// RenderExamPrediction renders the latest exam prediction for synthesis.
func RenderExamPrediction(r *storage.ExamResult) string {
	if r == nil {
		return "### Exam prediction:\nNo mock exam results recorded for this student yet."
	}
	return fmt.Sprintf(
		"### Exam prediction:\nLatest mock exam on %s: %d points. Predicted final score: %d of %d.",
		storage.FormatDate(r.TestDate), r.TotalScore, r.PredictedScore, service.MaxExamScore,
	)
}
