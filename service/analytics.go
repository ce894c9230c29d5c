package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hupe1980/schoolmate/storage"
)

const (
	// WeakSubjectThreshold is the absolute average below which a subject is weak.
	WeakSubjectThreshold = 70.0

	// WeakSubjectRatio marks a subject weak when it falls below this share of the overall average.
	WeakSubjectRatio = 0.9

	// WeakTopicThreshold is the average below which a topic is weak.
	WeakTopicThreshold = 60.0
)

// SubjectAverage is the rounded average score of one subject.
type SubjectAverage struct {
	Subject string  `json:"subject"`
	Average float64 `json:"average"`
}

// WeakSubject is a subject whose average needs attention.
type WeakSubject struct {
	Subject string    `json:"subject"`
	Average float64   `json:"average"`
	Scores  []float64 `json:"details"`
}

// WeakTopic is a topic whose average needs attention.
type WeakTopic struct {
	Subject string    `json:"subject"`
	Topic   string    `json:"topic"`
	Average float64   `json:"average"`
	Scores  []float64 `json:"details"`
}

// PerformanceReport summarizes a student's grades.
type PerformanceReport struct {
	NoData          bool             `json:"no_data,omitempty"`
	OverallAverage  float64          `json:"average_overall"`
	SubjectAverages []SubjectAverage `json:"subjects_average"`
	WeakSubjects    []WeakSubject    `json:"weak_subjects"`
	WeakTopics      []WeakTopic      `json:"weak_topics"`
	GradeCount      int              `json:"grade_count"`
}

// HasWeaknesses reports whether any weak subject or topic was found.
func (r PerformanceReport) HasWeaknesses() bool {
	return len(r.WeakSubjects) > 0 || len(r.WeakTopics) > 0
}

// DynamicsPoint is one grade on a timeline.
type DynamicsPoint struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

// ClassStanding is a student's average within a class comparison.
type ClassStanding struct {
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name"`
	AverageScore float64 `json:"average_score"`
}

// Analytics computes grade statistics.
type Analytics struct {
	grades   storage.GradeStore
	students storage.StudentStore
}

// NewAnalytics creates an analytics service.
func NewAnalytics(grades storage.GradeStore, students storage.StudentStore) *Analytics {
	return &Analytics{grades: grades, students: students}
}

type scoreAcc struct {
	total  float64
	scores []float64
}

func (a *scoreAcc) add(score float64) {
	a.total += score
	a.scores = append(a.scores, score)
}

func (a *scoreAcc) avg() float64 { return a.total / float64(len(a.scores)) }

type topicKey struct{ subject, topic string }

// Performance analyzes a student's grades. A student without grades yields a
// report with NoData set.
func (a *Analytics) Performance(ctx context.Context, studentID string) (PerformanceReport, error) {
	grades, err := a.grades.ListGrades(ctx, studentID)
	if err != nil {
		return PerformanceReport{}, fmt.Errorf("analyze performance: %w", err)
	}
	return Analyze(grades), nil
}

// Analyze computes a performance report from grades.
func Analyze(grades []storage.Grade) PerformanceReport {
	if len(grades) == 0 {
		return PerformanceReport{NoData: true, WeakSubjects: []WeakSubject{}, WeakTopics: []WeakTopic{}}
	}

	subjects := make(map[string]*scoreAcc)
	topics := make(map[topicKey]*scoreAcc)
	var total float64

	for _, g := range grades {
		total += g.Score
		if subjects[g.Subject] == nil {
			subjects[g.Subject] = &scoreAcc{}
		}
		subjects[g.Subject].add(g.Score)

		k := topicKey{g.Subject, g.Topic}
		if topics[k] == nil {
			topics[k] = &scoreAcc{}
		}
		topics[k].add(g.Score)
	}
	overall := total / float64(len(grades))

	report := PerformanceReport{
		OverallAverage:  round2(overall),
		SubjectAverages: make([]SubjectAverage, 0, len(subjects)),
		WeakSubjects:    []WeakSubject{},
		WeakTopics:      []WeakTopic{},
		GradeCount:      len(grades),
	}

	for subject, acc := range subjects {
		avg := acc.avg()
		report.SubjectAverages = append(report.SubjectAverages, SubjectAverage{Subject: subject, Average: round2(avg)})
		if avg < WeakSubjectThreshold || avg < overall*WeakSubjectRatio {
			report.WeakSubjects = append(report.WeakSubjects, WeakSubject{Subject: subject, Average: avg, Scores: acc.scores})
		}
	}
	for k, acc := range topics {
		if avg := acc.avg(); avg < WeakTopicThreshold {
			report.WeakTopics = append(report.WeakTopics, WeakTopic{Subject: k.subject, Topic: k.topic, Average: avg, Scores: acc.scores})
		}
	}

	sort.Slice(report.SubjectAverages, func(i, j int) bool {
		return report.SubjectAverages[i].Subject < report.SubjectAverages[j].Subject
	})
	sort.Slice(report.WeakSubjects, func(i, j int) bool {
		a, b := report.WeakSubjects[i], report.WeakSubjects[j]
		if a.Average != b.Average {
			return a.Average < b.Average
		}
		return a.Subject < b.Subject
	})
	sort.Slice(report.WeakTopics, func(i, j int) bool {
		a, b := report.WeakTopics[i], report.WeakTopics[j]
		if a.Average != b.Average {
			return a.Average < b.Average
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Topic < b.Topic
	})

	return report
}

// AverageScore returns the student's average, optionally for one subject.
// Zero is returned when there are no matching grades.
func (a *Analytics) AverageScore(ctx context.Context, studentID, subject string) (float64, error) {
	grades, err := a.grades.ListGrades(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("average score: %w", err)
	}
	var (
		total float64
		n     int
	)
	for _, g := range grades {
		if subject != "" && g.Subject != subject {
			continue
		}
		total += g.Score
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}

// Dynamics returns the student's grades in chronological order, optionally for one subject.
func (a *Analytics) Dynamics(ctx context.Context, studentID, subject string) ([]DynamicsPoint, error) {
	grades, err := a.grades.ListGrades(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("grade dynamics: %w", err)
	}
	points := make([]DynamicsPoint, 0, len(grades))
	for i := len(grades) - 1; i >= 0; i-- {
		g := grades[i]
		if subject != "" && g.Subject != subject {
			continue
		}
		points = append(points, DynamicsPoint{Date: g.GradeDate, Score: g.Score})
	}
	return points, nil
}

// CompareClass ranks the students of a class by average score, best first.
func (a *Analytics) CompareClass(ctx context.Context, class string) ([]ClassStanding, error) {
	students, err := a.students.ListStudents(ctx, class)
	if err != nil {
		return nil, fmt.Errorf("compare class: %w", err)
	}

	standings := make([]ClassStanding, 0, len(students))
	for _, st := range students {
		avg, err := a.AverageScore(ctx, st.ID, "")
		if err != nil {
			return nil, err
		}
		standings = append(standings, ClassStanding{StudentID: st.ID, StudentName: st.Name, AverageScore: round2(avg)})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].AverageScore > standings[j].AverageScore
	})
	return standings, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
