package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformance(t *testing.T) {
	store := seedStudent(t, "s1", "Aibek",
		gradeSeed{"Math", "Algebra", 50, "2024-09-01"},
		gradeSeed{"Math", "Geometry", 66, "2024-09-02"},
		gradeSeed{"History", "Kazakh Khanate", 90, "2024-09-03"},
		gradeSeed{"History", "Silk Road", 94, "2024-09-04"},
		gradeSeed{"Physics", "Optics", 72, "2024-09-05"},
	)
	a := NewAnalytics(store, store)

	report, err := a.Performance(context.Background(), "s1")
	require.NoError(t, err)

	assert.False(t, report.NoData)
	assert.Equal(t, 5, report.GradeCount)
	assert.InDelta(t, 74.4, report.OverallAverage, 0.001)
	assert.Equal(t, []SubjectAverage{
		{Subject: "History", Average: 92},
		{Subject: "Math", Average: 58},
		{Subject: "Physics", Average: 72},
	}, report.SubjectAverages)

	// Physics at 72 clears both 70 and 0.9 * 74.4, so only Math is weak.
	require.Len(t, report.WeakSubjects, 1)
	assert.Equal(t, "Math", report.WeakSubjects[0].Subject)
	assert.Equal(t, []float64{66, 50}, report.WeakSubjects[0].Scores)

	require.Len(t, report.WeakTopics, 1)
	assert.Equal(t, "Algebra", report.WeakTopics[0].Topic)
	assert.True(t, report.HasWeaknesses())
}

func TestPerformanceRelativeWeakness(t *testing.T) {
	store := seedStudent(t, "s1", "Dana",
		gradeSeed{"Math", "A", 100, "2024-09-01"},
		gradeSeed{"Math", "A", 100, "2024-09-02"},
		gradeSeed{"Math", "A", 100, "2024-09-03"},
		gradeSeed{"Art", "B", 75, "2024-09-04"},
	)
	report, err := NewAnalytics(store, store).Performance(context.Background(), "s1")
	require.NoError(t, err)

	// Overall 93.75; Art at 75 is below 0.9 * 93.75 even though it is above 70.
	require.Len(t, report.WeakSubjects, 1)
	assert.Equal(t, "Art", report.WeakSubjects[0].Subject)
	assert.Empty(t, report.WeakTopics)
}

func TestPerformanceWeakOrdering(t *testing.T) {
	store := seedStudent(t, "s1", "Dana",
		gradeSeed{"Math", "A", 40, "2024-09-01"},
		gradeSeed{"Biology", "B", 30, "2024-09-02"},
		gradeSeed{"Chemistry", "C", 50, "2024-09-03"},
	)
	report, err := NewAnalytics(store, store).Performance(context.Background(), "s1")
	require.NoError(t, err)

	require.Len(t, report.WeakSubjects, 3)
	assert.Equal(t, "Biology", report.WeakSubjects[0].Subject)
	assert.Equal(t, "Math", report.WeakSubjects[1].Subject)
	assert.Equal(t, "Chemistry", report.WeakSubjects[2].Subject)
	require.Len(t, report.WeakTopics, 3)
	assert.Equal(t, "B", report.WeakTopics[0].Topic)
}

func TestPerformanceNoData(t *testing.T) {
	store := seedStudent(t, "s1", "Aibek")
	report, err := NewAnalytics(store, store).Performance(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, report.NoData)
	assert.False(t, report.HasWeaknesses())
	assert.Zero(t, report.GradeCount)
}

func TestAverageScoreAndDynamics(t *testing.T) {
	store := seedStudent(t, "s1", "Aibek",
		gradeSeed{"Math", "A", 60, "2024-09-01"},
		gradeSeed{"Math", "A", 80, "2024-09-10"},
		gradeSeed{"Art", "B", 100, "2024-09-05"},
	)
	a := NewAnalytics(store, store)
	ctx := context.Background()

	avg, err := a.AverageScore(ctx, "s1", "")
	require.NoError(t, err)
	assert.InDelta(t, 80.0, avg, 0.001)

	avg, err = a.AverageScore(ctx, "s1", "Math")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, avg, 0.001)

	avg, err = a.AverageScore(ctx, "s1", "Music")
	require.NoError(t, err)
	assert.Zero(t, avg)

	points, err := a.Dynamics(ctx, "s1", "Math")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, date(t, "2024-09-01"), points[0].Date)
	assert.InDelta(t, 80.0, points[1].Score, 0.001)
}

func TestCompareClass(t *testing.T) {
	store := seedStudent(t, "s1", "Aibek", gradeSeed{"Math", "A", 70, "2024-09-01"})
	addStudent(t, store, "s2", "Dana", "10A", gradeSeed{"Math", "A", 95, "2024-09-01"})
	addStudent(t, store, "s3", "Erlan", "11B", gradeSeed{"Math", "A", 100, "2024-09-01"})

	standings, err := NewAnalytics(store, store).CompareClass(context.Background(), "10A")
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, "Dana", standings[0].StudentName)
	assert.InDelta(t, 95.0, standings[0].AverageScore, 0.001)
	assert.Equal(t, "s1", standings[1].StudentID)
}
