package capability

// Names of the built-in capabilities.
const (
	PerformanceAnalytics = "get_performance_analytics"
	UpcomingEvents       = "list_upcoming_events"
	PersonalizedAdvice   = "get_personalized_advice"
	ExamPrediction       = "get_exam_prediction"
)

// DefaultRegistry returns the catalog served by the schoolmate agent.
func DefaultRegistry() *Registry {
	return MustNewRegistry(
		Descriptor{
			Name:        PerformanceAnalytics,
			Description: "Get the student's academic performance analysis: overall average, averages per subject, weak subjects and weak topics.",
			Parameters: []Parameter{
				{Name: SubjectParam, Type: "string", Required: true, Description: "ID of the student"},
			},
		},
		Descriptor{
			Name:        UpcomingEvents,
			Description: "List upcoming events such as olympiads, competitions and school events.",
			Parameters: []Parameter{
				{Name: "type", Type: "string", Description: "Event type, e.g. olympiad, competition, lecture"},
				{Name: "start_date", Type: "string", Description: "Only events on or after this date (YYYY-MM-DD)"},
				{Name: "end_date", Type: "string", Description: "Only events on or before this date (YYYY-MM-DD)"},
			},
		},
		Descriptor{
			Name:        PersonalizedAdvice,
			Description: "Get personalized study advice for the student based on their weak areas.",
			Parameters: []Parameter{
				{Name: SubjectParam, Type: "string", Required: true, Description: "ID of the student"},
			},
		},
		Descriptor{
			Name:        ExamPrediction,
			Description: "Get the predicted score of the student's next unified national test (ENT) from their latest result.",
			Parameters: []Parameter{
				{Name: SubjectParam, Type: "string", Required: true, Description: "ID of the student"},
			},
		},
	)
}
