package agent

import (
	"strings"

	"github.com/hupe1980/schoolmate/internal/util"
)

const clarificationText = "I need a student ID to answer this question. Please provide it."

const intentInstructions = "You are AI Schoolmate, a helpful and safe school assistant for students and teachers. " +
	"Decide which of the available tools, if any, answer the user's question and call them with the right arguments. " +
	"Call several tools at once when the question needs more than one. " +
	"If no tool applies, answer the question directly."

const intentTemplate = `The user asked: "{{.query}}".
{{- if .subject}}
Student ID: {{.subject}}.
{{- end}}
Based on this, decide which tool to use and with which parameters.
If the answer needs information about a specific student, make sure subject_id is passed.
If no tool fits, give a general answer.`

const synthesisInstructions = "You are AI Schoolmate, a friendly school assistant. " +
	"Turn tool results into one coherent, encouraging answer for a student."

const synthesisTemplate = `The user asked: "{{.query}}".
Here are the results of the tools that were called:
{{.results}}

Write one coherent, friendly answer to the user's question based on these results.
If some results report an error, mention briefly that this part is unavailable right now.
If weak subjects or topics were found, suggest concrete next steps.`

const directInstructions = "You are AI Schoolmate, a helpful and safe school assistant. Answer the question directly and concisely."

func intentPrompt(query, subjectID string) (string, error) {
	return util.RenderTemplate(intentTemplate, map[string]any{
		"query":   query,
		"subject": subjectID,
	})
}

func synthesisPrompt(query string, outcomes []InvocationOutcome) (string, error) {
	return util.RenderTemplate(synthesisTemplate, map[string]any{
		"query":   query,
		"results": RenderOutcomes(outcomes),
	})
}

// RenderOutcomes concatenates every outcome, successes and failures alike, in order.
func RenderOutcomes(outcomes []InvocationOutcome) string {
	var b strings.Builder
	for i, o := range outcomes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if o.Succeeded {
			b.WriteString(o.Summary)
			continue
		}
		b.WriteString("### Error in ")
		b.WriteString(o.Capability)
		b.WriteString(":\n")
		b.WriteString(o.Error)
	}
	return b.String()
}
