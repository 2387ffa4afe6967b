package llm

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxTextChars bounds the syllabus text sent to the model.
const DefaultMaxTextChars = 30000

const termDatesPlaceholder = "{{TERM_DATES}}"

const systemPromptTemplate = `You are a syllabus parser for a student planner. Return ONLY a JSON object, no prose.
The object has this shape:
{"courseCode": string, "courseName": string, "instructor": string, "todos": [{"title": string, "date": "YYYY-MM-DD", "eventType": string, "priority": integer}], "gradingPolicy": {"<category>": number}}
Rules:
- List every graded deadline in "todos": assignments, problem sets, quizzes, labs, projects, presentations and in-class exams.
- Do not include exams that are not held during class time (evening prelims, take-home exams scheduled by the registrar).
- Do not include final exams or final deliverables; those come from the registrar.
- If the course is cross-listed (e.g. "CS 4780 / ECE 4780"), report a single courseCode, the first one listed.
- eventType must be one of: assignment, exam, quiz, project, lab, presentation, reading, other.
- priority is an integer from 1 to 5 and 1 is the most important. Derive it from the weight of the item's grading category: the heavier the category, the lower the number.
- gradingPolicy maps each grading category to its weight in percent as a number, e.g. {"Homework": 30, "Prelims": 40, "Final": 30}.
- Dates are ISO-8601 (YYYY-MM-DD). Resolve relative dates ("week 3", "the Tuesday after fall break") against the term dates below.
- Omit a todo whose date cannot be determined. Never output null; omit unknown fields instead.
Term dates:
{{TERM_DATES}}`

// BuildSystemPrompt renders the fixed instructions with the term-date context.
func BuildSystemPrompt(termDates string) string {
	td := strings.TrimSpace(termDates)
	if td == "" {
		td = "not provided"
	}
	return strings.ReplaceAll(systemPromptTemplate, termDatesPlaceholder, td)
}

// BuildUserPrompt packages the filename hint and the (possibly truncated) syllabus text.
func BuildUserPrompt(req ExtractRequest, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxTextChars
	}
	var b strings.Builder
	if filename := strings.TrimSpace(req.FilenameHint); filename != "" {
		b.WriteString("Filename: ")
		b.WriteString(filename)
		b.WriteString("\n")
	}

	text, truncated := TruncateRunes(strings.TrimSpace(req.SyllabusText), maxChars)
	b.WriteString("\nSyllabus text:\n")
	b.WriteString(text)
	if truncated {
		b.WriteString("\n…(truncated)")
	}
	b.WriteString("\n\nReturn ONLY JSON.")
	return b.String()
}

// TruncateRunes cuts s to at most max runes.
func TruncateRunes(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
