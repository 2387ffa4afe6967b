package constants

import (
	"strings"
)

type EventType string

const (
	Assignment   EventType = "assignment"
	Exam         EventType = "exam"
	Quiz         EventType = "quiz"
	Project      EventType = "project"
	Lab          EventType = "lab"
	Presentation EventType = "presentation"
	Reading      EventType = "reading"
	Other        EventType = "other"
)

var allEventTypes = []EventType{
	Assignment,
	Exam,
	Quiz,
	Project,
	Lab,
	Presentation,
	Reading,
	Other,
}

// Priority bounds for candidate deadlines; 1 is the most important.
const (
	HighestPriority = 1
	LowestPriority  = 5
)

func EventTypesAsStringSlice() []string {
	result := make([]string, len(allEventTypes))
	for i, et := range allEventTypes {
		result[i] = string(et)
	}
	return result
}

// CanonicalizeEventType maps model output onto the enum. The bool is false
// when the label had to fall back to Other.
func CanonicalizeEventType(input string) (EventType, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]EventType{
		"homework":      Assignment,
		"hw":            Assignment,
		"problem set":   Assignment,
		"pset":          Assignment,
		"essay":         Assignment,
		"paper":         Assignment,
		"midterm":       Exam,
		"prelim":        Exam,
		"test":          Exam,
		"in-class exam": Exam,
		"milestone":     Project,
		"lab report":    Lab,
		"presentations": Presentation,
		"readings":      Reading,
	}

	if et, ok := synonyms[normalized]; ok {
		return et, true
	}

	for _, et := range allEventTypes {
		if normalized == string(et) {
			return et, true
		}
	}

	return Other, false
}

// Exam kinds stored on imported exam and deliverable rows.
const (
	ExamTypePrelim       = "prelim"
	ExamTypeFinal        = "final"
	DeliverableTypeFinal = "deliverable"
)
