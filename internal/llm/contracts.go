package llm

import (
	"context"

	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

// Todo is one candidate deadline as the model returns it.
type Todo struct {
	Title     string `json:"title"`
	Date      string `json:"date"`      // YYYY-MM-DD
	EventType string `json:"eventType"` // one of constants.EventTypesAsStringSlice()
	Priority  int    `json:"priority"`  // 1 (highest) .. 5
}

// SyllabusFields is the normalized shape we want from the LLM.
type SyllabusFields struct {
	CourseCode    string             `json:"courseCode,omitempty"`
	CourseName    string             `json:"courseName,omitempty"`
	Instructor    string             `json:"instructor,omitempty"`
	Todos         []Todo             `json:"todos"`
	GradingPolicy map[string]float64 `json:"gradingPolicy,omitempty"` // category -> weight in percent
}

type ExtractRequest struct {
	SyllabusText string
	TermDates    string // free text, e.g. "Classes begin Aug 28; Fall break Oct 14-15"
	FilenameHint string
}

// DeadlineExtractor is the interface the upload path depends on.
// A nil result with a nil error means the model answered with something unusable.
type DeadlineExtractor interface {
	ExtractDeadlines(ctx context.Context, req ExtractRequest) (*SyllabusFields, []byte /*rawJSON*/, error)
}

// ToEntity converts the model output into the review payload.
func (f *SyllabusFields) ToEntity() *entity.SyllabusExtraction {
	if f == nil {
		return nil
	}
	out := &entity.SyllabusExtraction{
		CourseCode:    f.CourseCode,
		CourseName:    f.CourseName,
		Instructor:    f.Instructor,
		Todos:         make([]entity.Deadline, 0, len(f.Todos)),
		GradingPolicy: f.GradingPolicy,
	}
	if out.GradingPolicy == nil {
		out.GradingPolicy = map[string]float64{}
	}
	for _, t := range f.Todos {
		out.Todos = append(out.Todos, entity.Deadline{
			Title:     t.Title,
			Date:      t.Date,
			EventType: t.EventType,
			Priority:  t.Priority,
		})
	}
	return out
}
