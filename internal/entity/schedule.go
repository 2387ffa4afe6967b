package entity

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents a scheduled prelim or final exam.
type Exam struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	SectionID   string    `json:"section_id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Type        string    `json:"type"` // prelim | final
	Instructors []string  `json:"instructors"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FinalDeliverable is a take-home final project or paper with a due time.
type FinalDeliverable struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	SectionID   string    `json:"section_id"`
	Title       string    `json:"title"`
	DueDate     time.Time `json:"due_date"`
	Type        string    `json:"type"` // deliverable
	Instructors []string  `json:"instructors"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseSchedule groups what the registrar published for one course.
type CourseSchedule struct {
	Course       Course             `json:"course"`
	Exams        []Exam             `json:"exams"`
	Deliverables []FinalDeliverable `json:"deliverables"`
}
