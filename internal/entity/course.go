package entity

import (
	"time"

	"github.com/google/uuid"
)

// Course represents a catalog course for data transfer between layers.
type Course struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Semester  string    `json:"semester,omitempty"`
	Sections  []Section `json:"sections"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Section is one class section with its display instructors.
type Section struct {
	SectionID   string   `json:"sectionId"`
	Instructors []string `json:"instructors"`
}

// Instructors returns the instructors of sectionID, or of every section
// (deduplicated, in order) when sectionID is empty or unknown.
func (c *Course) Instructors(sectionID string) []string {
	if sectionID != "" {
		for _, s := range c.Sections {
			if s.SectionID == sectionID {
				return append([]string(nil), s.Instructors...)
			}
		}
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range c.Sections {
		for _, name := range s.Instructors {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
