package directory

import (
	"strings"

	"github.com/joseph-ayodele/syllabus-sync/internal/catalog"
	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

const lectureComponent = "LEC"

// SectionsFromGroups picks the sections whose instructors are recorded.
// Per enrollment group: every section is taken until a LEC is seen; a LEC is
// always taken and switches the rest of the group to lectures only.
//
//	[LEC, DIS, DIS] -> LEC
//	[DIS, DIS]      -> DIS, DIS
//	[DIS, LEC, DIS] -> DIS, LEC
func SectionsFromGroups(groups []catalog.EnrollGroup) []entity.Section {
	out := make([]entity.Section, 0)
	for _, g := range groups {
		addAll := true
		for _, s := range g.ClassSections {
			isLecture := strings.EqualFold(strings.TrimSpace(s.SsrComponent), lectureComponent)
			if !isLecture && !addAll {
				continue
			}
			if isLecture {
				addAll = false
			}
			out = append(out, entity.Section{
				SectionID:   strings.TrimSpace(s.Section),
				Instructors: sectionInstructors(s),
			})
		}
	}
	return out
}

// sectionInstructors returns "First Last" (netid when both are blank), deduplicated in order.
func sectionInstructors(s catalog.ClassSection) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, m := range s.Meetings {
		for _, in := range m.Instructors {
			name := InstructorName(in)
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// InstructorName renders "First Last", falling back to the netid when both are empty.
func InstructorName(in catalog.Instructor) string {
	name := strings.TrimSpace(strings.TrimSpace(in.FirstName) + " " + strings.TrimSpace(in.LastName))
	if name == "" {
		return strings.TrimSpace(in.NetID)
	}
	return name
}

// CourseCode joins subject and catalog number, e.g. "CS 2110".
func CourseCode(subject, catalogNbr string) string {
	return strings.ToUpper(strings.TrimSpace(subject)) + " " + strings.TrimSpace(catalogNbr)
}

// CourseFromClass maps one roster class onto a directory course.
func CourseFromClass(roster string, c catalog.Class) *entity.Course {
	name := strings.TrimSpace(c.TitleLong)
	if name == "" {
		name = strings.TrimSpace(c.TitleShort)
	}
	return &entity.Course{
		Code:     CourseCode(c.Subject, c.CatalogNbr),
		Name:     name,
		Semester: roster,
		Sections: SectionsFromGroups(c.EnrollGroups),
	}
}
