package entity

// Deadline is a candidate deadline proposed for review. It is never persisted.
type Deadline struct {
	Title     string `json:"title"`
	Date      string `json:"date"` // YYYY-MM-DD
	EventType string `json:"eventType"`
	Priority  int    `json:"priority"`
}

// SyllabusExtraction is the structured result derived from one syllabus.
type SyllabusExtraction struct {
	CourseCode    string             `json:"courseCode"`
	CourseName    string             `json:"courseName"`
	Instructor    string             `json:"instructor"`
	Todos         []Deadline         `json:"todos"`
	GradingPolicy map[string]float64 `json:"gradingPolicy"`
}

// UploadResult is returned to the client after a syllabus upload.
type UploadResult struct {
	Text       string              `json:"text"`
	Extraction *SyllabusExtraction `json:"extraction"`
}
