package llm

import (
	"github.com/joseph-ayodele/syllabus-sync/constants"
)

// BuildSyllabusJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We send it to the model alongside the prompt and also use it locally to validate.
func BuildSyllabusJSONSchema() map[string]any {
	todo := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title":     map[string]any{"type": "string", "minLength": 1},
			"date":      map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"eventType": map[string]any{"type": "string", "enum": constants.EventTypesAsStringSlice()},
			"priority": map[string]any{
				"type":    "integer",
				"minimum": constants.HighestPriority,
				"maximum": constants.LowestPriority,
			},
		},
		"required": []string{"title", "date", "eventType", "priority"},
	}

	props := map[string]any{
		"courseCode": map[string]any{"type": "string"},
		"courseName": map[string]any{"type": "string"},
		"instructor": map[string]any{"type": "string"},
		"todos":      map[string]any{"type": "array", "items": todo},
		"gradingPolicy": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "number", "minimum": 0},
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"todos"},
	}
}
