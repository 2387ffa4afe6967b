package entity

import (
	"time"

	"github.com/google/uuid"
)

// ImportRun records one execution of an offline importer.
type ImportRun struct {
	ID           uuid.UUID  `json:"id"`
	Kind         string     `json:"kind"` // courses | prelims | finals
	Roster       string     `json:"roster"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Processed    int        `json:"processed"`
	Created      int        `json:"created"`
	Updated      int        `json:"updated"`
	Skipped      int        `json:"skipped"`
	Failed       int        `json:"failed"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}
