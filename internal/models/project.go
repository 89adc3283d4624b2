// Package models contains data structures for Ferrite platform API entities.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Project represents an uploaded firmware image and its analysis state.
type Project struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	FirmwareType string    `json:"firmware_type"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status"`
}

// ProjectID is the creation response body.
type ProjectID struct {
	ID uuid.UUID `json:"id"`
}

// Analysis represents a single analyzer's result for a project.
// Result is kept raw: analyzer payloads are analyzer-specific and the CLI
// renders them without interpretation.
type Analysis struct {
	ID           uuid.UUID       `json:"id"`
	ProjectID    uuid.UUID       `json:"project_id"`
	AnalyzerName string          `json:"name"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
}
