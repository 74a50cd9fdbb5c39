package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PixelCoords locates a sampled pixel either in raster space or geographically.
type PixelCoords struct {
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// PixelSample is the raw band vector picked from a raster together with its coordinates.
type PixelSample struct {
	Values []float64   `json:"values"`
	Coords PixelCoords `json:"coords"`
}

// Report kinds stored in the report log.
const (
	ReportComparison = "comparison"
	ReportBatch      = "batch"
	ReportSimilarity = "similarity"
	ReportValidation = "validation"
)

// Report is one entry of the report log written by the CLI.
type Report struct {
	ID           uuid.UUID       `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Kind         string          `json:"kind"`
	SignatureIDs []string        `json:"signatureIds"`
	Payload      json.RawMessage `json:"payload"` // Store as JSON
	Metadata     map[string]any  `json:"metadata,omitempty"`
}
