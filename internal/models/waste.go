package models

import (
	"strings"
	"time"
)

// NoWasteDetected is the waste_type the model reports when the image holds no waste.
const NoWasteDetected = "No waste detected"

// ClassificationResult is the upstream model's verdict for one image
type ClassificationResult struct {
	WasteType       string   `json:"waste_type"`
	Quantity        int      `json:"quantity"`
	DisposalMethods []string `json:"disposal_methods"`
	MistakesToAvoid []string `json:"mistakes_to_avoid"`
}

// HasWaste reports whether the result describes detected waste
func (c *ClassificationResult) HasWaste() bool {
	return !IsNoWasteLabel(c.WasteType)
}

// IsNoWasteLabel matches NoWasteDetected ignoring case, surrounding space
// and a trailing period.
func IsNoWasteLabel(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "."))
	return strings.EqualFold(s, NoWasteDetected)
}

// NoWaste returns the canonical "nothing found" result
func NoWaste() *ClassificationResult {
	return &ClassificationResult{
		WasteType:       NoWasteDetected,
		Quantity:        0,
		DisposalMethods: []string{},
		MistakesToAvoid: []string{},
	}
}

// WasteRecord is a persisted upload. Quantity and Date are kept as the
// client sent them.
type WasteRecord struct {
	ID        string    `json:"id" firestore:"-"`
	WasteType string    `json:"waste_type" firestore:"waste_type"`
	Quantity  string    `json:"quantity" firestore:"quantity"`
	Location  string    `json:"location" firestore:"location"`
	Date      string    `json:"date" firestore:"date"`
	ImageData string    `json:"image_data,omitempty" firestore:"image_data"` // data URI
	Timestamp time.Time `json:"timestamp" firestore:"timestamp,serverTimestamp"`
}

// DetectError is the /detect body on failure
type DetectError struct {
	WasteType string `json:"waste_type"`
	Quantity  int    `json:"quantity"`
	Message   string `json:"message"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// StatusResponse is the body shared by /, /upload and /records
type StatusResponse struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	ID        string         `json:"id,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Records   []*WasteRecord `json:"records,omitempty"`
}
