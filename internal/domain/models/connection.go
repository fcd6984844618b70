// internal/domain/models/connection.go
package models

// VillageConnection is a directed edge from user to target. A bidirectional
// relationship is two documents, one per direction.
type VillageConnection struct {
	UserID   string `json:"userID"`
	TargetID string `json:"targetID"`

	Rev string `json:"-"`
}

// ConnectionSuggestion is a directed suggested edge, produced by the pin
// expiry scanner for attendees of the same pin who are not yet connected.
type ConnectionSuggestion struct {
	UserID   string `json:"userID"`
	TargetID string `json:"targetID"`

	Rev string `json:"-"`
}
