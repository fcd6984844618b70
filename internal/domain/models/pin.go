// internal/domain/models/pin.go
package models

// Coords is a map position in decimal degrees.
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Pin is a map-pinned event. Its ID is "{startMillis}_{uuid}", so the key's
// numeric prefix always equals StartTime truncated to milliseconds; range
// scans over the pin namespace depend on that holding for every pin ever
// written.
type Pin struct {
	ID            string `json:"id"`
	HostID        string `json:"hostID"`
	StartTime     int64  `json:"startTime"` // unix milliseconds
	EndTime       int64  `json:"endTime"`   // unix milliseconds
	Details       string `json:"details,omitempty"`
	Coords        Coords `json:"coords"`
	AttendeeCount int    `json:"attendeeCount"`
	Active        bool   `json:"active"`

	Rev string `json:"-"`
}

// PinAttendee links a pin to an attending user. Exactly one document per
// (pinID, userID).
type PinAttendee struct {
	PinID  string `json:"pinID"`
	UserID string `json:"userID"`

	Rev string `json:"-"`
}
