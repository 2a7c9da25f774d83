package model

import "time"

// RSVPStatus is a user's declared attendance intent
type RSVPStatus string

const (
	RSVPStatusGoing    RSVPStatus = "going"
	RSVPStatusMaybe    RSVPStatus = "maybe"
	RSVPStatusNotGoing RSVPStatus = "not-going"
)

// RSVP records one user's attendance intent. At most one entry per userId
// exists on an event; a newer submission replaces the older one.
type RSVP struct {
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Status    RSVPStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}

// RSVPRequest represents a request to set the caller's RSVP
type RSVPRequest struct {
	Status string `json:"status"`
}

// Validate checks if the RSVP request is valid
func (r *RSVPRequest) Validate() []FieldError {
	var errors []FieldError

	switch RSVPStatus(r.Status) {
	case RSVPStatusGoing, RSVPStatusMaybe, RSVPStatusNotGoing:
	default:
		errors = append(errors, FieldError{Field: "status", Message: "status must be going, maybe, or not-going"})
	}

	return errors
}

// RSVPCounts aggregates responses per status for an event
type RSVPCounts struct {
	Going    int `json:"going"`
	Maybe    int `json:"maybe"`
	NotGoing int `json:"notGoing"`
}

// CountRSVPs tallies the responses in a list
func CountRSVPs(rsvps []RSVP) RSVPCounts {
	var c RSVPCounts
	for _, r := range rsvps {
		switch r.Status {
		case RSVPStatusGoing:
			c.Going++
		case RSVPStatusMaybe:
			c.Maybe++
		case RSVPStatusNotGoing:
			c.NotGoing++
		}
	}
	return c
}
