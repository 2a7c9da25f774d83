package model

import (
	"encoding/json"
	"fmt"
)

// Voter identifies a user who voted for an option.
type Voter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VoteRecord tracks the tally for a single option. Two historical shapes
// coexist in stored documents: a bare non-negative number (legacy) and the
// structured {count, voters} form. Unmarshalling accepts both; marshalling
// always emits the structured form, so legacy entries are upgraded the
// first time a document is written back.
//
// Invariant for structured records: Count == len(Voters). Legacy numeric
// entries carry no voter list and normalize to an empty one.
type VoteRecord struct {
	Count  int     `json:"count"`
	Voters []Voter `json:"voters"`
}

// UnmarshalJSON accepts either a legacy bare count or a structured record.
func (v *VoteRecord) UnmarshalJSON(data []byte) error {
	var legacy int
	if err := json.Unmarshal(data, &legacy); err == nil {
		if legacy < 0 {
			return fmt.Errorf("vote count cannot be negative: %d", legacy)
		}
		v.Count = legacy
		v.Voters = nil
		return nil
	}

	// Alias avoids recursing into this method.
	type structured VoteRecord
	var s structured
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("vote record must be a number or {count, voters}: %w", err)
	}
	if s.Count < 0 {
		return fmt.Errorf("vote count cannot be negative: %d", s.Count)
	}
	*v = VoteRecord(s)
	return nil
}

// HasVoter reports whether the user already voted for this option.
// Legacy records have no voter list, so they never match.
func (v VoteRecord) HasVoter(userID string) bool {
	for _, voter := range v.Voters {
		if voter.ID == userID {
			return true
		}
	}
	return false
}

// VoteMap maps an option string to its vote record. Used for both date
// options and suggested items; the two maps are independent.
type VoteMap map[string]VoteRecord

// Record returns the normalized record for an option. An absent entry is
// an empty record.
func (m VoteMap) Record(option string) VoteRecord {
	return m[option]
}

// CastVoteRequest represents a request to vote for a date option or item
type CastVoteRequest struct {
	Option string `json:"option"`
}

// Validate checks if the cast request is valid
func (r *CastVoteRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Option == "" {
		errors = append(errors, FieldError{Field: "option", Message: "option is required"})
	}

	return errors
}

// VoteTallyResponse reports per-option counts and the grand total
type VoteTallyResponse struct {
	Totals map[string]int `json:"totals"`
	Total  int            `json:"total"`
}
