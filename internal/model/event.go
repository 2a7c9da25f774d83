package model

import "time"

// EventPrivacy gates who can see an event
type EventPrivacy string

const (
	EventPrivacyPublic  EventPrivacy = "public"
	EventPrivacyPrivate EventPrivacy = "private" // Visible only to host and admins
)

// EventCategory classifies an event for display
type EventCategory string

const (
	EventCategorySocial      EventCategory = "social"
	EventCategoryWork        EventCategory = "work"
	EventCategoryCelebration EventCategory = "celebration"
)

// EventStatus is the temporal state of an event relative to its winning
// date: the winning day is compared calendar-day against today.
type EventStatus string

const (
	EventStatusPast      EventStatus = "past"
	EventStatusHappening EventStatus = "happening"
	EventStatusUpcoming  EventStatus = "upcoming"
)

// EventFreshness is the coarser age-based badge derived from createdAt.
// It is a separate view from EventStatus and never gates voting or RSVPs.
type EventFreshness string

const (
	EventFreshnessUpcoming  EventFreshness = "upcoming"
	EventFreshnessActive    EventFreshness = "active"
	EventFreshnessCompleted EventFreshness = "completed"
)

// Event is the central planning document. Vote, comment, and RSVP
// collections start empty at creation and are mutated through field-level
// merges; everything else is set once by the creating admin.
type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`

	// DateOptions order is significant: it is the tie-break for the
	// winning date. Entries are free-form strings and may not parse
	// as dates.
	DateOptions []string `json:"dateOptions"`
	Votes       VoteMap  `json:"votes"`

	Items     []string `json:"items,omitempty"`
	ItemVotes VoteMap  `json:"itemVotes,omitempty"`

	Comments []Comment `json:"comments,omitempty"`
	RSVPs    []RSVP    `json:"rsvps,omitempty"`

	// Participants is a legacy field superseded by RSVPs, kept for
	// documents written by older clients.
	Participants []string `json:"participants,omitempty"`

	HostID   string `json:"hostId"`
	HostName string `json:"hostName"`

	Privacy EventPrivacy `json:"privacy"`
	// Category, when set, overrides keyword classification.
	Category EventCategory `json:"category,omitempty"`

	ShareToken string `json:"shareToken,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VisibleTo reports whether a user may see this event. Private events are
// visible only to their host and to admins.
func (e *Event) VisibleTo(user CurrentUser) bool {
	if e.Privacy != EventPrivacyPrivate {
		return true
	}
	return user.ID == e.HostID || user.IsAdmin()
}

// CanManage reports whether a user may edit or delete this event.
func (e *Event) CanManage(user CurrentUser) bool {
	return user.ID == e.HostID || user.IsAdmin()
}

// Comment is a single discussion entry, append-only.
type Comment struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	AuthorID  string    `json:"authorId"`
	Timestamp time.Time `json:"timestamp"`
}

// Constraints
const (
	MaxEventNameLength        = 100
	MaxEventDescriptionLength = 2000
	MaxEventLocationLength    = 200
	MaxDateOptionsPerEvent    = 20
	MaxItemsPerEvent          = 50
	MaxCommentLength          = 1000
)

// CreateEventRequest represents a request to create an event
type CreateEventRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	DateOptions []string `json:"dateOptions"`
	Items       []string `json:"items,omitempty"`
	Privacy     string   `json:"privacy,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// Validate checks if the create request is valid
func (r *CreateEventRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > MaxEventNameLength {
		errors = append(errors, FieldError{Field: "name", Message: "name must be 100 characters or less"})
	}
	if len(r.Description) > MaxEventDescriptionLength {
		errors = append(errors, FieldError{Field: "description", Message: "description must be 2000 characters or less"})
	}
	if len(r.Location) > MaxEventLocationLength {
		errors = append(errors, FieldError{Field: "location", Message: "location must be 200 characters or less"})
	}
	if len(r.DateOptions) > MaxDateOptionsPerEvent {
		errors = append(errors, FieldError{Field: "dateOptions", Message: "at most 20 date options allowed"})
	}
	if len(r.Items) > MaxItemsPerEvent {
		errors = append(errors, FieldError{Field: "items", Message: "at most 50 items allowed"})
	}
	if r.Privacy != "" && r.Privacy != string(EventPrivacyPublic) && r.Privacy != string(EventPrivacyPrivate) {
		errors = append(errors, FieldError{Field: "privacy", Message: "privacy must be 'public' or 'private'"})
	}
	if r.Category != "" && !validCategory(r.Category) {
		errors = append(errors, FieldError{Field: "category", Message: "category must be social, work, or celebration"})
	}

	return errors
}

// UpdateEventRequest represents a request to update an event
type UpdateEventRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Location    *string  `json:"location,omitempty"`
	DateOptions []string `json:"dateOptions,omitempty"`
	Items       []string `json:"items,omitempty"`
	Privacy     *string  `json:"privacy,omitempty"`
	Category    *string  `json:"category,omitempty"`
}

// Validate checks if the update request is valid
func (r *UpdateEventRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name != nil {
		if *r.Name == "" {
			errors = append(errors, FieldError{Field: "name", Message: "name cannot be empty"})
		} else if len(*r.Name) > MaxEventNameLength {
			errors = append(errors, FieldError{Field: "name", Message: "name must be 100 characters or less"})
		}
	}
	if r.Description != nil && len(*r.Description) > MaxEventDescriptionLength {
		errors = append(errors, FieldError{Field: "description", Message: "description must be 2000 characters or less"})
	}
	if r.Location != nil && len(*r.Location) > MaxEventLocationLength {
		errors = append(errors, FieldError{Field: "location", Message: "location must be 200 characters or less"})
	}
	if len(r.DateOptions) > MaxDateOptionsPerEvent {
		errors = append(errors, FieldError{Field: "dateOptions", Message: "at most 20 date options allowed"})
	}
	if r.Privacy != nil && *r.Privacy != string(EventPrivacyPublic) && *r.Privacy != string(EventPrivacyPrivate) {
		errors = append(errors, FieldError{Field: "privacy", Message: "privacy must be 'public' or 'private'"})
	}
	if r.Category != nil && *r.Category != "" && !validCategory(*r.Category) {
		errors = append(errors, FieldError{Field: "category", Message: "category must be social, work, or celebration"})
	}

	return errors
}

func validCategory(c string) bool {
	switch EventCategory(c) {
	case EventCategorySocial, EventCategoryWork, EventCategoryCelebration:
		return true
	}
	return false
}

// AddCommentRequest represents a request to append a comment
type AddCommentRequest struct {
	Text string `json:"text"`
}

// Validate checks if the comment request is valid
func (r *AddCommentRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Text == "" {
		errors = append(errors, FieldError{Field: "text", Message: "text is required"})
	} else if len(r.Text) > MaxCommentLength {
		errors = append(errors, FieldError{Field: "text", Message: "text must be 1000 characters or less"})
	}

	return errors
}

// EventSchedule is the derived view of an event's date state: the winning
// option, classification, whether voting and RSVPs are open right now, and
// the attendance headcount so far.
type EventSchedule struct {
	WinningDate   string         `json:"winningDate,omitempty"`
	DateDecided   bool           `json:"dateDecided"`
	Status        EventStatus    `json:"status"`
	Freshness     EventFreshness `json:"freshness"`
	Category      EventCategory  `json:"category"`
	VotingOpen    bool           `json:"votingOpen"`
	VotingMessage string         `json:"votingMessage"`
	RSVPOpen      bool           `json:"rsvpOpen"`
	RSVPMessage   string         `json:"rsvpMessage"`
	RSVPCounts    RSVPCounts     `json:"rsvpCounts"`
}

// CalendarFile is a rendered ICS payload offered for download
type CalendarFile struct {
	Filename string
	MIMEType string
	Content  []byte
}
