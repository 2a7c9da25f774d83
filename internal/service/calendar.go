package service

import (
	"strings"
	"time"
	"unicode"

	ical "github.com/arran4/golang-ical"

	"github.com/plantogether/api/internal/model"
)

// calendarEventDuration is the fixed length of an exported event
const calendarEventDuration = 2 * time.Hour

// CalendarService renders events as downloadable iCalendar files
type CalendarService struct {
	domain  string
	baseURL string
	now     func() time.Time
}

// NewCalendarService creates a calendar service.
// domain forms the UID suffix; baseURL forms the canonical event URL.
func NewCalendarService(domain string, baseURL string) *CalendarService {
	return &CalendarService{
		domain:  domain,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Export renders a VEVENT for the event's winning date.
// Export fails closed: no date options or an unparseable winning date
// produce an error and no file.
func (s *CalendarService) Export(event *model.Event) (*model.CalendarFile, error) {
	winner, err := ResolveWinningDate(event.DateOptions, event.Votes)
	if err != nil {
		return nil, err
	}

	start, ok := ParseEventDate(winner)
	if !ok {
		return nil, model.NewInvalidDateError(winner)
	}
	start = start.UTC()
	end := start.Add(calendarEventDuration)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//PlanTogether//Event Calendar//EN")

	ve := cal.AddEvent(eventUID(event.ID, s.domain))
	ve.SetDtStampTime(s.now().UTC())
	ve.SetStartAt(start)
	ve.SetEndAt(end)
	ve.SetSummary(event.Name)
	if event.Description != "" {
		ve.SetDescription(event.Description)
	}
	if event.Location != "" {
		ve.SetLocation(event.Location)
	}
	ve.SetURL(s.eventURL(event.ID))
	ve.SetStatus(ical.ObjectStatusConfirmed)

	return &model.CalendarFile{
		Filename: calendarFilename(event.Name),
		MIMEType: "text/calendar",
		Content:  []byte(cal.Serialize()),
	}, nil
}

func (s *CalendarService) eventURL(id string) string {
	return s.baseURL + "/events/" + recordKey(id)
}

// eventUID forms a globally unique VEVENT identifier from the event's
// record key and the configured domain
func eventUID(id string, domain string) string {
	return recordKey(id) + "@" + domain
}

// recordKey strips the table prefix from a record ID
func recordKey(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// calendarFilename derives a download filename from the event name with
// all non-alphanumeric characters stripped
func calendarFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		out = "event"
	}
	return out + ".ics"
}
