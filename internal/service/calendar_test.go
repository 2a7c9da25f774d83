package service

import (
	"strings"
	"testing"

	"github.com/plantogether/api/internal/model"
)

func newTestCalendarService() *CalendarService {
	return NewCalendarService("plantogether.app", "http://localhost:3000")
}

func TestCalendarExport_WinningDateTimes(t *testing.T) {
	t.Parallel()

	event := &model.Event{
		ID:          "event:e1",
		Name:        "Team Sync",
		DateOptions: []string{"2026-01-15T10:00:00Z"},
		Votes: model.VoteMap{
			"2026-01-15T10:00:00Z": {Count: 3},
		},
	}

	file, err := newTestCalendarService().Export(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := string(file.Content)
	if !strings.Contains(payload, "DTSTART:20260115T100000Z") {
		t.Errorf("expected DTSTART:20260115T100000Z in payload:\n%s", payload)
	}
	if !strings.Contains(payload, "DTEND:20260115T120000Z") {
		t.Errorf("expected DTEND:20260115T120000Z in payload:\n%s", payload)
	}
	if !strings.Contains(payload, "SUMMARY:Team Sync") {
		t.Errorf("expected summary in payload:\n%s", payload)
	}
	if !strings.Contains(payload, "STATUS:CONFIRMED") {
		t.Errorf("expected STATUS:CONFIRMED in payload:\n%s", payload)
	}
	if !strings.Contains(payload, "UID:e1@plantogether.app") {
		t.Errorf("expected UID with domain suffix in payload:\n%s", payload)
	}
}

func TestCalendarExport_FileMetadata(t *testing.T) {
	t.Parallel()

	event := &model.Event{
		ID:          "event:e1",
		Name:        "Sarah's Birthday Party!",
		DateOptions: []string{"2026-01-15T10:00:00Z"},
	}

	file, err := newTestCalendarService().Export(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if file.MIMEType != "text/calendar" {
		t.Errorf("expected text/calendar, got %q", file.MIMEType)
	}
	// Non-alphanumeric characters stripped from the filename
	if file.Filename != "SarahsBirthdayParty.ics" {
		t.Errorf("expected sanitized filename, got %q", file.Filename)
	}
}

func TestCalendarExport_NoDateOptions_Fails(t *testing.T) {
	t.Parallel()

	event := &model.Event{ID: "event:e1", Name: "Undecided"}

	_, err := newTestCalendarService().Export(event)
	if err == nil {
		t.Fatal("expected error for event without date options")
	}
	problem, ok := err.(*model.ProblemDetails)
	if !ok || problem.Code != model.ErrCodeNoDateOptions {
		t.Errorf("expected no-date-options error code, got %v", err)
	}
}

func TestCalendarExport_UnparseableWinner_FailsClosed(t *testing.T) {
	t.Parallel()

	event := &model.Event{
		ID:          "event:e1",
		Name:        "Fuzzy Plans",
		DateOptions: []string{"sometime in spring"},
	}

	_, err := newTestCalendarService().Export(event)
	if err == nil {
		t.Fatal("expected error for unparseable winning date")
	}
	problem, ok := err.(*model.ProblemDetails)
	if !ok || problem.Code != model.ErrCodeInvalidDate {
		t.Errorf("expected invalid-date error code, got %v", err)
	}
}

func TestCalendarExport_DescriptionNewlinesEscaped(t *testing.T) {
	t.Parallel()

	event := &model.Event{
		ID:          "event:e1",
		Name:        "Team Sync",
		Description: "Agenda:\nItem one",
		DateOptions: []string{"2026-01-15T10:00:00Z"},
	}

	file, err := newTestCalendarService().Export(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := string(file.Content)
	if strings.Contains(payload, "Agenda:\nItem") {
		t.Error("expected raw newline to be escaped in DESCRIPTION")
	}
	if !strings.Contains(payload, `Agenda:\nItem one`) {
		t.Errorf("expected escaped newline in payload:\n%s", payload)
	}
}

func TestCalendarFilename_EmptyAfterStrip(t *testing.T) {
	t.Parallel()

	if got := calendarFilename("!!!"); got != "event.ics" {
		t.Errorf("expected fallback filename, got %q", got)
	}
}
