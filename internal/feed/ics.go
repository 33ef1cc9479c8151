package feed

import (
	"bytes"
	"fmt"
	"net/url"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/clubcal/clubcal-backend/internal/models"
)

const matchDuration = 2 * time.Hour

// ICS renders a calendar's match list as an iCalendar feed. Events before the
// start of "today" in UTC are excluded; cancelled events within the window
// are kept and marked STATUS:CANCELLED (with a title suffix) rather than
// omitted, so subscribed calendars show the cancellation instead of silently
// dropping the entry.
func ICS(teamName string, events []models.CalendarEvent, now time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//ClubCal//EN")
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(teamName)

	cutoff := startOfTodayUTC(now)

	for _, event := range events {
		if event.Date.Before(cutoff) {
			continue
		}

		e := cal.AddEvent(fmt.Sprintf("%s@clubcal", event.ID))
		e.SetDtStampTime(now)
		e.SetCreatedTime(now)
		e.SetModifiedAt(now)
		e.SetStartAt(event.Date)
		e.SetEndAt(event.Date.Add(matchDuration))

		homeAway := "Home"
		if !event.IsHome {
			homeAway = "Away"
		}

		title := fmt.Sprintf("%s: Match vs %s", homeAway, event.Opponent)
		if event.Cancelled {
			title += " (Cancelled)"
			e.SetStatus(ics.ObjectStatusCancelled)
		} else {
			e.SetStatus(ics.ObjectStatusConfirmed)
		}

		e.SetSummary(title)
		e.SetDescription(fmt.Sprintf(
			"%s match (%s).\nVenue: %s\n\nView on map: %s",
			teamName, homeAway, event.Location, mapsURL(event.Location),
		))
		e.SetLocation(event.Location)
		e.SetTimeTransparency(ics.TransparencyOpaque)
		e.SetClass(ics.ClassificationPublic)
		e.SetSequence(0)
	}

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("error serializing calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func startOfTodayUTC(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mapsURL(location string) string {
	return "https://maps.google.com/?q=" + url.QueryEscape(location)
}
