package feed

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/clubcal/clubcal-backend/internal/models"
	"github.com/go-pdf/fpdf"
)

// Default brand colors (indigo), overridden by the club's colors when set.
const (
	defaultPrimary = "#6366f1"
	defaultAccent  = "#a5b4fc"
)

// At most one page: everything past this many events collapses into an
// "and N more" line.
const maxEventsOnePage = 18

// PDFOptions carries the branding around a calendar snapshot.
type PDFOptions struct {
	TeamName       string
	ClubName       string
	PrimaryColor   string
	SecondaryColor string
	Logo           []byte
	LogoFormat     string // "png" or "jpg"; ignored when Logo is empty
}

// PDF renders a printable one-page snapshot of the calendar: header with
// optional logo, then a Date/Time/Match/Location table of the first 18 events
// by date. Pure transformation; the caller owns fetching and authorization.
func PDF(opts PDFOptions, events []models.CalendarEvent) ([]byte, error) {
	primary := opts.PrimaryColor
	if primary == "" {
		primary = defaultPrimary
	}
	accent := opts.SecondaryColor
	if accent == "" {
		accent = defaultAccent
	}
	pr, pg, pb := hexToRGB(primary, defaultPrimary)
	ar, ag, ab := hexToRGB(accent, defaultAccent)

	sorted := make([]models.CalendarEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	toShow := sorted
	if len(toShow) > maxEventsOnePage {
		toShow = toShow[:maxEventsOnePage]
	}
	remaining := len(sorted) - len(toShow)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Header
	if len(opts.Logo) > 0 {
		imgType := opts.LogoFormat
		if imgType == "" {
			imgType = "png"
		}
		pdf.RegisterImageOptionsReader("club-logo", fpdf.ImageOptions{ImageType: imgType}, bytes.NewReader(opts.Logo))
		pageW, _ := pdf.GetPageSize()
		pdf.ImageOptions("club-logo", (pageW-16)/2, 15, 16, 16, false, fpdf.ImageOptions{ImageType: imgType}, 0, "")
		pdf.SetY(33)
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(pr, pg, pb)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s Calendar", opts.TeamName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(0, 5, "Print it and keep it on the fridge", "", 1, "C", false, 0, "")

	pageW, _ := pdf.GetPageSize()
	pdf.SetFillColor(ar, ag, ab)
	pdf.Rect((pageW-40)/2, pdf.GetY()+2, 40, 1, "F")
	pdf.Ln(6)

	// Table header
	dateW, timeW := 30.0, 20.0
	matchW := (pageW - 30 - dateW - timeW) / 2
	locW := matchW

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(pr, pg, pb)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(dateW, 8, "Date", "1", 0, "L", true, 0, "")
	pdf.CellFormat(timeW, 8, "Time", "1", 0, "L", true, 0, "")
	pdf.CellFormat(matchW, 8, "Match", "1", 0, "L", true, 0, "")
	pdf.CellFormat(locW, 8, "Venue", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(31, 41, 55)

	if len(toShow) == 0 {
		pdf.CellFormat(dateW+timeW+matchW+locW, 10, "No matches scheduled yet.", "1", 1, "C", false, 0, "")
	}

	for _, ev := range toShow {
		match := fmt.Sprintf("Us vs %s", ev.Opponent)
		if !ev.IsHome {
			match = fmt.Sprintf("%s vs Us", ev.Opponent)
		}
		if ev.Cancelled {
			match += " (Cancelled)"
		}
		pdf.CellFormat(dateW, 7, ev.Date.Format("02 Jan 2006"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(timeW, 7, ev.Date.Format("15:04"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(matchW, 7, match, "1", 0, "L", false, 0, "")
		pdf.CellFormat(locW, 7, ev.Location, "1", 1, "L", false, 0, "")
	}

	if remaining > 0 {
		pdf.SetFont("Helvetica", "I", 7)
		pdf.SetTextColor(107, 114, 128)
		more := fmt.Sprintf("... and %d more match", remaining)
		if remaining > 1 {
			more += "es"
		}
		more += " (see the online calendar)"
		pdf.CellFormat(dateW+timeW+matchW+locW, 6, more, "", 1, "C", false, 0, "")
	}

	// Footer
	footer := opts.ClubName
	if footer == "" {
		footer = "ClubCal"
	}
	pdf.SetY(-20)
	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(156, 163, 175)
	pdf.CellFormat(0, 5, footer, "T", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// hexToRGB parses "#rrggbb", falling back to the given default on malformed
// input.
func hexToRGB(hexColor, fallback string) (int, int, int) {
	if r, g, b, ok := parseHex(hexColor); ok {
		return r, g, b
	}
	if r, g, b, ok := parseHex(fallback); ok {
		return r, g, b
	}
	return 99, 102, 241
}

func parseHex(s string) (int, int, int, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
