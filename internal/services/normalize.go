package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"laganbus/internal/domain"
	"laganbus/internal/utils"
)

// Records arriving from the sheet store are loosely typed and use
// unpredictable key naming: rows exported from the sheet carry capitalized
// column labels ("Booking ID", "Male Seat") while rows echoed back from the
// script API use lowercase identifiers ("id", "maleSeats"). Each canonical
// attribute resolves through an ordered alias list; first present non-empty
// value wins, and a missing field degrades to its zero value.
var (
	aliasID          = []string{"Booking ID", "Booking Id", "id"}
	aliasName        = []string{"Name", "name"}
	aliasPhone       = []string{"Phone", "phone"}
	aliasBus         = []string{"Bus", "bus"}
	aliasDate        = []string{"Date", "dateFormatted", "date"}
	aliasTime        = []string{"Time", "time"}
	aliasPickup      = []string{"Pickup", "pickup"}
	aliasDestination = []string{"Destination", "destination"}
	aliasMaleSeats   = []string{"Male Seat", "maleSeats"}
	aliasFemaleSeats = []string{"Female Seat", "femaleSeats"}
	aliasTotal       = []string{"Total", "totalAmount", "estimatedTotal", "total"}
	aliasPayment     = []string{"Payment", "payment"}
	aliasStatus      = []string{"Status", "status"}
)

// NormalizeRecord maps one externally-sourced record into a canonical
// Booking. fallbackRow is the record's position-derived sheet row (data rows
// start at 2), used when the record carries no rowIndex of its own.
func NormalizeRecord(rec map[string]any, fallbackRow int, stage domain.Stage) domain.Booking {
	b := domain.Booking{
		ID:            resolve(rec, aliasID),
		Name:          resolve(rec, aliasName),
		Phone:         resolve(rec, aliasPhone),
		BusService:    resolve(rec, aliasBus),
		JourneyDate:   NormalizeDate(resolve(rec, aliasDate)),
		DepartureTime: NormalizeTime(resolve(rec, aliasTime)),
		Pickup:        resolve(rec, aliasPickup),
		Destination:   resolve(rec, aliasDestination),
		MaleSeats:     resolve(rec, aliasMaleSeats),
		FemaleSeats:   resolve(rec, aliasFemaleSeats),
		TotalAmount:   utils.ParseAmount(resolve(rec, aliasTotal)),
		Payment:       domain.PaymentStatus(resolve(rec, aliasPayment)),
		Status:        domain.BookingStatus(resolve(rec, aliasStatus)),
		Stage:         stage,
	}

	b.RowIndex = fallbackRow
	if v, ok := rec["rowIndex"]; ok {
		if n := int(toNumber(v)); n > 0 {
			b.RowIndex = n
		}
	}
	return b
}

func resolve(rec map[string]any, aliases []string) string {
	for _, key := range aliases {
		v, ok := rec[key]
		if !ok {
			continue
		}
		s := strings.TrimSpace(valueToString(v))
		if s != "" {
			return s
		}
	}
	return ""
}

func valueToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		n, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n
	default:
		return 0
	}
}

var (
	reLeadingHourDigit = regexp.MustCompile(`\b(\d)\.`)
	reMeridiem         = regexp.MustCompile(`(?i)([AP]M)`)
)

// NormalizeTime renders any accepted departure time as "HH.MM AM/PM" with a
// zero-padded two-digit hour, the sheet's fixed display convention.
// 24-hour "HH:MM" input is converted numerically; anything else goes through
// the textual substitutions ("9:00 PM" -> "09.00 PM").
func NormalizeTime(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if strings.Contains(s, ":") && !strings.Contains(strings.ToLower(s), "m") {
		parts := strings.Split(s, ":")
		if hour, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil && len(parts) > 1 {
			period := "AM"
			if hour >= 12 {
				period = "PM"
			}
			if hour > 12 {
				hour -= 12
			}
			if hour == 0 {
				hour = 12
			}
			return fmt.Sprintf("%02d.%s %s", hour, parts[1], period)
		}
	}

	s = strings.ReplaceAll(s, ":", ".")
	s = reLeadingHourDigit.ReplaceAllString(s, "0$1.")
	s = reMeridiem.ReplaceAllString(s, " $1")
	return utils.NormalizeSpace(s)
}

// journeyDateLayouts covers the shapes the sheet has been seen to emit:
// ISO timestamps, ISO dates, US-style dates, and slashed variants.
var journeyDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseJourneyDate attempts generic parsing of a journey date string.
func ParseJourneyDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range journeyDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate canonicalizes a journey date to "YYYY/MM/DD" for display.
// Unparseable input degrades to a dash-to-slash substitution, never an error.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if t, ok := ParseJourneyDate(s); ok {
		return t.Format("2006/01/02")
	}
	return strings.ReplaceAll(s, "-", "/")
}

// SheetDate converts a form date ("2025-03-05" or anything parseable) into
// the "MM/DD/YYYY" shape the sheet store expects on write commands.
func SheetDate(raw string) string {
	s := strings.TrimSpace(raw)
	if t, ok := ParseJourneyDate(s); ok {
		return t.Format("01/02/2006")
	}
	return s
}

// SeatCount counts comma-separated non-empty segments of a seat field.
// This is the counting used for passenger aggregates and operator-entered
// seat lists: "12A,12B" -> 2, "5" -> 1, "" -> 0.
func SeatCount(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	n := 0
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

// SeatCountLoneOne is the edit-recompute variant: a value without commas
// counts as one entry regardless of content. The two counting modes are
// deliberately separate because a pre-assignment field holds a requested
// count while a post-assignment field holds a seat list.
func SeatCountLoneOne(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		return SeatCount(s)
	}
	return 1
}
