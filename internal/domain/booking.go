package domain

import "strings"

// Stage is the lifecycle bucket a booking currently occupies. The values
// match the remote store's "type" parameter, so they go on the wire as-is.
type Stage string

const (
	StagePending Stage = "pending"
	StageActive  Stage = "active"
	StageArchive Stage = "archive"
)

func ParseStage(s string) (Stage, bool) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case StagePending:
		return StagePending, true
	case StageActive:
		return StageActive, true
	case StageArchive, "archived":
		return StageArchive, true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCancelled BookingStatus = "Cancelled"
)

// Booking is the canonical, normalized representation of one reservation,
// independent of the remote store's field naming. ID is assigned by the
// remote store at creation; RowIndex is the positional handle into the
// store's current stage table (0 when unknown) used to disambiguate when
// the ID is absent.
type Booking struct {
	ID            string        `json:"id"`
	RowIndex      int           `json:"rowIndex,omitempty"`
	Name          string        `json:"name"`
	Phone         string        `json:"phone"`
	BusService    string        `json:"bus"`
	JourneyDate   string        `json:"date"`
	DepartureTime string        `json:"time"`
	Pickup        string        `json:"pickup"`
	Destination   string        `json:"destination"`
	MaleSeats     string        `json:"maleSeats"`
	FemaleSeats   string        `json:"femaleSeats"`
	TotalAmount   float64       `json:"total"`
	Payment       PaymentStatus `json:"payment"`
	Status        BookingStatus `json:"status"`
	Stage         Stage         `json:"stage"`
}

// ShortID returns the display form of the booking reference: the segment
// after the last dash, e.g. "BK-2025-0042" -> "0042".
func (b Booking) ShortID() string {
	if b.ID == "" {
		return ""
	}
	parts := strings.Split(b.ID, "-")
	return parts[len(parts)-1]
}

func (b Booking) Paid() bool {
	return strings.Contains(strings.ToLower(string(b.Payment)), "paid")
}

// BusService is one row of the static price reference table, loaded once
// at startup and immutable for the session.
type BusService struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	DefaultTime string `json:"defaultTime"`
}

// ServiceTable maps a bus service name to its rate and default departure.
type ServiceTable map[string]BusService
