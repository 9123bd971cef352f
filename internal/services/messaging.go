package services

import (
	"fmt"
	"net/url"
	"strings"

	"laganbus/internal/domain"
	"laganbus/internal/utils"
)

// Messaging builds the outbound handoff links: the WhatsApp message a
// customer sends to finalize a new booking, and the SMS confirmation an
// operator fires after approval. Both are pure formatting of a finalized
// booking record; nothing here talks to a network.
type Messaging struct {
	AdminWhatsApp string
	BankName      string
}

// WhatsAppLink renders the new-booking message and wraps it in a wa.me URL
// pointing at the admin number.
func (m Messaging) WhatsAppLink(b domain.Booking) string {
	var sb strings.Builder
	sb.WriteString("*NEW LAGAN BUS BOOKING*\n\n")
	fmt.Fprintf(&sb, "Name: %s\n", b.Name)
	fmt.Fprintf(&sb, "Phone: %s\n", b.Phone)
	fmt.Fprintf(&sb, "Route: %s -> %s\n", b.Pickup, b.Destination)
	fmt.Fprintf(&sb, "Date: %s\n", b.JourneyDate)
	fmt.Fprintf(&sb, "Time: %s\n", b.DepartureTime)
	fmt.Fprintf(&sb, "Bus: %s\n", b.BusService)
	fmt.Fprintf(&sb, "Seats: M:%s / F:%s\n", zeroIfEmpty(b.MaleSeats), zeroIfEmpty(b.FemaleSeats))
	fmt.Fprintf(&sb, "Total: %s\n\n", utils.FormatLKR(b.TotalAmount))
	fmt.Fprintf(&sb, "_Please attach payment slip for %s account_", m.BankName)

	return "https://wa.me/" + m.AdminWhatsApp + "?text=" + url.QueryEscape(sb.String())
}

// SMSLink renders the confirmation text as an sms: URL addressed to the
// passenger's own number.
func (m Messaging) SMSLink(b domain.Booking) (string, error) {
	if strings.TrimSpace(b.Phone) == "" {
		return "", domain.ValidationError{Field: "phone", Msg: "no phone number available"}
	}

	var sb strings.Builder
	sb.WriteString("Lagan Bus Booking Confirmed!\n")
	fmt.Fprintf(&sb, "Ref: %s\n", b.ID)
	fmt.Fprintf(&sb, "Bus: %s\n", b.BusService)
	fmt.Fprintf(&sb, "Date: %s\n", b.JourneyDate)
	fmt.Fprintf(&sb, "Time: %s\n", b.DepartureTime)
	fmt.Fprintf(&sb, "From: %s\n", b.Pickup)
	fmt.Fprintf(&sb, "To: %s\n", b.Destination)
	fmt.Fprintf(&sb, "Seats (M): %s\n", zeroIfEmpty(b.MaleSeats))
	fmt.Fprintf(&sb, "Seats (F): %s\n", zeroIfEmpty(b.FemaleSeats))
	fmt.Fprintf(&sb, "Total: %s\n", utils.FormatLKR(b.TotalAmount))
	sb.WriteString("Please arrive 15 mins early.")

	return "sms:" + b.Phone + "?body=" + url.QueryEscape(sb.String()), nil
}

func zeroIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}
