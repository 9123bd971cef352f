package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"laganbus/internal/domain"
	"laganbus/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders the printable A5 e-ticket for a confirmed booking.
type DocsService struct {
	Store     *ReconciliationStore
	RequestID string
	Now       func() time.Time
}

// GenerateTicket looks the booking up across all stages and renders its
// ticket PDF. Returns the bytes plus a download filename.
func (s DocsService) GenerateTicket(id string, rowIndex int) ([]byte, string, error) {
	b, ok := s.Store.Find(domain.StagePending, id, rowIndex)
	if !ok {
		b, ok = s.Store.Find(domain.StageActive, id, rowIndex)
	}
	if !ok {
		b, ok = s.Store.Find(domain.StageArchive, id, rowIndex)
	}
	if !ok {
		return nil, "", domain.NotFoundError{Resource: "booking"}
	}
	utils.LogEvent(s.RequestID, "docs", "generate_ticket", "id="+b.ID)
	return s.buildTicketPDF(b)
}

// BuildTicket renders a ticket for a booking the caller already holds,
// skipping the store lookup. Used by the status-check flow where the record
// came straight from the remote store.
func (s DocsService) BuildTicket(b domain.Booking) ([]byte, string, error) {
	utils.LogEvent(s.RequestID, "docs", "generate_ticket", "id="+b.ID)
	return s.buildTicketPDF(b)
}

func (s DocsService) buildTicketPDF(b domain.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Bus Ticket", false)
	pdf.AddPage()

	// header band
	pdf.SetFillColor(13, 71, 161)
	pdf.Rect(0, 0, 148, 24, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(10, 6)
	pdf.Cell(0, 8, "LAGAN BUS")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(10, 14)
	pdf.Cell(0, 6, "Luxury Travel Ticket")

	pdf.SetTextColor(33, 33, 33)
	pdf.SetXY(10, 30)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Ref: "+safeDoc(b.ID, "-"))
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Passenger : %s", safeDoc(b.Name, "-")),
		fmt.Sprintf("Phone     : %s", safeDoc(b.Phone, "-")),
		fmt.Sprintf("Service   : %s", safeDoc(b.BusService, "-")),
		fmt.Sprintf("Route     : %s -> %s", safeDoc(b.Pickup, "-"), safeDoc(b.Destination, "-")),
		fmt.Sprintf("Date      : %s", safeDoc(b.JourneyDate, "-")),
		fmt.Sprintf("Departure : %s", safeDoc(b.DepartureTime, "-")),
		fmt.Sprintf("Seats     : M:%s  F:%s", safeDoc(b.MaleSeats, "0"), safeDoc(b.FemaleSeats, "0")),
	}
	for _, l := range lines {
		pdf.SetX(10)
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(3)
	pdf.SetX(10)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Total: "+utils.FormatLKR(b.TotalAmount))
	pdf.Ln(10)

	pdf.SetX(10)
	pdf.SetFont("Helvetica", "", 10)
	status := string(b.Status)
	if b.Paid() {
		status += " / Paid"
	}
	pdf.Cell(0, 6, "Status: "+safeDoc(status, "-"))
	pdf.Ln(10)

	pdf.SetX(10)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(128, 5, "Please arrive at the boarding point 15 minutes before departure. This ticket admits the listed passengers only.", "", "", false)

	pdf.SetY(-18)
	pdf.SetX(10)
	pdf.SetFont("Helvetica", "", 7)
	pdf.Cell(0, 5, "Issued "+s.now().Format("2006-01-02 15:04"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("TICKET_%s.pdf", safeTicketPart(b.ShortID()+"_"+b.Name))
	return buf.Bytes(), filename, nil
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func safeDoc(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeTicketPart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
