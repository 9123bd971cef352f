package services

import "laganbus/internal/domain"

// Pricing derives booking totals from the bus service rate table. The table
// is handed in at construction and never mutated during a session.
type Pricing struct {
	Services domain.ServiceTable
}

// Total computes rate x seats for a bus service. An unknown service yields a
// zero total plus a NotFoundError the caller surfaces as an informational
// notice; the flow never blocks on a missing rate.
func (p Pricing) Total(busService string, seats int) (float64, error) {
	svc, ok := p.Services[busService]
	if !ok {
		return 0, domain.NotFoundError{Resource: "bus service"}
	}
	if seats < 0 {
		seats = 0
	}
	return float64(svc.Price * int64(seats)), nil
}

// QuoteSeatFields recomputes a total from the two seat fields during an
// edit. Recomputation is idempotent: unchanged fields and service always
// yield the same value.
func (p Pricing) QuoteSeatFields(busService, maleSeats, femaleSeats string) (float64, error) {
	return p.Total(busService, SeatCountLoneOne(maleSeats)+SeatCountLoneOne(femaleSeats))
}

// DefaultTime reports the service's default departure time, used to pre-fill
// the time field when an operator picks a bus.
func (p Pricing) DefaultTime(busService string) (string, bool) {
	svc, ok := p.Services[busService]
	if !ok {
		return "", false
	}
	return svc.DefaultTime, true
}
