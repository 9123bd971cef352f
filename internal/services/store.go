package services

import (
	"sort"
	"strings"
	"sync"

	"laganbus/internal/domain"
)

// ReconciliationStore holds the session's view of the three stage
// collections. It is volatile: rebuilt wholesale from the remote store on
// every refresh, and mutated only by the mutation coordinator. Handlers
// read through it concurrently, hence the lock; all writes go through the
// coordinator's optimistic-mutation paths.
type ReconciliationStore struct {
	mu     sync.RWMutex
	stages map[domain.Stage][]domain.Booking
}

func NewReconciliationStore() *ReconciliationStore {
	return &ReconciliationStore{
		stages: map[domain.Stage][]domain.Booking{
			domain.StagePending: {},
			domain.StageActive:  {},
			domain.StageArchive: {},
		},
	}
}

// SortByIDDesc orders a stage list newest-first, approximated by lexical
// descending booking id. Records lacking an id keep their fetch order.
func SortByIDDesc(list []domain.Booking) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].ID == "" || list[j].ID == "" {
			return false
		}
		return list[i].ID > list[j].ID
	})
}

// ReplaceAll swaps in freshly fetched stage collections in one step.
func (s *ReconciliationStore) ReplaceAll(pending, active, archived []domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[domain.StagePending] = pending
	s.stages[domain.StageActive] = active
	s.stages[domain.StageArchive] = archived
}

func (s *ReconciliationStore) List(stage domain.Stage) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Booking(nil), s.stages[stage]...)
}

func (s *ReconciliationStore) Count(stage domain.Stage) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stages[stage])
}

// Filter returns the stage view narrowed by a search term (case-insensitive
// substring over name, phone and id) and a date filter (calendar equality
// when the journey date parses, raw substring containment otherwise).
func (s *ReconciliationStore) Filter(stage domain.Stage, searchTerm, dateFilter string) []domain.Booking {
	q := strings.ToLower(strings.TrimSpace(searchTerm))
	date := strings.TrimSpace(dateFilter)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Booking{}
	for _, b := range s.stages[stage] {
		if q != "" &&
			!strings.Contains(strings.ToLower(b.Name), q) &&
			!strings.Contains(b.Phone, q) &&
			!strings.Contains(strings.ToLower(b.ID), q) {
			continue
		}
		if date != "" && !matchesDate(b.JourneyDate, date) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func matchesDate(journeyDate, filter string) bool {
	if d, ok := ParseJourneyDate(journeyDate); ok {
		if f, ok := ParseJourneyDate(filter); ok {
			return d.Year() == f.Year() && d.Month() == f.Month() && d.Day() == f.Day()
		}
		return d.Format("2006-01-02") == filter
	}
	return strings.Contains(journeyDate, filter)
}

// Prepend puts a booking at the head of a stage list (newest-first display).
func (s *ReconciliationStore) Prepend(stage domain.Stage, b domain.Booking) {
	b.Stage = stage
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[stage] = append([]domain.Booking{b}, s.stages[stage]...)
}

// Remove drops the booking matched by id (fallback: rowIndex) from a stage.
func (s *ReconciliationStore) Remove(stage domain.Stage, id string, rowIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.stages[stage]
	for i, b := range list {
		if matchesBooking(b, id, rowIndex) {
			s.stages[stage] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Patch overwrites the matching record in place, matched by id first and
// rowIndex as fallback.
func (s *ReconciliationStore) Patch(stage domain.Stage, id string, rowIndex int, updated domain.Booking) bool {
	updated.Stage = stage
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.stages[stage]
	for i, b := range list {
		if matchesBooking(b, id, rowIndex) {
			list[i] = updated
			return true
		}
	}
	return false
}

func (s *ReconciliationStore) Find(stage domain.Stage, id string, rowIndex int) (domain.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.stages[stage] {
		if matchesBooking(b, id, rowIndex) {
			return b, true
		}
	}
	return domain.Booking{}, false
}

func (s *ReconciliationStore) Clear(stage domain.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[stage] = []domain.Booking{}
}

// TotalRevenue sums booking totals across active and archived stages.
func (s *ReconciliationStore) TotalRevenue() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := 0.0
	for _, stage := range []domain.Stage{domain.StageActive, domain.StageArchive} {
		for _, b := range s.stages[stage] {
			sum += b.TotalAmount
		}
	}
	return sum
}

// TotalPassengers counts seat entries (male + female) across active and
// archived stages.
func (s *ReconciliationStore) TotalPassengers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, stage := range []domain.Stage{domain.StageActive, domain.StageArchive} {
		for _, b := range s.stages[stage] {
			n += SeatCount(b.MaleSeats) + SeatCount(b.FemaleSeats)
		}
	}
	return n
}

func matchesBooking(b domain.Booking, id string, rowIndex int) bool {
	if id != "" && b.ID == id {
		return true
	}
	if id == "" || b.ID == "" {
		return rowIndex > 0 && b.RowIndex == rowIndex
	}
	return false
}
