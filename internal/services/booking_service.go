package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"laganbus/internal/domain"
	"laganbus/internal/utils"
)

// RemoteStore is the slice of the sheet-store client the coordinator needs.
type RemoteStore interface {
	FetchStage(ctx context.Context, stage domain.Stage) ([]map[string]any, error)
	SearchByPhone(ctx context.Context, phone string) (map[string]any, error)
	AutoArchive(ctx context.Context) error
	Add(ctx context.Context, fields url.Values) error
	Update(ctx context.Context, fields url.Values) error
	Delete(ctx context.Context, id string, rowIndex int, stage domain.Stage) error
	ClearArchive(ctx context.Context) error
}

// BookingService is the mutation coordinator: every state-changing
// operation performs the remote write first and then mutates the
// reconciliation store optimistically. The remote write path cannot
// distinguish acceptance from rejection (fire-and-forget protocol), so
// local state is the session's source of truth until the next Refresh.
type BookingService struct {
	Remote    RemoteStore
	Store     *ReconciliationStore
	Pricing   Pricing
	RequestID string
	Now       func() time.Time

	inflight *opGuard
}

func NewBookingService(remote RemoteStore, store *ReconciliationStore, pricing Pricing) BookingService {
	return BookingService{
		Remote:   remote,
		Store:    store,
		Pricing:  pricing,
		Now:      time.Now,
		inflight: newOpGuard(),
	}
}

// WithRequest returns a copy of the service bound to one request id for
// logging. The copy shares the store and the in-flight guard.
func (s BookingService) WithRequest(requestID string) BookingService {
	s.RequestID = requestID
	return s
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SubmitInput is a new booking draft. Customer submissions carry seat
// counts ("2"); operator adds carry seat lists ("12A,12B"). Total may be a
// manual override; when empty it is derived from the price table.
type SubmitInput struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Bus         string `json:"bus"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
	MaleSeats   string `json:"maleSeats"`
	FemaleSeats string `json:"femaleSeats"`
	Payment     string `json:"payment"`
	Total       string `json:"total"`
}

// SubmitResult reports the outcome of a submission, including the pricing
// notice when the bus service has no known rate.
type SubmitResult struct {
	Booking domain.Booking `json:"booking"`
	Notice  string         `json:"notice,omitempty"`
}

// Submit creates a pending-stage booking (customer path). When the remote
// write fails on transport, the returned result still carries the composed
// booking draft alongside the error: the caller hands the customer the
// WhatsApp message so the booking completes manually.
func (s BookingService) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	return s.submit(ctx, in, false)
}

// Add creates an active-stage booking directly (operator path); its status
// is always Confirmed.
func (s BookingService) Add(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	return s.submit(ctx, in, true)
}

func (s BookingService) submit(ctx context.Context, in SubmitInput, operatorAdd bool) (SubmitResult, error) {
	var res SubmitResult

	if strings.TrimSpace(in.Name) == "" {
		return res, domain.ValidationError{Field: "name", Msg: "required"}
	}
	if len(utils.DigitsOnly(in.Phone)) < 9 {
		return res, domain.ValidationError{Field: "phone", Msg: "must contain at least 9 digits"}
	}

	seats := s.seatTotal(in, operatorAdd)
	if seats <= 0 {
		return res, domain.ValidationError{Field: "seats", Msg: "at least one seat must be requested"}
	}

	total := utils.ParseAmount(in.Total)
	if strings.TrimSpace(in.Total) == "" {
		computed, err := s.Pricing.Total(in.Bus, seats)
		if err != nil {
			res.Notice = "no rate found for this bus service, total set to 0"
		}
		total = computed
	}

	payment := domain.PaymentStatus(strings.TrimSpace(in.Payment))
	if payment == "" {
		payment = domain.PaymentPending
	}

	if operatorAdd && strings.TrimSpace(in.Time) == "" {
		if dt, ok := s.Pricing.DefaultTime(in.Bus); ok {
			in.Time = dt
		}
	}

	sheetTime := NormalizeTime(in.Time)
	sheetDate := SheetDate(in.Date)

	fields := url.Values{}
	fields.Set("name", in.Name)
	fields.Set("phone", in.Phone)
	fields.Set("bus", in.Bus)
	fields.Set("time", sheetTime)
	fields.Set("date", sheetDate)
	fields.Set("maleSeats", in.MaleSeats)
	fields.Set("femaleSeats", in.FemaleSeats)
	fields.Set("pickup", in.Pickup)
	fields.Set("destination", in.Destination)
	fields.Set("payment", string(payment))
	fields.Set("total", fmt.Sprintf("%.0f", total))

	stage := domain.StagePending
	status := domain.StatusPending
	if operatorAdd {
		stage = domain.StageActive
		status = domain.StatusConfirmed
		fields.Set("type", string(domain.StageActive))
		fields.Set("status", string(domain.StatusConfirmed))
	}

	// The store assigns the booking id; until the next refresh the local
	// copy rides without one and is matched by nothing but position.
	b := domain.Booking{
		Name:          in.Name,
		Phone:         in.Phone,
		BusService:    in.Bus,
		JourneyDate:   NormalizeDate(in.Date),
		DepartureTime: sheetTime,
		Pickup:        in.Pickup,
		Destination:   in.Destination,
		MaleSeats:     in.MaleSeats,
		FemaleSeats:   in.FemaleSeats,
		TotalAmount:   total,
		Payment:       payment,
		Status:        status,
		Stage:         stage,
	}

	if err := s.Remote.Add(ctx, fields); err != nil {
		res.Booking = b
		return res, err
	}
	s.Store.Prepend(stage, b)

	utils.LogEvent(s.RequestID, "booking", "submit", fmt.Sprintf("stage=%s bus=%s seats=%d", stage, in.Bus, seats))
	res.Booking = b
	return res, nil
}

func (s BookingService) seatTotal(in SubmitInput, operatorAdd bool) int {
	if operatorAdd {
		return SeatCount(in.MaleSeats) + SeatCount(in.FemaleSeats)
	}
	m, _ := strconv.Atoi(strings.TrimSpace(in.MaleSeats))
	f, _ := strconv.Atoi(strings.TrimSpace(in.FemaleSeats))
	return m + f
}

// Approve moves a pending booking to the active stage. The remote sequence
// is two causally ordered writes: first a full field save with status
// Pending (so edits made just before approval are not lost), then the
// status transition that makes the store move the row. Locally the booking
// leaves pending and enters the head of active with status Confirmed.
func (s BookingService) Approve(ctx context.Context, id string, rowIndex int) (domain.Booking, error) {
	if id == "" && rowIndex <= 0 {
		return domain.Booking{}, domain.ValidationError{Msg: "booking id or row required"}
	}

	b, ok := s.Store.Find(domain.StagePending, id, rowIndex)
	if !ok {
		return domain.Booking{}, domain.NotFoundError{Resource: "pending booking"}
	}

	key := opKey("approve", b.ID, b.RowIndex)
	if !s.inflight.acquire(key) {
		return domain.Booking{}, domain.ConflictError{Resource: "booking", Msg: "approve already in progress"}
	}
	defer s.inflight.release(key)

	save := s.fullPayload(b, domain.StagePending)
	save.Set("status", string(domain.StatusPending))
	if err := s.Remote.Update(ctx, save); err != nil {
		return domain.Booking{}, err
	}

	move := s.identityPayload(b, domain.StagePending)
	move.Set("status", string(domain.StatusConfirmed))
	if err := s.Remote.Update(ctx, move); err != nil {
		return domain.Booking{}, err
	}

	s.Store.Remove(domain.StagePending, b.ID, b.RowIndex)
	b.Status = domain.StatusConfirmed
	b.Stage = domain.StageActive
	s.Store.Prepend(domain.StageActive, b)

	utils.LogEvent(s.RequestID, "booking", "approve", "id="+b.ID)
	return b, nil
}

// UpdateInput carries an edited booking. Stage names the collection the
// record currently lives in; Status is the target booking status. An empty
// Total asks for recomputation from the price table; a non-empty one is a
// manual override that persists until the next auto-calculation.
type UpdateInput struct {
	ID          string `json:"id"`
	RowIndex    int    `json:"rowIndex"`
	Stage       string `json:"stage"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Bus         string `json:"bus"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
	MaleSeats   string `json:"maleSeats"`
	FemaleSeats string `json:"femaleSeats"`
	Payment     string `json:"payment"`
	Status      string `json:"status"`
	Total       string `json:"total"`
}

// Update persists field edits. Setting a pending booking's status to
// Confirmed is a stage move and follows the same two-step sequence as
// Approve; any other edit is a single update command.
func (s BookingService) Update(ctx context.Context, in UpdateInput) (domain.Booking, error) {
	stage, ok := domain.ParseStage(in.Stage)
	if !ok {
		return domain.Booking{}, domain.ValidationError{Field: "stage", Msg: "must be pending, active or archive"}
	}
	current, found := s.Store.Find(stage, in.ID, in.RowIndex)
	if !found {
		return domain.Booking{}, domain.NotFoundError{Resource: "booking"}
	}

	key := opKey("update", current.ID, current.RowIndex)
	if !s.inflight.acquire(key) {
		return domain.Booking{}, domain.ConflictError{Resource: "booking", Msg: "update already in progress"}
	}
	defer s.inflight.release(key)

	status := domain.BookingStatus(strings.TrimSpace(in.Status))
	if status == "" {
		status = domain.StatusConfirmed
	}

	total := utils.ParseAmount(in.Total)
	notice := ""
	if strings.TrimSpace(in.Total) == "" {
		computed, err := s.Pricing.QuoteSeatFields(in.Bus, in.MaleSeats, in.FemaleSeats)
		if err != nil {
			notice = "no rate for bus service"
		}
		total = computed
	}

	edited := current
	edited.Name = in.Name
	edited.Phone = in.Phone
	edited.BusService = in.Bus
	edited.JourneyDate = NormalizeDate(in.Date)
	edited.DepartureTime = NormalizeTime(in.Time)
	edited.Pickup = in.Pickup
	edited.Destination = in.Destination
	edited.MaleSeats = in.MaleSeats
	edited.FemaleSeats = in.FemaleSeats
	payment := domain.PaymentStatus(strings.TrimSpace(in.Payment))
	if payment == "" {
		payment = domain.PaymentPending
	}

	edited.TotalAmount = total
	edited.Payment = payment
	edited.Status = status

	movingToActive := stage == domain.StagePending && status == domain.StatusConfirmed

	if movingToActive {
		save := s.fullPayload(edited, domain.StagePending)
		save.Set("status", string(domain.StatusPending))
		if err := s.Remote.Update(ctx, save); err != nil {
			return domain.Booking{}, err
		}
		move := s.identityPayload(edited, domain.StagePending)
		move.Set("status", string(domain.StatusConfirmed))
		if err := s.Remote.Update(ctx, move); err != nil {
			return domain.Booking{}, err
		}

		s.Store.Remove(domain.StagePending, edited.ID, edited.RowIndex)
		edited.Stage = domain.StageActive
		s.Store.Prepend(domain.StageActive, edited)
	} else {
		fields := s.fullPayload(edited, stage)
		fields.Set("status", string(status))
		if err := s.Remote.Update(ctx, fields); err != nil {
			return domain.Booking{}, err
		}
		s.Store.Patch(stage, edited.ID, edited.RowIndex, edited)
	}

	if notice != "" {
		utils.LogEvent(s.RequestID, "booking", "update_notice", notice)
	}
	utils.LogEvent(s.RequestID, "booking", "update", fmt.Sprintf("id=%s stage=%s move=%t", edited.ID, stage, movingToActive))
	return edited, nil
}

// Delete removes a booking from its current stage. The caller must have
// confirmed the action; the engine refuses to delete without it.
func (s BookingService) Delete(ctx context.Context, id string, rowIndex int, stageName string, confirmed bool) error {
	if !confirmed {
		return domain.ValidationError{Field: "confirm", Msg: "deletion requires explicit confirmation"}
	}
	stage, ok := domain.ParseStage(stageName)
	if !ok {
		return domain.ValidationError{Field: "stage", Msg: "must be pending, active or archive"}
	}
	b, found := s.Store.Find(stage, id, rowIndex)
	if !found {
		return domain.NotFoundError{Resource: "booking"}
	}

	key := opKey("delete", b.ID, b.RowIndex)
	if !s.inflight.acquire(key) {
		return domain.ConflictError{Resource: "booking", Msg: "delete already in progress"}
	}
	defer s.inflight.release(key)

	if err := s.Remote.Delete(ctx, b.ID, b.RowIndex, stage); err != nil {
		return err
	}
	s.Store.Remove(stage, b.ID, b.RowIndex)

	utils.LogEvent(s.RequestID, "booking", "delete", fmt.Sprintf("id=%s stage=%s", b.ID, stage))
	return nil
}

// ClearArchive deletes every archived booking in one remote command and
// empties the local archive collection unconditionally. Pending and active
// records are untouched.
func (s BookingService) ClearArchive(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return domain.ValidationError{Field: "confirm", Msg: "clearing the archive requires explicit confirmation"}
	}
	if err := s.Remote.ClearArchive(ctx); err != nil {
		return err
	}
	s.Store.Clear(domain.StageArchive)
	utils.LogEvent(s.RequestID, "booking", "clear_archive", "archive emptied")
	return nil
}

// RefreshResult reports the rebuilt collection sizes and which stage the
// caller should display afterwards.
type RefreshResult struct {
	Pending      int          `json:"pending"`
	Active       int          `json:"active"`
	Archived     int          `json:"archived"`
	VisibleStage domain.Stage `json:"visibleStage"`
}

// Refresh triggers the store's auto-archive sweep, refetches the three
// stages in parallel, renormalizes and reclassifies them, and replaces the
// local collections wholesale. Any single fetch failure aborts the whole
// refresh so the prior state is never partially overwritten. If pending
// requests exist while active is empty and the caller was viewing active,
// the visible stage switches to pending to surface unattended requests.
func (s BookingService) Refresh(ctx context.Context, currentStage domain.Stage) (RefreshResult, error) {
	if err := s.Remote.AutoArchive(ctx); err != nil {
		return RefreshResult{}, err
	}

	var raw [3][]map[string]any
	stages := []domain.Stage{domain.StagePending, domain.StageActive, domain.StageArchive}

	g, gctx := errgroup.WithContext(ctx)
	for i, stage := range stages {
		g.Go(func() error {
			list, err := s.Remote.FetchStage(gctx, stage)
			if err != nil {
				return err
			}
			raw[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RefreshResult{}, err
	}

	now := s.now()
	lists := make([][]domain.Booking, 3)
	for i, stage := range stages {
		normalized := make([]domain.Booking, 0, len(raw[i]))
		for idx, rec := range raw[i] {
			normalized = append(normalized, NormalizeRecord(rec, idx+2, stage))
		}
		normalized = Classify(stage, normalized, now)
		SortByIDDesc(normalized)
		lists[i] = normalized
	}
	s.Store.ReplaceAll(lists[0], lists[1], lists[2])

	res := RefreshResult{
		Pending:      len(lists[0]),
		Active:       len(lists[1]),
		Archived:     len(lists[2]),
		VisibleStage: currentStage,
	}
	if res.Pending > 0 && res.Active == 0 && currentStage == domain.StageActive {
		res.VisibleStage = domain.StagePending
	}

	utils.LogEvent(s.RequestID, "booking", "refresh",
		fmt.Sprintf("pending=%d active=%d archived=%d visible=%s", res.Pending, res.Active, res.Archived, res.VisibleStage))
	return res, nil
}

// CheckStatus looks up a booking by phone number against the remote store
// (customer status check; the reconciliation store is not consulted).
func (s BookingService) CheckStatus(ctx context.Context, phone string) (domain.Booking, error) {
	if len(utils.DigitsOnly(phone)) < 9 {
		return domain.Booking{}, domain.ValidationError{Field: "phone", Msg: "must contain at least 9 digits"}
	}
	rec, err := s.Remote.SearchByPhone(ctx, phone)
	if err != nil {
		return domain.Booking{}, err
	}
	return NormalizeRecord(rec, 0, domain.StagePending), nil
}

// Stats summarizes the dashboard counters.
type Stats struct {
	PendingCount    int     `json:"pendingCount"`
	TotalPassengers int     `json:"totalPassengers"`
	TotalRevenue    float64 `json:"totalRevenue"`
}

func (s BookingService) Stats() Stats {
	return Stats{
		PendingCount:    s.Store.Count(domain.StagePending),
		TotalPassengers: s.Store.TotalPassengers(),
		TotalRevenue:    s.Store.TotalRevenue(),
	}
}

// fullPayload carries every booking field in the lowercase naming write
// commands use.
func (s BookingService) fullPayload(b domain.Booking, stage domain.Stage) url.Values {
	fields := url.Values{}
	fields.Set("id", b.ID)
	fields.Set("type", string(stage))
	fields.Set("name", b.Name)
	fields.Set("phone", b.Phone)
	fields.Set("bus", b.BusService)
	fields.Set("time", NormalizeTime(b.DepartureTime))
	fields.Set("date", SheetDate(b.JourneyDate))
	fields.Set("pickup", b.Pickup)
	fields.Set("destination", b.Destination)
	fields.Set("maleSeats", b.MaleSeats)
	fields.Set("femaleSeats", b.FemaleSeats)
	fields.Set("payment", string(b.Payment))
	fields.Set("total", fmt.Sprintf("%.0f", b.TotalAmount))
	if b.RowIndex > 0 {
		fields.Set("row", strconv.Itoa(b.RowIndex))
	}
	return fields
}

// identityPayload names just the row; paired with a status field it tells
// the store to transition the record's stage.
func (s BookingService) identityPayload(b domain.Booking, stage domain.Stage) url.Values {
	fields := url.Values{}
	fields.Set("id", b.ID)
	fields.Set("type", string(stage))
	if b.RowIndex > 0 {
		fields.Set("row", strconv.Itoa(b.RowIndex))
	}
	return fields
}

func opKey(kind, id string, rowIndex int) string {
	if id == "" {
		return kind + ":row:" + strconv.Itoa(rowIndex)
	}
	return kind + ":" + id
}
