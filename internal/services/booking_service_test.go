package services

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laganbus/internal/domain"
)

// fakeRemote records every command the coordinator issues, in order.
type fakeRemote struct {
	mu      sync.Mutex
	calls   []string
	adds    []url.Values
	updates []url.Values

	fetch    map[domain.Stage][]map[string]any
	fetchErr map[domain.Stage]error
	search   map[string]any

	addErr     error
	updateErr  error
	deleteErr  error
	clearErr   error
	archiveErr error
	searchErr  error

	// when set, the first Update call signals updateStarted and then
	// blocks until release is closed
	updateStarted chan struct{}
	release       chan struct{}
	blocked       bool
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) FetchStage(ctx context.Context, stage domain.Stage) ([]map[string]any, error) {
	f.record("fetch:" + string(stage))
	if err := f.fetchErr[stage]; err != nil {
		return nil, err
	}
	return f.fetch[stage], nil
}

func (f *fakeRemote) SearchByPhone(ctx context.Context, phone string) (map[string]any, error) {
	f.record("search")
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search, nil
}

func (f *fakeRemote) AutoArchive(ctx context.Context) error {
	f.record("autoArchive")
	return f.archiveErr
}

func (f *fakeRemote) Add(ctx context.Context, fields url.Values) error {
	f.record("add")
	f.mu.Lock()
	f.adds = append(f.adds, fields)
	f.mu.Unlock()
	return f.addErr
}

func (f *fakeRemote) Update(ctx context.Context, fields url.Values) error {
	f.record("update")
	f.mu.Lock()
	f.updates = append(f.updates, fields)
	block := f.updateStarted != nil && !f.blocked
	if block {
		f.blocked = true
	}
	f.mu.Unlock()
	if block {
		close(f.updateStarted)
		<-f.release
	}
	return f.updateErr
}

func (f *fakeRemote) Delete(ctx context.Context, id string, rowIndex int, stage domain.Stage) error {
	f.record("delete:" + string(stage))
	return f.deleteErr
}

func (f *fakeRemote) ClearArchive(ctx context.Context) error {
	f.record("clearArchive")
	return f.clearErr
}

func newTestService(remote *fakeRemote) BookingService {
	return NewBookingService(remote, NewReconciliationStore(), Pricing{Services: testServiceTable()})
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestService(&fakeRemote{})
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitInput{Phone: "0777123456", MaleSeats: "1"})
	assert.True(t, domain.IsValidation(err), "missing name must fail: %v", err)

	_, err = svc.Submit(ctx, SubmitInput{Name: "Nuwan", Phone: "123", MaleSeats: "1"})
	assert.True(t, domain.IsValidation(err), "short phone must fail: %v", err)

	_, err = svc.Submit(ctx, SubmitInput{Name: "Nuwan", Phone: "0777123456"})
	assert.True(t, domain.IsValidation(err), "zero seats must fail: %v", err)
}

func TestSubmitCustomerPath(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote)

	res, err := svc.Submit(context.Background(), SubmitInput{
		Name:        "Nuwan Perera",
		Phone:       "0777123456",
		Bus:         "Sakeer Express",
		Date:        "2025-03-05",
		Time:        "9:00 PM",
		Pickup:      "Colombo",
		Destination: "Jaffna",
		MaleSeats:   "2",
		FemaleSeats: "1",
	})
	require.NoError(t, err)

	assert.Equal(t, 8100.0, res.Booking.TotalAmount, "3 seats x 2700")
	assert.Equal(t, domain.StagePending, res.Booking.Stage)
	assert.Equal(t, domain.StatusPending, res.Booking.Status)
	assert.Empty(t, res.Booking.ID, "store assigns the id, not the engine")

	require.Len(t, remote.adds, 1)
	fields := remote.adds[0]
	assert.Equal(t, "03/05/2025", fields.Get("date"))
	assert.Equal(t, "09.00 PM", fields.Get("time"))
	assert.Equal(t, "8100", fields.Get("total"))
	assert.Empty(t, fields.Get("type"), "customer submission carries no stage override")

	assert.Equal(t, 1, svc.Store.Count(domain.StagePending))
}

func TestSubmitUnknownServiceNotice(t *testing.T) {
	svc := newTestService(&fakeRemote{})

	res, err := svc.Submit(context.Background(), SubmitInput{
		Name:      "Nuwan",
		Phone:     "0777123456",
		Bus:       "Ghost Line",
		MaleSeats: "2",
	})
	require.NoError(t, err, "a missing rate must not block the submission")
	assert.NotEmpty(t, res.Notice)
	assert.Equal(t, 0.0, res.Booking.TotalAmount)
}

func TestSubmitTransportFailureKeepsDraft(t *testing.T) {
	remote := &fakeRemote{addErr: domain.UnavailableError{Op: "add"}}
	svc := newTestService(remote)

	res, err := svc.Submit(context.Background(), SubmitInput{
		Name:        "Nuwan Perera",
		Phone:       "0777123456",
		Bus:         "Sakeer Express",
		Date:        "2025-03-05",
		Time:        "9:00 PM",
		Pickup:      "Colombo",
		Destination: "Jaffna",
		MaleSeats:   "2",
	})
	require.True(t, domain.IsUnavailable(err))

	// the composed draft survives the failure so the caller can hand the
	// customer the WhatsApp message for manual completion
	assert.Equal(t, "Nuwan Perera", res.Booking.Name)
	assert.Equal(t, "2025/03/05", res.Booking.JourneyDate)
	assert.Equal(t, 5400.0, res.Booking.TotalAmount)
	assert.Equal(t, 0, svc.Store.Count(domain.StagePending), "no optimistic mutation on transport failure")
}

func TestOperatorAdd(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote)

	res, err := svc.Add(context.Background(), SubmitInput{
		Name:      "Amara",
		Phone:     "0712999888",
		Bus:       "Sakeer Express",
		MaleSeats: "12A,12B",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StageActive, res.Booking.Stage)
	assert.Equal(t, domain.StatusConfirmed, res.Booking.Status)
	assert.Equal(t, 5400.0, res.Booking.TotalAmount, "seat list counts segments")

	require.Len(t, remote.adds, 1)
	assert.Equal(t, "active", remote.adds[0].Get("type"))
	assert.Equal(t, "Confirmed", remote.adds[0].Get("status"))

	assert.Equal(t, 1, svc.Store.Count(domain.StageActive))
	assert.Equal(t, 0, svc.Store.Count(domain.StagePending))
}

func TestOperatorAddDefaultsDepartureTime(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote)

	res, err := svc.Add(context.Background(), SubmitInput{
		Name:      "Amara",
		Phone:     "0712999888",
		Bus:       "Sakeer Express",
		MaleSeats: "12A",
	})
	require.NoError(t, err)

	assert.Equal(t, "09.00 PM", res.Booking.DepartureTime, "empty time falls back to the service default")
	require.Len(t, remote.adds, 1)
	assert.Equal(t, "09.00 PM", remote.adds[0].Get("time"))

	// unknown service has no default; the field stays empty
	res, err = svc.Add(context.Background(), SubmitInput{
		Name:      "Amara",
		Phone:     "0712999888",
		Bus:       "Ghost Line",
		MaleSeats: "12A",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Booking.DepartureTime)
}

func TestApproveTwoStepSequence(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote)
	svc.Store.Prepend(domain.StagePending, domain.Booking{
		ID: "LB-1", RowIndex: 5, Name: "Nuwan", Status: domain.StatusPending,
	})

	b, err := svc.Approve(context.Background(), "LB-1", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, b.Status)
	assert.Equal(t, domain.StageActive, b.Stage)

	// first write: full save still Pending; second: identity + Confirmed
	require.Len(t, remote.updates, 2)
	assert.Equal(t, "Pending", remote.updates[0].Get("status"))
	assert.NotEmpty(t, remote.updates[0].Get("name"), "first write carries the full record")
	assert.Equal(t, "Confirmed", remote.updates[1].Get("status"))
	assert.Empty(t, remote.updates[1].Get("name"), "second write is identity only")
	assert.Equal(t, "pending", remote.updates[1].Get("type"))

	assert.Equal(t, 0, svc.Store.Count(domain.StagePending))
	assert.Equal(t, 1, svc.Store.Count(domain.StageActive))
}

func TestApproveRemoteFailureKeepsPending(t *testing.T) {
	remote := &fakeRemote{updateErr: domain.UnavailableError{Op: "update"}}
	svc := newTestService(remote)
	svc.Store.Prepend(domain.StagePending, domain.Booking{ID: "LB-1", RowIndex: 5})

	_, err := svc.Approve(context.Background(), "LB-1", 0)
	assert.True(t, domain.IsUnavailable(err))
	assert.Equal(t, 1, svc.Store.Count(domain.StagePending), "local state untouched on transport failure")
	assert.Equal(t, 0, svc.Store.Count(domain.StageActive))
}

func TestApproveDoubleSubmitRejected(t *testing.T) {
	remote := &fakeRemote{
		updateStarted: make(chan struct{}),
		release:       make(chan struct{}),
	}
	svc := newTestService(remote)
	svc.Store.Prepend(domain.StagePending, domain.Booking{ID: "LB-1", RowIndex: 5})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Approve(context.Background(), "LB-1", 0)
		done <- err
	}()

	<-remote.updateStarted
	_, err := svc.Approve(context.Background(), "LB-1", 0)
	assert.True(t, domain.IsConflict(err), "second approve while first in flight must conflict: %v", err)

	close(remote.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, svc.Store.Count(domain.StageActive), "booking lands in active exactly once")
	assert.Equal(t, 0, svc.Store.Count(domain.StagePending))
}

func TestUpdatePendingToConfirmedMoves(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote)
	svc.Store.Prepend(domain.StagePending, domain.Booking{ID: "LB-1", RowIndex: 5, Name: "Nuwan"})

	b, err := svc.Update(context.Background(), UpdateInput{
		ID:        "LB-1",
		Stage:     "pending",
		Name:      "Nuwan Perera",
		Phone:     "0777123456",
		Bus:       "Sakeer Express",
		MaleSeats: "7",
		Status:    "Confirmed",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StageActive, b.Stage)
	assert.Equal(t, 2700.0, b.TotalAmount, "lone seat value recomputes as one entry")
	require.Len(t, remote.updates, 2, "stage move is the two-step sequence")
	assert.Equal(t, "Pending", remote.updates[0].Get("status"))
	assert.Equal(t, "Confirmed", remote.updates[1].Get("status"))
	assert.Equal(t, 1, svc.Store.Count(domain.StageActive))
}

func TestUpdateActiveSingleWrite(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote)
	svc.Store.Prepend(domain.StageActive, domain.Booking{ID: "LB-2", RowIndex: 3, TotalAmount: 5400})

	b, err := svc.Update(context.Background(), UpdateInput{
		ID:        "LB-2",
		Stage:     "active",
		Name:      "Amara",
		Bus:       "Rizma Express",
		MaleSeats: "12A,12B",
		Status:    "Confirmed",
		Total:     "9,000",
	})
	require.NoError(t, err)

	assert.Equal(t, 9000.0, b.TotalAmount, "manual total overrides the price table")
	require.Len(t, remote.updates, 1)
	assert.Equal(t, "active", remote.updates[0].Get("type"))

	got, ok := svc.Store.Find(domain.StageActive, "LB-2", 0)
	require.True(t, ok)
	assert.Equal(t, "Amara", got.Name)
}

func TestUpdateDefaultsEmptyPayment(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote)
	svc.Store.Prepend(domain.StageActive, domain.Booking{ID: "LB-3", RowIndex: 2, Payment: domain.PaymentPaid})

	b, err := svc.Update(context.Background(), UpdateInput{
		ID:        "LB-3",
		Stage:     "active",
		Name:      "Amara",
		Bus:       "Sakeer Express",
		MaleSeats: "12A",
		Status:    "Confirmed",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentPending, b.Payment)
	require.Len(t, remote.updates, 1)
	assert.Equal(t, "Pending", remote.updates[0].Get("payment"))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote)
	svc.Store.Prepend(domain.StageActive, domain.Booking{ID: "LB-1", RowIndex: 5})

	err := svc.Delete(context.Background(), "LB-1", 0, "active", false)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, remote.calls, "no remote command without confirmation")
	assert.Equal(t, 1, svc.Store.Count(domain.StageActive))

	err = svc.Delete(context.Background(), "LB-1", 0, "active", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"delete:active"}, remote.calls)
	assert.Equal(t, 0, svc.Store.Count(domain.StageActive))
}

func TestClearArchive(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote)
	svc.Store.ReplaceAll(
		[]domain.Booking{{ID: "LB-1"}},
		[]domain.Booking{{ID: "LB-2"}},
		[]domain.Booking{{ID: "LB-3"}, {ID: "LB-4"}},
	)

	assert.Error(t, svc.ClearArchive(context.Background(), false))

	require.NoError(t, svc.ClearArchive(context.Background(), true))
	assert.Equal(t, 0, svc.Store.Count(domain.StageArchive))
	assert.Equal(t, 1, svc.Store.Count(domain.StagePending))
	assert.Equal(t, 1, svc.Store.Count(domain.StageActive))
}

func TestRefreshRebuildsAndSorts(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	remote := &fakeRemote{
		fetch: map[domain.Stage][]map[string]any{
			domain.StagePending: {
				{"Booking ID": "LB-20250309-0001", "Name": "Old", "Date": "2025-03-11"},
				{"Booking ID": "LB-20250310-0002", "Name": "New", "Date": "2025-03-12"},
			},
			domain.StageActive: {
				{"Booking ID": "LB-1", "Date": "2025-03-01"}, // expired, filtered out
				{"Booking ID": "LB-2", "Date": "2025-03-15"},
			},
			domain.StageArchive: {
				{"Booking ID": "LB-0", "Date": "2025-01-01"},
			},
		},
	}
	svc := newTestService(remote)
	svc.Now = func() time.Time { return now }

	res, err := svc.Refresh(context.Background(), domain.StageActive)
	require.NoError(t, err)

	assert.Equal(t, "autoArchive", remote.calls[0], "sweep runs before the fetches")
	assert.Equal(t, 2, res.Pending)
	assert.Equal(t, 1, res.Active, "expired active record dropped")
	assert.Equal(t, 1, res.Archived)
	assert.Equal(t, domain.StageActive, res.VisibleStage)

	pending := svc.Store.List(domain.StagePending)
	assert.Equal(t, "LB-20250310-0002", pending[0].ID, "newest id first")
	assert.Equal(t, 3, pending[0].RowIndex, "second fetched record sits on sheet row 3")
}

func TestRefreshFailureLeavesState(t *testing.T) {
	remote := &fakeRemote{
		fetch: map[domain.Stage][]map[string]any{},
		fetchErr: map[domain.Stage]error{
			domain.StageArchive: domain.UnavailableError{Op: "fetch"},
		},
	}
	svc := newTestService(remote)
	svc.Store.ReplaceAll([]domain.Booking{{ID: "LB-1"}}, nil, nil)

	_, err := svc.Refresh(context.Background(), domain.StagePending)
	assert.True(t, domain.IsUnavailable(err))
	assert.Equal(t, 1, svc.Store.Count(domain.StagePending), "partial refresh must never overwrite state")
}

func TestRefreshAutoSwitchToPending(t *testing.T) {
	remote := &fakeRemote{
		fetch: map[domain.Stage][]map[string]any{
			domain.StagePending: {{"Booking ID": "LB-1"}},
			domain.StageActive:  {},
			domain.StageArchive: {},
		},
	}
	svc := newTestService(remote)

	res, err := svc.Refresh(context.Background(), domain.StageActive)
	require.NoError(t, err)
	assert.Equal(t, domain.StagePending, res.VisibleStage)

	// viewing another stage does not trigger the switch
	res, err = svc.Refresh(context.Background(), domain.StageArchive)
	require.NoError(t, err)
	assert.Equal(t, domain.StageArchive, res.VisibleStage)
}

func TestCheckStatus(t *testing.T) {
	remote := &fakeRemote{
		search: map[string]any{"Booking ID": "LB-9", "Name": "Nuwan", "Status": "Confirmed"},
	}
	svc := newTestService(remote)

	_, err := svc.CheckStatus(context.Background(), "123")
	assert.True(t, domain.IsValidation(err), "short phone rejected before the remote call")

	b, err := svc.CheckStatus(context.Background(), "0777123456")
	require.NoError(t, err)
	assert.Equal(t, "LB-9", b.ID)
	assert.Equal(t, domain.BookingStatus("Confirmed"), b.Status)
}

func TestStats(t *testing.T) {
	svc := newTestService(&fakeRemote{})
	svc.Store.ReplaceAll(
		[]domain.Booking{{ID: "LB-1"}, {ID: "LB-2"}},
		[]domain.Booking{{TotalAmount: 5400, MaleSeats: "1,2"}},
		[]domain.Booking{{TotalAmount: 2700, FemaleSeats: "3"}},
	)

	stats := svc.Stats()
	assert.Equal(t, 2, stats.PendingCount)
	assert.Equal(t, 3, stats.TotalPassengers)
	assert.Equal(t, 8100.0, stats.TotalRevenue)
}
