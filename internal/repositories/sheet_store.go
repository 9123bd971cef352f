package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"laganbus/internal/domain"
	"laganbus/internal/utils"
)

// SheetStore is the client for the spreadsheet-backed booking store. The
// store speaks a fixed query/command protocol: reads are GET requests with a
// method parameter, writes are URL-encoded POSTs whose response body carries
// no usable status (the legacy script replies opaquely), so write failures
// are only observable as transport errors.
type SheetStore struct {
	BaseURL string
	Client  *http.Client
}

func (s SheetStore) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

type sheetEnvelope struct {
	Success     bool             `json:"success"`
	Bookings    []map[string]any `json:"bookings"`
	AllBookings []map[string]any `json:"allBookings"`
	Booking     map[string]any   `json:"booking"`
}

// FetchStage reads one stage table. The store answers with either a bare
// {bookings: [...]} envelope or a {success, bookings|allBookings} one;
// both shapes are accepted.
func (s SheetStore) FetchStage(ctx context.Context, stage domain.Stage) ([]map[string]any, error) {
	env, err := s.get(ctx, url.Values{"method": {"getAll"}, "type": {string(stage)}})
	if err != nil {
		return nil, domain.UnavailableError{Op: "getAll " + string(stage), Err: err}
	}
	switch {
	case env.Bookings != nil:
		return env.Bookings, nil
	case env.Success && env.AllBookings != nil:
		return env.AllBookings, nil
	default:
		return []map[string]any{}, nil
	}
}

// SearchByPhone looks a booking up by the last 9 digits of a phone number,
// tolerating country-code and formatting variance. Presence of either a
// booking or a non-empty allBookings list counts as a hit even without an
// explicit success flag.
func (s SheetStore) SearchByPhone(ctx context.Context, phone string) (map[string]any, error) {
	cleaned := utils.LastNDigits(phone, 9)
	env, err := s.get(ctx, url.Values{"phone": {cleaned}, "method": {"search"}})
	if err != nil {
		return nil, domain.UnavailableError{Op: "search", Err: err}
	}
	if env.Booking != nil {
		return env.Booking, nil
	}
	if len(env.AllBookings) > 0 {
		return env.AllBookings[0], nil
	}
	return nil, domain.NotFoundError{Resource: "booking"}
}

// AutoArchive triggers the store's own sweep of stale active rows into the
// archive table. Runs before every full refetch.
func (s SheetStore) AutoArchive(ctx context.Context) error {
	if _, err := s.get(ctx, url.Values{"method": {"autoArchive"}}); err != nil {
		return domain.UnavailableError{Op: "autoArchive", Err: err}
	}
	return nil
}

// Add submits a new booking row. Fields arrive pre-formatted (sheet date and
// time conventions applied by the caller).
func (s SheetStore) Add(ctx context.Context, fields url.Values) error {
	fields.Set("method", "add")
	return s.post(ctx, "add", fields)
}

// Update rewrites a row's fields, or triggers a stage transition when the
// payload carries only identity plus a status change.
func (s SheetStore) Update(ctx context.Context, fields url.Values) error {
	fields.Set("method", "update")
	return s.post(ctx, "update", fields)
}

// Delete removes a row from the named stage table.
func (s SheetStore) Delete(ctx context.Context, id string, rowIndex int, stage domain.Stage) error {
	fields := url.Values{
		"method": {"delete"},
		"id":     {id},
		"type":   {string(stage)},
	}
	if rowIndex > 0 {
		fields.Set("row", strconv.Itoa(rowIndex))
	}
	return s.post(ctx, "delete", fields)
}

// ClearArchive empties the archive table in one command.
func (s SheetStore) ClearArchive(ctx context.Context) error {
	return s.post(ctx, "clearArchive", url.Values{"method": {"clearArchive"}})
}

func (s SheetStore) get(ctx context.Context, query url.Values) (sheetEnvelope, error) {
	var env sheetEnvelope
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return env, err
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return env, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return env, fmt.Errorf("sheet store replied %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return env, fmt.Errorf("malformed sheet response: %w", err)
	}
	return env, nil
}

// post issues a fire-and-forget write command. The response body is drained
// and discarded; only transport-level failure is reported.
func (s SheetStore) post(ctx context.Context, op string, fields url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL, strings.NewReader(fields.Encode()))
	if err != nil {
		return domain.UnavailableError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client().Do(req)
	if err != nil {
		return domain.UnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
