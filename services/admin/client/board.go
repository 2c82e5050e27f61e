package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
)

// ErrStale is returned by Refresh when a newer refresh was issued before
// this response arrived. The response is discarded.
var ErrStale = errors.New("stale listing response discarded")

type BookingsAPI interface {
	ListBookings(ctx context.Context, q ListQuery) (*ListResult, error)
	SetBookingStatus(ctx context.Context, id string, status domain.BookingStatus) (*TransitionResult, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*TransitionResult, error)
}

// Board is the bookings screen state. Every Refresh is tagged with a
// monotonically increasing token and only the latest one is applied.
type Board struct {
	api BookingsAPI

	mu       sync.Mutex
	query    ListQuery
	latest   uint64
	bookings []domain.Booking
	selected *domain.Slip
}

func NewBoard(api BookingsAPI) *Board {
	return &Board{api: api, query: ListQuery{Sort: domain.DefaultSortOrder}, bookings: []domain.Booking{}}
}

func (b *Board) SetHall(hall string) {
	b.mu.Lock()
	b.query.Hall = hall
	b.mu.Unlock()
}

// SetDate takes YYYY-MM-DD; empty clears the filter.
func (b *Board) SetDate(date string) error {
	if date != "" {
		if _, err := domain.ParseCalendarDate(date); err != nil {
			return err
		}
	}
	b.mu.Lock()
	b.query.Date = date
	b.mu.Unlock()
	return nil
}

func (b *Board) SetSearch(q string) {
	b.mu.Lock()
	b.query.Search = q
	b.mu.Unlock()
}

func (b *Board) ToggleSort() domain.SortOrder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query.Sort = b.query.Sort.Toggle()
	return b.query.Sort
}

func (b *Board) Query() ListQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.query
}

// Refresh reloads the listing for the current query. A failed request
// clears the rows rather than keeping a partial view.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.latest++
	token := b.latest
	q := b.query
	b.mu.Unlock()

	res, err := b.api.ListBookings(ctx, q)

	b.mu.Lock()
	defer b.mu.Unlock()
	if token != b.latest {
		return ErrStale
	}
	if err != nil {
		b.bookings = []domain.Booking{}
		return err
	}
	b.bookings = res.Bookings
	if b.bookings == nil {
		b.bookings = []domain.Booking{}
	}
	return nil
}

func (b *Board) Bookings() []domain.Booking {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Booking, len(b.bookings))
	copy(out, b.bookings)
	return out
}

// SelectPaymentSlip makes the booking's slip the single selected slip.
func (b *Board) SelectPaymentSlip(id string) (*domain.Slip, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.bookings {
		if b.bookings[i].ID != id {
			continue
		}
		slip, err := domain.ParseSlip(id, b.bookings[i].PaymentSlip)
		if err != nil {
			return nil, err
		}
		b.selected = slip
		return slip, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrBookingNotFound, id)
}

func (b *Board) ClearSelection() {
	b.mu.Lock()
	b.selected = nil
	b.mu.Unlock()
}

func (b *Board) Selected() *domain.Slip {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// Decide applies a booking decision and patches the local row on success.
func (b *Board) Decide(ctx context.Context, id string, status domain.BookingStatus) (*TransitionResult, error) {
	res, err := b.api.SetBookingStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	b.patch(id, func(bk *domain.Booking) { bk.Status = status })
	return res, nil
}

func (b *Board) ReviewPayment(ctx context.Context, id string, status domain.PaymentStatus) (*TransitionResult, error) {
	res, err := b.api.SetPaymentStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	b.patch(id, func(bk *domain.Booking) { bk.PaymentStatus = status })
	return res, nil
}

func (b *Board) patch(id string, fn func(*domain.Booking)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.bookings {
		if b.bookings[i].ID == id {
			fn(&b.bookings[i])
			return
		}
	}
}
