package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
)

// gatedAPI lets a test hold individual listing calls open.
type gatedAPI struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	results map[string][]domain.Booking
	calls   []ListQuery
	err     error
}

func newGatedAPI() *gatedAPI {
	return &gatedAPI{gates: map[string]chan struct{}{}, results: map[string][]domain.Booking{}}
}

func (g *gatedAPI) ListBookings(ctx context.Context, q ListQuery) (*ListResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, q)
	gate := g.gates[q.Hall]
	rows := g.results[q.Hall]
	err := g.err
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &ListResult{Bookings: rows, Count: len(rows)}, nil
}

func (g *gatedAPI) SetBookingStatus(_ context.Context, id string, s domain.BookingStatus) (*TransitionResult, error) {
	return &TransitionResult{Transition: domain.Transition{BookingID: id, To: string(s), Changed: true}}, nil
}

func (g *gatedAPI) SetPaymentStatus(_ context.Context, id string, s domain.PaymentStatus) (*TransitionResult, error) {
	return &TransitionResult{Transition: domain.Transition{BookingID: id, To: string(s), Changed: true}}, nil
}

func TestRefreshDiscardsStaleResponse(t *testing.T) {
	api := newGatedAPI()
	api.gates["Hall 1"] = make(chan struct{})
	api.results["Hall 1"] = []domain.Booking{{ID: "old"}}
	api.results["Hall 2"] = []domain.Booking{{ID: "new"}}
	board := NewBoard(api)

	board.SetHall("Hall 1")
	slow := make(chan error, 1)
	go func() { slow <- board.Refresh(context.Background()) }()

	// wait until the slow call is in flight
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.calls) == 1
	}, timeout, tick)

	board.SetHall("Hall 2")
	require.NoError(t, board.Refresh(context.Background()))

	close(api.gates["Hall 1"])
	assert.ErrorIs(t, <-slow, ErrStale)

	rows := board.Bookings()
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].ID)
}

func TestRefreshFailureClearsRows(t *testing.T) {
	api := newGatedAPI()
	api.results[""] = []domain.Booking{{ID: "b1"}}
	board := NewBoard(api)

	require.NoError(t, board.Refresh(context.Background()))
	assert.Len(t, board.Bookings(), 1)

	api.err = errors.New("503")
	assert.Error(t, board.Refresh(context.Background()))
	assert.NotNil(t, board.Bookings())
	assert.Empty(t, board.Bookings())
}

func TestToggleSortAndQuery(t *testing.T) {
	board := NewBoard(newGatedAPI())
	assert.Equal(t, domain.SortDesc, board.Query().Sort)
	assert.Equal(t, domain.SortAsc, board.ToggleSort())
	assert.Equal(t, domain.SortDesc, board.ToggleSort())

	assert.ErrorIs(t, board.SetDate("06/01/2024"), domain.ErrInvalidDate)
	require.NoError(t, board.SetDate("2024-06-01"))
	board.SetSearch("jane")
	assert.Equal(t, ListQuery{Date: "2024-06-01", Sort: domain.SortDesc, Search: "jane"}, board.Query())
}

func TestSlipSelection(t *testing.T) {
	api := newGatedAPI()
	api.results[""] = []domain.Booking{
		{ID: "b1", PaymentSlip: "data:application/pdf;base64,JVBERi0="},
		{ID: "b2"},
	}
	board := NewBoard(api)
	require.NoError(t, board.Refresh(context.Background()))

	slip, err := board.SelectPaymentSlip("b1")
	require.NoError(t, err)
	assert.Equal(t, "payment-slip-b1.pdf", slip.FileName())
	assert.Same(t, slip, board.Selected())

	_, err = board.SelectPaymentSlip("b2")
	assert.ErrorIs(t, err, domain.ErrNoSlip)
	assert.Same(t, slip, board.Selected(), "failed selection keeps the current one")

	board.ClearSelection()
	assert.Nil(t, board.Selected())
}

func TestDecidePatchesLocalRow(t *testing.T) {
	api := newGatedAPI()
	api.results[""] = []domain.Booking{{ID: "b1", Status: domain.BookingPending, PaymentStatus: domain.PaymentUnreviewed}}
	board := NewBoard(api)
	require.NoError(t, board.Refresh(context.Background()))

	_, err := board.Decide(context.Background(), "b1", domain.BookingApproved)
	require.NoError(t, err)
	_, err = board.ReviewPayment(context.Background(), "b1", domain.PaymentRejected)
	require.NoError(t, err)

	row := board.Bookings()[0]
	assert.Equal(t, domain.BookingApproved, row.Status)
	assert.Equal(t, domain.PaymentRejected, row.PaymentStatus)
}
