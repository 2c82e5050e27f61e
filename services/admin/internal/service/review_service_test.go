package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/hallbooking-admin/pkg/events"
	"github.com/diagnosis/hallbooking-admin/pkg/notify"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
)

var testHalls = []domain.Hall{{Name: "Hall 1"}, {Name: "Hall 2"}, {Name: "Hall 3"}}

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func seedBookings() *memBookings {
	return newMemBookings(
		domain.Booking{ID: "b1", Name: "Jane", Email: "jane@x.com", Hall: "Hall 1", Date: day(2024, 6, 1, 9), StartTime: "10:00", EndTime: "11:00", Status: domain.BookingPending, PaymentStatus: domain.PaymentUnreviewed},
		domain.Booking{ID: "b2", Name: "Bob", Email: "bob@y.com", Hall: "Hall 2", Date: day(2024, 6, 1, 0), Status: domain.BookingPending, PaymentStatus: domain.PaymentUnreviewed},
		domain.Booking{ID: "b3", Name: "Carol", Email: "carol@z.com", Hall: "Hall 1", Date: day(2024, 6, 2, 0), Status: domain.BookingApproved, PaymentStatus: domain.PaymentVerified},
		domain.Booking{ID: "b4", Name: "Dan", Email: "dan@z.com", Hall: "Hall 3", Date: day(2024, 5, 31, 23), Status: domain.BookingRejected, PaymentStatus: domain.PaymentUnreviewed},
	)
}

func newReview(repo *memBookings, sender *mockSender, bus events.Publisher) ReviewService {
	return NewReviewService(repo, sender, bus, testHalls, time.UTC)
}

func ids(bs []domain.Booking) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}

func TestListBookingsFilters(t *testing.T) {
	svc := newReview(seedBookings(), &mockSender{}, nil)
	ctx := context.Background()
	june1, _ := domain.ParseCalendarDate("2024-06-01")

	all, err := svc.ListBookings(ctx, domain.ListFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b3", "b1", "b2", "b4"}, ids(all), "default order is desc")

	asc, err := svc.ListBookings(ctx, domain.ListFilter{}, domain.SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b4", "b2", "b1", "b3"}, ids(asc))

	byDate, err := svc.ListBookings(ctx, domain.ListFilter{Date: &june1}, domain.SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b1"}, ids(byDate), "midnight of the next day is excluded")

	byBoth, err := svc.ListBookings(ctx, domain.ListFilter{Hall: "Hall 1", Date: &june1}, domain.SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids(byBoth))

	searched, err := svc.ListBookings(ctx, domain.ListFilter{Search: "Z.COM"}, domain.SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b4", "b3"}, ids(searched))
}

func TestListBookingsValidation(t *testing.T) {
	svc := newReview(seedBookings(), &mockSender{}, nil)

	_, err := svc.ListBookings(context.Background(), domain.ListFilter{Hall: "Hall 9"}, "")
	assert.ErrorIs(t, err, domain.ErrUnknownHall)

	_, err = svc.ListBookings(context.Background(), domain.ListFilter{}, "random")
	assert.ErrorIs(t, err, domain.ErrInvalidSortOrder)
}

func TestListBookingsStoreUnavailable(t *testing.T) {
	repo := seedBookings()
	repo.listErr = errors.New("connection reset")
	svc := newReview(repo, &mockSender{}, nil)

	got, err := svc.ListBookings(context.Background(), domain.ListFilter{}, "")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestApproveNotifiesOnce(t *testing.T) {
	repo := seedBookings()
	sender := &mockSender{}
	bus := &recordingBus{}
	svc := newReview(repo, sender, bus)

	want := notify.BookingApprovedPayload{
		UserInfo:     notify.UserInfo{ID: "b1", Name: "Jane", Email: "jane@x.com"},
		SelectedHall: "Hall 1",
		Date:         "2024-06-01",
		StartTime:    "10:00",
		EndTime:      "11:00",
	}
	sender.On("Send", mock.Anything, notify.BookingApproved, want).Return(&notify.Ack{Message: "Email sent"}, nil).Once()

	tr, err := svc.SetBookingStatus(context.Background(), "b1", domain.BookingApproved)
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, "Pending", tr.From)
	require.NotNil(t, tr.Notification)
	assert.True(t, tr.Notification.Sent)

	// repeating the same decision is a no-op
	tr, err = svc.SetBookingStatus(context.Background(), "b1", domain.BookingApproved)
	require.NoError(t, err)
	assert.False(t, tr.Changed)
	assert.Nil(t, tr.Notification)

	sender.AssertExpectations(t)
	assert.Equal(t, 1, repo.writes)
	assert.Equal(t, []string{events.BookingStatusChanged}, bus.subjects)
}

func TestApproveSurvivesNotificationFailure(t *testing.T) {
	repo := seedBookings()
	sender := &mockSender{}
	sender.On("Send", mock.Anything, notify.BookingApproved, mock.Anything).
		Return(nil, &notify.Error{Kind: notify.BookingApproved, StatusCode: 502, Message: "smtp down"})
	svc := newReview(repo, sender, nil)

	tr, err := svc.SetBookingStatus(context.Background(), "b1", domain.BookingApproved)
	require.NoError(t, err)
	require.NotNil(t, tr.Notification)
	assert.True(t, tr.Notification.Failed())
	assert.Equal(t, "smtp down", tr.Notification.Error)

	b, err := svc.GetBooking(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingApproved, b.Status)
}

func TestRejectDoesNotNotifyOrTouchPayment(t *testing.T) {
	repo := seedBookings()
	sender := &mockSender{}
	svc := newReview(repo, sender, nil)

	tr, err := svc.SetBookingStatus(context.Background(), "b3", domain.BookingRejected)
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Nil(t, tr.Notification)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)

	b, _ := svc.GetBooking(context.Background(), "b3")
	assert.Equal(t, domain.PaymentVerified, b.PaymentStatus)
}

func TestSetPaymentStatus(t *testing.T) {
	repo := seedBookings()
	sender := &mockSender{}
	bus := &recordingBus{}
	svc := newReview(repo, sender, bus)
	ctx := context.Background()

	tr, err := svc.SetPaymentStatus(ctx, "b1", domain.PaymentVerified)
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, "unreviewed", tr.From)

	tr, err = svc.SetPaymentStatus(ctx, "b1", domain.PaymentVerified)
	require.NoError(t, err)
	assert.False(t, tr.Changed)

	b, _ := svc.GetBooking(ctx, "b1")
	assert.Equal(t, domain.BookingPending, b.Status, "payment review leaves status alone")
	assert.Equal(t, 1, repo.writes)
	assert.Equal(t, []string{events.BookingPaymentChanged}, bus.subjects)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionErrors(t *testing.T) {
	svc := newReview(seedBookings(), &mockSender{}, nil)
	ctx := context.Background()

	_, err := svc.SetBookingStatus(ctx, "missing", domain.BookingApproved)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = svc.SetBookingStatus(ctx, "b1", domain.BookingPending)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.SetPaymentStatus(ctx, "b1", domain.PaymentUnreviewed)
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentStatus)
}

func TestGetSlip(t *testing.T) {
	repo := seedBookings()
	b := repo.rows["b2"]
	b.PaymentSlip = "data:application/pdf;base64,JVBERi0="
	repo.rows["b2"] = b
	svc := newReview(repo, &mockSender{}, nil)

	slip, err := svc.GetSlip(context.Background(), "b2")
	require.NoError(t, err)
	assert.Equal(t, "payment-slip-b2.pdf", slip.FileName())

	_, err = svc.GetSlip(context.Background(), "b1")
	assert.ErrorIs(t, err, domain.ErrNoSlip)
}
