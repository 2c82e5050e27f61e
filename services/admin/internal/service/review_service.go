package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/diagnosis/hallbooking-admin/pkg/auth"
	"github.com/diagnosis/hallbooking-admin/pkg/events"
	"github.com/diagnosis/hallbooking-admin/pkg/logger"
	"github.com/diagnosis/hallbooking-admin/pkg/metrics"
	"github.com/diagnosis/hallbooking-admin/pkg/notify"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/repository"
)

type ReviewService interface {
	Halls() []domain.Hall
	ListBookings(ctx context.Context, filter domain.ListFilter, order domain.SortOrder) ([]domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	GetSlip(ctx context.Context, id string) (*domain.Slip, error)
	SetBookingStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Transition, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Transition, error)
}

type reviewService struct {
	bookings repository.BookingRepository
	notifier notify.Sender
	eventBus events.Publisher
	halls    []domain.Hall
	loc      *time.Location
}

func NewReviewService(
	bookings repository.BookingRepository,
	notifier notify.Sender,
	eventBus events.Publisher,
	halls []domain.Hall,
	loc *time.Location,
) ReviewService {
	if loc == nil {
		loc = time.Local
	}
	return &reviewService{
		bookings: bookings,
		notifier: notifier,
		eventBus: eventBus,
		halls:    halls,
		loc:      loc,
	}
}

func (s *reviewService) Halls() []domain.Hall {
	return slices.Clone(s.halls)
}

func (s *reviewService) knownHall(name string) bool {
	return slices.ContainsFunc(s.halls, func(h domain.Hall) bool { return h.Name == name })
}

// ListBookings never returns partial results: on a store error the slice is
// empty and the error wraps domain.ErrStoreUnavailable.
func (s *reviewService) ListBookings(ctx context.Context, filter domain.ListFilter, order domain.SortOrder) ([]domain.Booking, error) {
	if order == "" {
		order = domain.DefaultSortOrder
	}
	if order != domain.SortAsc && order != domain.SortDesc {
		return []domain.Booking{}, fmt.Errorf("%w: %q", domain.ErrInvalidSortOrder, order)
	}

	q := repository.BookingQuery{Order: order}
	if hall := strings.TrimSpace(filter.Hall); hall != "" {
		if !s.knownHall(hall) {
			return []domain.Booking{}, fmt.Errorf("%w: %q", domain.ErrUnknownHall, hall)
		}
		q.Hall = hall
	}
	if filter.Date != nil {
		from, to := filter.Date.DayRange(s.loc)
		q.From, q.To = &from, &to
	}

	rows, err := s.bookings.List(ctx, q)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list bookings", "error", err.Error(), "hall", q.Hall)
		return []domain.Booking{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if strings.TrimSpace(filter.Search) == "" {
		return rows, nil
	}
	out := make([]domain.Booking, 0, len(rows))
	for i := range rows {
		if rows[i].Matches(filter.Search) {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

func (s *reviewService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if b == nil {
		return nil, domain.ErrBookingNotFound
	}
	return b, nil
}

func (s *reviewService) GetSlip(ctx context.Context, id string) (*domain.Slip, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.ParseSlip(b.ID, b.PaymentSlip)
}

func (s *reviewService) SetBookingStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Transition, error) {
	if _, err := domain.ParseDecision(string(status)); err != nil {
		return nil, err
	}

	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	t := &domain.Transition{BookingID: b.ID, From: string(b.Status), To: string(status)}
	if b.Status == status {
		return t, nil
	}

	ok, err := s.bookings.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	t.Changed = true
	metrics.BookingDecisions.WithLabelValues(string(status)).Inc()

	logger.InfoContext(ctx, "Booking status changed", "booking_id", id, "from", t.From, "to", t.To)
	s.publish(ctx, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID: id,
		From:      t.From,
		To:        t.To,
		ChangedBy: actor(ctx),
		ChangedAt: time.Now().UTC(),
	})

	if status == domain.BookingApproved {
		t.Notification = s.notifyApproved(ctx, b)
	}
	return t, nil
}

func (s *reviewService) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Transition, error) {
	if _, err := domain.ParsePaymentDecision(string(status)); err != nil {
		return nil, err
	}

	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	t := &domain.Transition{BookingID: b.ID, From: string(b.PaymentStatus), To: string(status)}
	if b.PaymentStatus == status {
		return t, nil
	}

	ok, err := s.bookings.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	t.Changed = true
	metrics.PaymentReviews.WithLabelValues(string(status)).Inc()

	logger.InfoContext(ctx, "Payment status changed", "booking_id", id, "from", t.From, "to", t.To)
	s.publish(ctx, events.BookingPaymentChanged, events.BookingPaymentChangedEvent{
		BookingID: id,
		From:      t.From,
		To:        t.To,
		ChangedBy: actor(ctx),
		ChangedAt: time.Now().UTC(),
	})
	return t, nil
}

// notifyApproved uses the booking as stored before the write; the status
// write only touches the status column.
func (s *reviewService) notifyApproved(ctx context.Context, b *domain.Booking) *domain.NotificationReport {
	payload := notify.BookingApprovedPayload{
		UserInfo:     notify.UserInfo{ID: b.ID, Name: b.Name, Email: b.Email},
		SelectedHall: b.Hall,
		Date:         domain.DateOf(b.Date, s.loc).String(),
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
	}
	return sendReport(ctx, s.notifier, notify.BookingApproved, payload)
}

func (s *reviewService) publish(ctx context.Context, subject string, evt any) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err.Error())
	}
}

func actor(ctx context.Context) string {
	if sess := auth.SessionFrom(ctx); sess != nil {
		return sess.UserID
	}
	return ""
}

func sendReport(ctx context.Context, sender notify.Sender, kind notify.Kind, payload any) *domain.NotificationReport {
	report := &domain.NotificationReport{Kind: string(kind)}
	ack, err := sender.Send(ctx, kind, payload)
	if err != nil {
		report.Error = err.Error()
		if ne, ok := notify.AsError(err); ok {
			report.Error = ne.Message
		}
		return report
	}
	report.Sent = true
	report.Message = ack.Message
	return report
}
