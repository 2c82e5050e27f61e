package service

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/diagnosis/hallbooking-admin/pkg/notify"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/repository"
)

type memBookings struct {
	mu      sync.Mutex
	rows    map[string]domain.Booking
	writes  int
	lastQ   repository.BookingQuery
	listErr error
}

func newMemBookings(rows ...domain.Booking) *memBookings {
	m := &memBookings{rows: map[string]domain.Booking{}}
	for _, b := range rows {
		m.rows[b.ID] = b
	}
	return m
}

func (m *memBookings) List(_ context.Context, q repository.BookingQuery) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQ = q
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []domain.Booking{}
	for _, b := range m.rows {
		if q.Hall != "" && b.Hall != q.Hall {
			continue
		}
		if q.From != nil && b.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && !b.Date.Before(*q.To) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Order == domain.SortAsc {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (m *memBookings) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id string, s domain.BookingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	m.writes++
	b.Status = s
	m.rows[id] = b
	return true, nil
}

func (m *memBookings) UpdatePaymentStatus(_ context.Context, id string, s domain.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	m.writes++
	b.PaymentStatus = s
	m.rows[id] = b
	return true, nil
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, kind notify.Kind, payload any) (*notify.Ack, error) {
	args := m.Called(ctx, kind, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notify.Ack), args.Error(1)
}

type recordingBus struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingBus) Publish(_ context.Context, subject string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

func (r *recordingBus) Close() error { return nil }
