package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
)

type BookingQuery struct {
	Hall  string
	From  *time.Time
	To    *time.Time
	Order domain.SortOrder
}

type BookingRepository interface {
	List(ctx context.Context, q BookingQuery) ([]domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (bool, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, name, email, hall, booking_date, start_time, end_time,
status, payment_status, total_fee::float8, COALESCE(payment_slip, '')`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var status, payment *string
	if err := row.Scan(
		&b.ID, &b.Name, &b.Email, &b.Hall, &b.Date, &b.StartTime, &b.EndTime,
		&status, &payment, &b.TotalFee, &b.PaymentSlip,
	); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatusFromStore(status)
	b.PaymentStatus = domain.PaymentStatusFromStore(payment)
	return &b, nil
}

func (r *bookingRepository) List(ctx context.Context, q BookingQuery) ([]domain.Booking, error) {
	order := "DESC"
	if q.Order == domain.SortAsc {
		order = "ASC"
	}

	// nil parameters disable their predicate
	query := `SELECT ` + bookingCols + ` FROM bookings
		WHERE ($1::text IS NULL OR hall = $1)
		  AND ($2::timestamptz IS NULL OR booking_date >= $2)
		  AND ($3::timestamptz IS NULL OR booking_date < $3)
		ORDER BY booking_date ` + order

	var hall *string
	if q.Hall != "" {
		hall = &q.Hall
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, query, hall, q.From, q.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Booking, 0, 32)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// UpdateStatus writes only the status column.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (bool, error) {
	const q = `UPDATE bookings SET status=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id, string(status))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// UpdatePaymentStatus writes only the payment_status column.
func (r *bookingRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (bool, error) {
	const q = `UPDATE bookings SET payment_status=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id, string(status))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
