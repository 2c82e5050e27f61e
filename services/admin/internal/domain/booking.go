package domain

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "Pending"
	BookingApproved BookingStatus = "Approved"
	BookingRejected BookingStatus = "Rejected"
)

// ParseDecision accepts only the statuses an admin can set.
func ParseDecision(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingApproved, BookingRejected:
		return BookingStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// BookingStatusFromStore maps the nullable stored column to the enum.
func BookingStatusFromStore(s *string) BookingStatus {
	if s == nil || *s == "" {
		return BookingPending
	}
	return BookingStatus(*s)
}

type PaymentStatus string

const (
	PaymentUnreviewed PaymentStatus = "unreviewed"
	PaymentVerified   PaymentStatus = "verified"
	PaymentRejected   PaymentStatus = "rejected"
)

func ParsePaymentDecision(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentVerified, PaymentRejected:
		return PaymentStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, s)
	}
}

func PaymentStatusFromStore(s *string) PaymentStatus {
	if s == nil || *s == "" {
		return PaymentUnreviewed
	}
	return PaymentStatus(*s)
}

type Booking struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Hall          string        `json:"hall"`
	Date          time.Time     `json:"date"`
	StartTime     string        `json:"startTime"`
	EndTime       string        `json:"endTime"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TotalFee      float64       `json:"totalFee"`
	PaymentSlip   string        `json:"paymentSlip,omitempty"`
}

func (b *Booking) HasSlip() bool {
	return b.PaymentSlip != ""
}

// Matches reports whether the search text appears in the name, email or hall.
func (b *Booking) Matches(search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.Name), search) ||
		strings.Contains(strings.ToLower(b.Email), search) ||
		strings.Contains(strings.ToLower(b.Hall), search)
}

type Hall struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity,omitempty"`
}

const dateLayout = "2006-01-02"

// CalendarDate is a day without a time or zone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func DateOf(t time.Time, loc *time.Location) CalendarDate {
	t = t.In(loc)
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DayRange is the half-open interval [start of day, start of next day) in loc.
func (d CalendarDate) DayRange(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	return start, time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, loc)
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"

	DefaultSortOrder = SortDesc
)

// ParseSortOrder returns the default order for an empty string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultSortOrder, nil
	case SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortOrder, s)
	}
}

func (o SortOrder) Toggle() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

type ListFilter struct {
	Hall   string
	Date   *CalendarDate
	Search string
}

// Transition describes the outcome of a status or payment decision.
type Transition struct {
	BookingID    string              `json:"bookingId"`
	From         string              `json:"from"`
	To           string              `json:"to"`
	Changed      bool                `json:"changed"`
	Notification *NotificationReport `json:"notification,omitempty"`
}

// NotificationReport is the result of a best-effort notification. Error is
// empty when the send succeeded.
type NotificationReport struct {
	Kind    string `json:"kind"`
	Sent    bool   `json:"sent"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r *NotificationReport) Failed() bool {
	return r != nil && !r.Sent
}
