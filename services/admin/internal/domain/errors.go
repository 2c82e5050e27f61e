package domain

import "errors"

var (
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrInvalidStatus        = errors.New("invalid booking status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrUnknownHall          = errors.New("unknown hall")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidSortOrder     = errors.New("invalid sort order")
	ErrInvalidCredential    = errors.New("invalid credential")
	ErrWeakPassword         = errors.New("password must be at least 6 characters")
	ErrEmptyPatch           = errors.New("nothing to update")
	ErrImageProcessing      = errors.New("image processing failed")
	ErrTooManyAttempts      = errors.New("too many attempts")
	ErrNoSlip               = errors.New("booking has no payment slip")
	ErrInvalidSlip          = errors.New("invalid payment slip")
)
