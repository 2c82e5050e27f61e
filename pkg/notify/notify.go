// Package notify sends transactional email requests to the notify service.
// Each send is a single attempt; callers decide what a failure means for them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/hallbooking-admin/pkg/logger"
	"github.com/diagnosis/hallbooking-admin/pkg/metrics"
)

type Kind string

const (
	BookingApproved Kind = "booking_approved"
	PasswordChanged Kind = "password_changed"
)

const (
	PasswordChangedSubject = "Password Change Confirmation"
	PasswordChangedMessage = "Your password has been successfully changed. If you did not request this change, please contact support immediately."

	unknownError  = "Unknown error occurred"
	emptyResponse = "No response body"
)

func (k Kind) path() (string, error) {
	switch k {
	case BookingApproved:
		return "/api/send-email", nil
	case PasswordChanged:
		return "/api/send-email-pass", nil
	default:
		return "", fmt.Errorf("unknown notification kind %q", k)
	}
}

type UserInfo struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type BookingApprovedPayload struct {
	UserInfo     UserInfo `json:"userInfo"`
	SelectedHall string   `json:"selectedHall"`
	Date         string   `json:"date"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
}

type PasswordChangedPayload struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// NewPasswordChangedPayload fills in the fixed confirmation text.
func NewPasswordChangedPayload(email string) PasswordChangedPayload {
	return PasswordChangedPayload{Email: email, Subject: PasswordChangedSubject, Message: PasswordChangedMessage}
}

// Ack is the parsed body of a successful send.
type Ack struct {
	Message string `json:"message"`
}

// Error is a failed send. StatusCode is zero when no response arrived.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("notify %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("notify %s: %d: %s", e.Kind, e.StatusCode, e.Message)
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var ne *Error
	ok := errors.As(err, &ne)
	return ne, ok
}

type Sender interface {
	Send(ctx context.Context, kind Kind, payload any) (*Ack, error)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Send(ctx context.Context, kind Kind, payload any) (*Ack, error) {
	ack, err := c.send(ctx, kind, payload)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
		logger.ErrorContext(ctx, "Notification failed", "kind", string(kind), "error", err.Error())
	} else {
		logger.InfoContext(ctx, "Notification sent", "kind", string(kind), "message", ack.Message)
	}
	metrics.Notifications.WithLabelValues(string(kind), outcome).Inc()
	return ack, err
}

func (c *Client) send(ctx context.Context, kind Kind, payload any) (*Ack, error) {
	path, err := kind.path()
	if err != nil {
		return nil, &Error{Kind: kind, Message: err.Error()}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: kind, Message: fmt.Sprintf("encode payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: kind, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: kind, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: kind, StatusCode: resp.StatusCode, Message: err.Error()}
	}

	ack := Ack{Message: emptyResponse}
	if len(bytes.TrimSpace(raw)) > 0 {
		ack = Ack{}
		if err := json.Unmarshal(raw, &ack); err != nil {
			return nil, &Error{Kind: kind, StatusCode: resp.StatusCode, Message: fmt.Sprintf("invalid response body: %v", err)}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ack.Message
		if msg == "" {
			msg = unknownError
		}
		return nil, &Error{Kind: kind, StatusCode: resp.StatusCode, Message: msg}
	}

	return &ack, nil
}
