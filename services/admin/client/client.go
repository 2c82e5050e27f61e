// Package client is a Go client for the admin API, with a Board that keeps
// the bookings view state on the client side.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
)

// ListQuery mirrors the listing query string.
type ListQuery struct {
	Hall   string           `url:"hall,omitempty"`
	Date   string           `url:"date,omitempty"`
	Sort   domain.SortOrder `url:"sort,omitempty"`
	Search string           `url:"q,omitempty"`
}

type ListResult struct {
	Bookings []domain.Booking `json:"bookings"`
	Count    int              `json:"count"`
	Sort     domain.SortOrder `json:"sort"`
}

type TransitionResult struct {
	domain.Transition
	Warning string `json:"warning,omitempty"`
}

// APIError is a non-2xx answer from the admin API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"error"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy of the client that sends the bearer token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	var out domain.LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Halls(ctx context.Context) ([]domain.Hall, error) {
	var out struct {
		Halls []domain.Hall `json:"halls"`
	}
	if err := c.do(ctx, http.MethodGet, "/halls", nil, &out); err != nil {
		return nil, err
	}
	return out.Halls, nil
}

func (c *Client) ListBookings(ctx context.Context, q ListQuery) (*ListResult, error) {
	v, err := query.Values(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	path := "/admin/bookings"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}

	var out ListResult
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetBookingStatus(ctx context.Context, id string, status domain.BookingStatus) (*TransitionResult, error) {
	var out TransitionResult
	err := c.do(ctx, http.MethodPatch, "/admin/bookings/"+url.PathEscape(id)+"/status", map[string]string{"status": string(status)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*TransitionResult, error) {
	var out TransitionResult
	err := c.do(ctx, http.MethodPatch, "/admin/bookings/"+url.PathEscape(id)+"/payment", map[string]string{"paymentStatus": string(status)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
