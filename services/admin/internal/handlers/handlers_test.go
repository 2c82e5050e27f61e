package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/diagnosis/hallbooking-admin/pkg/auth"
	"github.com/diagnosis/hallbooking-admin/pkg/config"
	"github.com/diagnosis/hallbooking-admin/pkg/logger"
	"github.com/diagnosis/hallbooking-admin/pkg/ratelimit"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/handlers"
)

const secret = "handler-test-secret"

func TestMain(m *testing.M) {
	logger.SetDefault(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// ---------- Fakes ----------

type fakeReview struct {
	bookings   []domain.Booking
	listErr    error
	lastFilter domain.ListFilter
	lastOrder  domain.SortOrder
	transition *domain.Transition
	setErr     error
	slip       *domain.Slip
}

func (f *fakeReview) Halls() []domain.Hall { return []domain.Hall{{Name: "Hall 1"}} }

func (f *fakeReview) ListBookings(_ context.Context, filter domain.ListFilter, order domain.SortOrder) ([]domain.Booking, error) {
	f.lastFilter, f.lastOrder = filter, order
	if f.listErr != nil {
		return []domain.Booking{}, f.listErr
	}
	return f.bookings, nil
}

func (f *fakeReview) GetBooking(_ context.Context, id string) (*domain.Booking, error) {
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			return &f.bookings[i], nil
		}
	}
	return nil, domain.ErrBookingNotFound
}

func (f *fakeReview) GetSlip(_ context.Context, id string) (*domain.Slip, error) {
	if f.slip == nil {
		return nil, domain.ErrNoSlip
	}
	return f.slip, nil
}

func (f *fakeReview) SetBookingStatus(_ context.Context, id string, s domain.BookingStatus) (*domain.Transition, error) {
	return f.transition, f.setErr
}

func (f *fakeReview) SetPaymentStatus(_ context.Context, id string, s domain.PaymentStatus) (*domain.Transition, error) {
	return f.transition, f.setErr
}

type fakeAccount struct {
	profile     *domain.UserProfile
	report      *domain.NotificationReport
	passwordErr error
	uploaded    []byte
	session     *auth.Session
}

func (f *fakeAccount) Login(_ context.Context, email, password string) (*domain.LoginResult, error) {
	if password != "secret1" {
		return nil, domain.ErrInvalidCredential
	}
	tok, _ := auth.NewAccessToken("u1", email, domain.RoleAdmin, secret, time.Hour)
	return &domain.LoginResult{AccessToken: tok, ExpiresIn: 3600, User: f.profile}, nil
}

func (f *fakeAccount) GetProfile(context.Context, string) (*domain.UserProfile, error) {
	if f.profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	return f.profile, nil
}

func (f *fakeAccount) SaveProfile(_ context.Context, _ string, patch domain.ProfilePatch) (*domain.UserProfile, error) {
	if patch.Empty() {
		return nil, domain.ErrEmptyPatch
	}
	f.profile.DisplayName = *patch.DisplayName
	return f.profile, nil
}

func (f *fakeAccount) UploadProfileImage(_ context.Context, _ string, raw []byte) (*domain.UserProfile, error) {
	f.uploaded = raw
	if string(raw) == "broken" {
		return nil, domain.ErrImageProcessing
	}
	f.profile.ProfileImage = "data:image/jpeg;base64,AAAA"
	return f.profile, nil
}

func (f *fakeAccount) ChangePassword(_ context.Context, s *auth.Session, current, next string) (*domain.NotificationReport, error) {
	f.session = s
	return f.report, f.passwordErr
}

// ---------- Setup ----------

func setupTestServer(t *testing.T) (*httptest.Server, *fakeReview, *fakeAccount) {
	t.Helper()
	review := &fakeReview{}
	account := &fakeAccount{profile: &domain.UserProfile{UserID: "u1", DisplayName: "Ada", Role: domain.RoleAdmin}}
	cfg := &config.Config{
		Server:    config.ServerConfig{AllowOrigins: []string{"*"}},
		Auth:      config.AuthConfig{JWTSecret: secret, AccessTokenTTL: time.Hour},
		Image:     config.ImageConfig{MaxUpload: 1 << 20},
		RateLimit: config.RateLimitConfig{LoginAttempts: 100, PasswordAttempts: 100, Window: time.Minute},
	}
	h := handlers.New(review, account, ratelimit.Nop{}, cfg, time.UTC)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, review, account
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := auth.NewAccessToken("u1", "ada@example.com", role, secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func do(t *testing.T, method, url, tok string, body interface{}, want int) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, url, rdr)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("%s %s: want %d, got %d: %s", method, url, want, resp.StatusCode, b)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

// ---------- Tests ----------

func TestLogin(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{"email": "ada@example.com", "password": "secret1"}, http.StatusOK)
	var res domain.LoginResult
	decode(t, resp, &res)
	if res.AccessToken == "" || res.User.Role != domain.RoleAdmin {
		t.Fatalf("unexpected login result %+v", res)
	}

	do(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{"email": "ada@example.com", "password": "bad"}, http.StatusUnauthorized).Body.Close()
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	srv, _, _ := setupTestServer(t)

	do(t, http.MethodGet, srv.URL+"/admin/bookings", "", nil, http.StatusUnauthorized).Body.Close()
	do(t, http.MethodGet, srv.URL+"/admin/bookings", token(t, "staff"), nil, http.StatusForbidden).Body.Close()
	do(t, http.MethodGet, srv.URL+"/halls", token(t, "staff"), nil, http.StatusOK).Body.Close()
}

func TestListBookingsQuery(t *testing.T) {
	srv, review, _ := setupTestServer(t)
	review.bookings = []domain.Booking{{ID: "b1", Hall: "Hall 1", Status: domain.BookingPending}}

	resp := do(t, http.MethodGet, srv.URL+"/admin/bookings?hall=Hall+1&date=2024-06-01&sort=asc&q=jane", token(t, domain.RoleAdmin), nil, http.StatusOK)
	var body struct {
		Bookings []domain.Booking `json:"bookings"`
		Count    int              `json:"count"`
	}
	decode(t, resp, &body)

	if body.Count != 1 || body.Bookings[0].ID != "b1" {
		t.Fatalf("unexpected body %+v", body)
	}
	if review.lastFilter.Hall != "Hall 1" || review.lastFilter.Search != "jane" || review.lastOrder != domain.SortAsc {
		t.Fatalf("filter not forwarded: %+v %s", review.lastFilter, review.lastOrder)
	}
	if review.lastFilter.Date == nil || review.lastFilter.Date.String() != "2024-06-01" {
		t.Fatalf("date not parsed: %+v", review.lastFilter.Date)
	}

	do(t, http.MethodGet, srv.URL+"/admin/bookings?date=June", token(t, domain.RoleAdmin), nil, http.StatusBadRequest).Body.Close()
}

func TestListBookingsStoreUnavailable(t *testing.T) {
	srv, review, _ := setupTestServer(t)
	review.listErr = domain.ErrStoreUnavailable

	resp := do(t, http.MethodGet, srv.URL+"/admin/bookings", token(t, domain.RoleAdmin), nil, http.StatusServiceUnavailable)
	var body struct {
		Bookings []domain.Booking `json:"bookings"`
		Code     string           `json:"code"`
	}
	decode(t, resp, &body)
	if body.Bookings == nil || len(body.Bookings) != 0 || body.Code != "STORE_UNAVAILABLE" {
		t.Fatalf("expected empty list, got %+v", body)
	}
}

func TestApproveWithNotificationWarning(t *testing.T) {
	srv, review, _ := setupTestServer(t)
	review.transition = &domain.Transition{
		BookingID:    "b1",
		From:         "Pending",
		To:           "Approved",
		Changed:      true,
		Notification: &domain.NotificationReport{Kind: "booking_approved", Error: "smtp down"},
	}

	resp := do(t, http.MethodPatch, srv.URL+"/admin/bookings/b1/status", token(t, domain.RoleAdmin), map[string]string{"status": "Approved"}, http.StatusOK)
	var body map[string]interface{}
	decode(t, resp, &body)
	if body["to"] != "Approved" || body["warning"] == nil {
		t.Fatalf("unexpected body %v", body)
	}

	do(t, http.MethodPatch, srv.URL+"/admin/bookings/b1/status", token(t, domain.RoleAdmin), map[string]string{"status": "Pending"}, http.StatusBadRequest).Body.Close()

	review.setErr = domain.ErrBookingNotFound
	do(t, http.MethodPatch, srv.URL+"/admin/bookings/zz/payment", token(t, domain.RoleAdmin), map[string]string{"paymentStatus": "verified"}, http.StatusNotFound).Body.Close()
}

func TestSlipDownload(t *testing.T) {
	srv, review, _ := setupTestServer(t)
	review.slip = &domain.Slip{BookingID: "b1", MediaType: "application/pdf", Data: "JVBERi0="}

	resp := do(t, http.MethodGet, srv.URL+"/admin/bookings/b1/slip", token(t, domain.RoleAdmin), nil, http.StatusOK)
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="payment-slip-b1.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	b, _ := io.ReadAll(resp.Body)
	if string(b) != "%PDF-" {
		t.Fatalf("unexpected body %q", b)
	}
}

func TestExportBookings(t *testing.T) {
	srv, review, _ := setupTestServer(t)
	review.bookings = []domain.Booking{{ID: "b1", Name: "Jane", Hall: "Hall 1", Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}}

	resp := do(t, http.MethodGet, srv.URL+"/admin/bookings/export.xlsx", token(t, domain.RoleAdmin), nil, http.StatusOK)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if len(b) < 4 || string(b[:2]) != "PK" {
		t.Fatal("expected an xlsx (zip) payload")
	}
}

func TestProfile(t *testing.T) {
	srv, _, account := setupTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/account/profile", token(t, domain.RoleAdmin), nil, http.StatusOK)
	var body map[string]interface{}
	decode(t, resp, &body)
	if body["greeting"] != "Ada" || body["homeRoute"] != "/admin/my-account" {
		t.Fatalf("unexpected profile %v", body)
	}

	do(t, http.MethodPatch, srv.URL+"/account/profile", token(t, domain.RoleAdmin), map[string]string{}, http.StatusBadRequest).Body.Close()
	do(t, http.MethodPatch, srv.URL+"/account/profile", token(t, domain.RoleAdmin), map[string]string{"displayName": "Ada L."}, http.StatusOK).Body.Close()
	if account.profile.DisplayName != "Ada L." {
		t.Fatal("display name not saved")
	}

	account.profile = nil
	resp = do(t, http.MethodGet, srv.URL+"/account/profile", token(t, "staff"), nil, http.StatusOK)
	decode(t, resp, &body)
	if body["greeting"] != "Guest" || body["homeRoute"] != "/dashboard" {
		t.Fatalf("expected guest defaults, got %v", body)
	}
}

func uploadImage(t *testing.T, url, tok string, content []byte, want int) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("image", "me.png")
	part.Write(content)
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("upload: want %d, got %d", want, resp.StatusCode)
	}
}

func TestUploadProfileImage(t *testing.T) {
	srv, _, account := setupTestServer(t)

	uploadImage(t, srv.URL+"/account/profile/image", token(t, domain.RoleAdmin), []byte("pixels"), http.StatusOK)
	if string(account.uploaded) != "pixels" {
		t.Fatal("upload not forwarded")
	}
	uploadImage(t, srv.URL+"/account/profile/image", token(t, domain.RoleAdmin), []byte("broken"), http.StatusUnprocessableEntity)
}

func TestChangePassword(t *testing.T) {
	srv, _, account := setupTestServer(t)
	account.report = &domain.NotificationReport{Kind: "password_changed", Error: "Unknown error occurred"}

	resp := do(t, http.MethodPost, srv.URL+"/account/password", token(t, domain.RoleAdmin),
		map[string]string{"currentPassword": "secret1", "newPassword": "brandnew"}, http.StatusOK)
	var body map[string]interface{}
	decode(t, resp, &body)
	if body["warning"] == nil {
		t.Fatalf("expected warning, got %v", body)
	}
	if account.session == nil || account.session.UserID != "u1" || account.session.Email != "ada@example.com" {
		t.Fatalf("session not threaded: %+v", account.session)
	}

	account.passwordErr = domain.ErrInvalidCredential
	do(t, http.MethodPost, srv.URL+"/account/password", token(t, domain.RoleAdmin),
		map[string]string{"currentPassword": "x", "newPassword": "brandnew"}, http.StatusUnauthorized).Body.Close()

	account.passwordErr = domain.ErrTooManyAttempts
	do(t, http.MethodPost, srv.URL+"/account/password", token(t, domain.RoleAdmin),
		map[string]string{"currentPassword": "x", "newPassword": "brandnew"}, http.StatusTooManyRequests).Body.Close()
}
