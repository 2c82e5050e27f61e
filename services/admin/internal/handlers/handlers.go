package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/diagnosis/hallbooking-admin/pkg/auth"
	"github.com/diagnosis/hallbooking-admin/pkg/config"
	"github.com/diagnosis/hallbooking-admin/pkg/logger"
	mw "github.com/diagnosis/hallbooking-admin/pkg/middleware"
	"github.com/diagnosis/hallbooking-admin/pkg/ratelimit"
	"github.com/diagnosis/hallbooking-admin/pkg/response"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/identity"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/service"
)

type Handlers struct {
	reviewService  service.ReviewService
	accountService service.AccountService
	limiter        ratelimit.Limiter
	config         *config.Config
	loc            *time.Location
}

func New(
	reviewService service.ReviewService,
	accountService service.AccountService,
	limiter ratelimit.Limiter,
	cfg *config.Config,
	loc *time.Location,
) *Handlers {
	return &Handlers{
		reviewService:  reviewService,
		accountService: accountService,
		limiter:        limiter,
		config:         cfg,
		loc:            loc,
	}
}

func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("admin"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.Server.AllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	rl := h.config.RateLimit
	r.With(mw.RateLimit(h.limiter, mw.ByClientIP("login"), rl.LoginAttempts, rl.Window)).
		Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.config.Auth.JWTSecret, ""))
		r.Get("/halls", h.ListHalls)

		r.Route("/account", func(r chi.Router) {
			r.Get("/profile", h.GetProfile)
			r.Patch("/profile", h.UpdateProfile)
			r.Post("/profile/image", h.UploadProfileImage)
			r.Post("/password", h.ChangePassword)
		})
	})

	r.Route("/admin/bookings", func(r chi.Router) {
		r.Use(mw.RequireJWT(h.config.Auth.JWTSecret, auth.RoleAdmin))
		r.Get("/", h.ListBookings)
		r.Get("/export.xlsx", h.ExportBookings)
		r.Get("/{id}", h.GetBooking)
		r.Get("/{id}/slip", h.GetSlip)
		r.Patch("/{id}/status", h.SetBookingStatus)
		r.Patch("/{id}/payment", h.SetPaymentStatus)
	})

	return r
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response.WriteJSON(w, statusCode, data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeServiceError maps domain errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrStoreUnavailable):
		logger.ErrorContext(r.Context(), "Store unavailable", "error", err.Error())
		response.ServiceUnavailable(w, "Data store is unavailable, please try again")
	case errors.Is(err, domain.ErrInvalidCredential), errors.Is(err, identity.ErrProofUsed):
		response.WriteError(w, http.StatusUnauthorized, "Invalid credentials", response.CodeInvalidCredential)
	case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrProfileNotFound), errors.Is(err, domain.ErrNoSlip):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrImageProcessing):
		response.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, "Could not process image", response.CodeImageProcessing, err.Error())
	case errors.Is(err, domain.ErrTooManyAttempts):
		response.RateLimit(w, "Too many attempts, try again later")
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPaymentStatus),
		errors.Is(err, domain.ErrUnknownHall),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidSortOrder),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrEmptyPatch),
		errors.Is(err, domain.ErrInvalidSlip):
		response.BadRequest(w, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Unhandled error", "error", err.Error(), "path", r.URL.Path)
		response.InternalError(w, "Internal server error")
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, domain.ErrStoreUnavailable)
}
