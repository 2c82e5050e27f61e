package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/hallbooking-admin/pkg/logger"
	"github.com/diagnosis/hallbooking-admin/pkg/response"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/export"
)

type listResponse struct {
	Bookings []domain.Booking `json:"bookings"`
	Count    int              `json:"count"`
	Sort     domain.SortOrder `json:"sort"`
}

type transitionResponse struct {
	*domain.Transition
	Warning string `json:"warning,omitempty"`
}

// parseListQuery reads ?hall=&date=&sort=&q=
func parseListQuery(r *http.Request) (domain.ListFilter, domain.SortOrder, error) {
	q := r.URL.Query()
	filter := domain.ListFilter{Hall: q.Get("hall"), Search: q.Get("q")}
	if v := q.Get("date"); v != "" {
		d, err := domain.ParseCalendarDate(v)
		if err != nil {
			return filter, "", err
		}
		filter.Date = &d
	}
	order, err := domain.ParseSortOrder(q.Get("sort"))
	return filter, order, err
}

func (h *Handlers) ListHalls(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"halls": h.reviewService.Halls()})
}

// ListBookings answers a store failure with 503 and an empty list.
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	filter, order, err := parseListQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	bookings, err := h.reviewService.ListBookings(r.Context(), filter, order)
	if err != nil {
		if bookings != nil && isUnavailable(err) {
			logger.ErrorContext(r.Context(), "Failed to list bookings", "error", err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"error":    "Data store is unavailable, please try again",
				"code":     response.CodeStoreUnavailable,
				"bookings": bookings,
				"count":    0,
			})
			return
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Bookings: bookings, Count: len(bookings), Sort: order})
}

func (h *Handlers) ExportBookings(w http.ResponseWriter, r *http.Request) {
	filter, order, err := parseListQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	bookings, err := h.reviewService.ListBookings(r.Context(), filter, order)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings, h.loc); err != nil {
		logger.ErrorContext(r.Context(), "Failed to build export", "error", err.Error())
		response.InternalError(w, "Failed to build export")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.reviewService.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GetSlip serves the slip bytes: PDFs as a download, images inline.
func (h *Handlers) GetSlip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.reviewService.GetSlip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	raw, err := slip.Decode()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", slip.MediaType)
	if name := slip.FileName(); name != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	} else {
		w.Header().Set("Content-Disposition", "inline")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *Handlers) SetBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	status, err := domain.ParseDecision(req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	t, err := h.reviewService.SetBookingStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeTransition(w, t)
}

func (h *Handlers) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentStatus string `json:"paymentStatus"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	status, err := domain.ParsePaymentDecision(req.PaymentStatus)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	t, err := h.reviewService.SetPaymentStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeTransition(w, t)
}

// writeTransition reports a failed notification as a warning; the decision
// itself succeeded.
func writeTransition(w http.ResponseWriter, t *domain.Transition) {
	resp := transitionResponse{Transition: t}
	if t.Notification.Failed() {
		resp.Warning = "Booking updated, but the confirmation email could not be sent: " + t.Notification.Error
	}
	writeJSON(w, http.StatusOK, resp)
}
