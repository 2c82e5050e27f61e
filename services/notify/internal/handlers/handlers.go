package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/hallbooking-admin/pkg/logger"
	mw "github.com/diagnosis/hallbooking-admin/pkg/middleware"
	"github.com/diagnosis/hallbooking-admin/pkg/notify"
	"github.com/diagnosis/hallbooking-admin/pkg/response"
	"github.com/diagnosis/hallbooking-admin/services/notify/internal/mailer"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	mailer mailer.Service
}

func New(m mailer.Service) *Handlers {
	return &Handlers{mailer: m}
}

func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/send-email", h.SendBookingApproved)
		r.Post("/send-email-pass", h.SendPasswordChanged)
	})
	return r
}

// every reply carries a "message" field, which the sender surfaces as-is
func writeMessage(w http.ResponseWriter, status int, msg string) {
	response.WriteJSON(w, status, map[string]string{"message": msg})
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func (h *Handlers) SendBookingApproved(w http.ResponseWriter, r *http.Request) {
	var p notify.BookingApprovedPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if !validEmail(p.UserInfo.Email) {
		writeMessage(w, http.StatusBadRequest, "A valid recipient email is required")
		return
	}
	if p.SelectedHall == "" || p.Date == "" {
		writeMessage(w, http.StatusBadRequest, "Hall and date are required")
		return
	}

	text, html, err := renderApproved(p)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to render email", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Failed to render email")
		return
	}

	msg := mailer.Message{To: p.UserInfo.Email, ToName: p.UserInfo.Name, Subject: approvedSubject, Text: text, HTML: html}
	if err := h.mailer.Send(r.Context(), msg); err != nil {
		logger.ErrorContext(r.Context(), "Failed to send booking email", "to", msg.To, "error", err.Error())
		writeMessage(w, http.StatusBadGateway, "Failed to send email: "+err.Error())
		return
	}

	logger.InfoContext(r.Context(), "Booking approval email sent", "to", msg.To, "hall", p.SelectedHall)
	writeMessage(w, http.StatusOK, "Email sent successfully")
}

func (h *Handlers) SendPasswordChanged(w http.ResponseWriter, r *http.Request) {
	var p notify.PasswordChangedPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if !validEmail(p.Email) {
		writeMessage(w, http.StatusBadRequest, "A valid recipient email is required")
		return
	}
	if strings.TrimSpace(p.Subject) == "" || strings.TrimSpace(p.Message) == "" {
		writeMessage(w, http.StatusBadRequest, "Subject and message are required")
		return
	}

	html, err := renderMessage(p)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to render email", "error", err.Error())
		writeMessage(w, http.StatusInternalServerError, "Failed to render email")
		return
	}

	msg := mailer.Message{To: p.Email, Subject: p.Subject, Text: p.Message, HTML: html}
	if err := h.mailer.Send(r.Context(), msg); err != nil {
		logger.ErrorContext(r.Context(), "Failed to send password email", "to", msg.To, "error", err.Error())
		writeMessage(w, http.StatusBadGateway, "Failed to send email: "+err.Error())
		return
	}

	logger.InfoContext(r.Context(), "Password change email sent", "to", msg.To)
	writeMessage(w, http.StatusOK, "Email sent successfully")
}
