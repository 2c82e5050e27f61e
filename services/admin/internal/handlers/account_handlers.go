package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/diagnosis/hallbooking-admin/pkg/auth"
	"github.com/diagnosis/hallbooking-admin/pkg/response"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
)

type profileResponse struct {
	*domain.UserProfile
	Greeting  string `json:"greeting"`
	HomeRoute string `json:"homeRoute"`
}

func newProfileResponse(p *domain.UserProfile) profileResponse {
	return profileResponse{UserProfile: p, Greeting: p.Greeting(), HomeRoute: p.HomeRoute()}
}

// GetProfile answers with the "Guest" defaults when no profile exists yet.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())

	p, err := h.accountService.GetProfile(r.Context(), sess.UserID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		p = &domain.UserProfile{UserID: sess.UserID, Role: sess.Role}
		err = nil
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())

	var patch domain.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	// images only arrive through the upload endpoint so they are always resized
	patch.ProfileImage = nil

	p, err := h.accountService.SaveProfile(r.Context(), sess.UserID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
}

func (h *Handlers) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())

	limit := h.config.Image.MaxUpload
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		response.BadRequest(w, "Invalid upload")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "Missing image file")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		response.BadRequest(w, "Could not read image")
		return
	}
	if int64(len(raw)) > limit {
		response.BadRequest(w, "Image too large")
		return
	}

	p, err := h.accountService.UploadProfileImage(r.Context(), sess.UserID, raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(p))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFrom(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	report, err := h.accountService.ChangePassword(r.Context(), sess, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	body := map[string]interface{}{
		"message":      "Password updated successfully",
		"notification": report,
	}
	if report.Failed() {
		body["warning"] = "Password updated, but the confirmation email could not be sent: " + report.Error
	}
	writeJSON(w, http.StatusOK, body)
}
