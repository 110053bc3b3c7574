package handlers

import (
	"net/http"
	"time"

	"farmTracker/internal/handlers/dto"
	"farmTracker/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RegistrationHandler struct {
	Registrations RegistrationService
}

func NewRegistrationHandler(registrations RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{Registrations: registrations}
}

func (h *RegistrationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var request dto.VerifyRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	logger.Info("HTTP: Проверка бирки во внешней системе", zap.String("user_id", actor.UserID))
	result, err := h.Registrations.Verify(r.Context(), actor, request.EarTagNumber, request.OptionNumber)
	if err != nil {
		handleServiceError(w, r, err, "verify_registration")
		return
	}

	logger.Info("HTTP_OUT: Заявка создана",
		zap.String("verification_id", result.VerificationID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("verification_id", result.VerificationID),
		toPayload("summary", result.Summary),
		toPayload("expires_at", result.ExpiresAt),
		toPayload("expires_in_minutes", result.ExpiresInMinutes))
}

func (h *RegistrationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var request dto.ConfirmRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	result, err := h.Registrations.Confirm(r.Context(), actor, request.ToInput())
	if err != nil {
		handleServiceError(w, r, err, "confirm_registration")
		return
	}

	logger.Info("HTTP_OUT: Корова зарегистрирована",
		zap.String("cow_id", result.CowID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated,
		toPayload("cow_id", result.CowID),
		toPayload("summary", result.Summary),
		toPayload("cow", result.Cow))
}

func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var request dto.CancelRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	if err := h.Registrations.Cancel(r.Context(), actor, request.VerificationID); err != nil {
		handleServiceError(w, r, err, "cancel_registration")
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("verification_id", request.VerificationID),
		toPayload("cancelled", true))
}

func (h *RegistrationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	pending, err := h.Registrations.ListPending(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, err, "list_pending_registrations")
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("pending", pending),
		toPayload("count", len(pending)))
}

func (h *RegistrationHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	view, err := h.Registrations.Status(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err, "registration_status")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("verification", view))
}
