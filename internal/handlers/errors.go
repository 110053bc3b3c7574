package handlers

import (
	"net/http"

	"farmTracker/internal/logger"
	"farmTracker/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	businessErr, ok := service.AsBusiness(err)
	if !ok {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP: Ошибка сервиса", err,
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))
	} else {
		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))
	}

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("kind", businessErr.Kind()),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

// handleServiceError отвечает на любую ошибку сервиса; неизвестные ошибки наружу не раскрываются
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))
	responseWithJSON(w, http.StatusInternalServerError,
		toPayload("error", service.CodeInternal),
		toPayload("kind", service.KindInternal),
		toPayload("message", "внутренняя ошибка сервера"),
	)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeNotFound, service.CodeCowNotFound, service.CodeTraceNotFound:
		return http.StatusNotFound
	case service.CodeForbidden:
		return http.StatusForbidden
	case service.CodeAlreadyCompleted, service.CodeAlreadyRegistered,
		service.CodeVersionConflict, service.CodeInvalidTransition:
		return http.StatusConflict
	case service.CodeVerificationExpired:
		return http.StatusGone
	case service.CodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case service.CodeUpstreamMalformed, service.CodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
