package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"farmTracker/internal/auth"
	"farmTracker/internal/logger"
	"farmTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// decodeJSON читает тело запроса; при optional пустое тело допустимо.
// Возвращает false, если ответ с ошибкой уже записан.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if r.ContentLength == 0 && optional {
		return true
	}

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, service.CodeValidation,
			"Content-Type должен быть application/json")
		return false
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return true
		}

		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "неверное тело запроса: "+err.Error())
		return false
	}
	return true
}

func parseTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil || id == uuid.Nil {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("id", idParam),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "неверный id задачи")
		return uuid.Nil, false
	}
	return id, true
}

// actorFrom достаёт пользователя, положенного middleware.Auth
func actorFrom(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		logger.Warn("HTTP: Запрос без пользователя", zap.String("path", r.URL.Path))
		responseWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "требуется авторизация")
		return auth.Actor{}, false
	}
	return actor, true
}
