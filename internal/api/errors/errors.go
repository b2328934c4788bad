// Пакет errors — конструкторы стандартных ошибок Backoffice API.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/goartstore/backoffice-module/internal/permission"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
	"github.com/bigkaa/goartstore/backoffice-module/internal/service"
)

// Коды ошибок, определённые в OpenAPI контракте.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeConflict            = "CONFLICT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeAlreadyDeleted      = "ALREADY_DELETED"
	CodeNotDeleted          = "NOT_DELETED"
	CodeInternalError       = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	writeBody(w, statusCode, errorDetail{Code: code, Message: message})
}

func writeBody(w http.ResponseWriter, statusCode int, detail errorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: detail})
}

// FromError отображает ошибку сервисного слоя в HTTP-ответ.
// Неизвестные ошибки логируются и возвращаются как 500 без подробностей.
func FromError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeBody(w, http.StatusBadRequest, errorDetail{Code: CodeValidationError, Message: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrValidation):
		ValidationError(w, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, repository.ErrConcurrencyConflict):
		WriteError(w, http.StatusConflict, CodeConcurrencyConflict,
			"запись изменена другим пользователем, обновите данные и повторите")
	case errors.Is(err, repository.ErrAlreadyDeleted):
		WriteError(w, http.StatusConflict, CodeAlreadyDeleted, "запись уже удалена")
	case errors.Is(err, repository.ErrNotDeleted):
		WriteError(w, http.StatusConflict, CodeNotDeleted, "запись не помечена как удалённая")
	case errors.Is(err, permission.ErrDuplicateAssignment), errors.Is(err, repository.ErrConflict):
		Conflict(w, err.Error())
	default:
		if logger != nil {
			logger.Error("Внутренняя ошибка обработки запроса", slog.String("error", err.Error()))
		}
		InternalError(w, "внутренняя ошибка сервера")
	}
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// Conflict — 409 конфликт уникальности.
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
