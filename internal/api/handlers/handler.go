// handler.go — основной обработчик API Backoffice Module.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/bigkaa/goartstore/backoffice-module/internal/api/errors"
	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/service"
)

// Deps — сервисы, над которыми работает APIHandler.
type Deps struct {
	Health        *HealthHandler
	Menus         *service.MenuService
	Buttons       *service.ButtonService
	Roles         *service.Records[model.Role]
	Users         *service.Records[model.User]
	Majors        *service.Records[model.Major]
	Permissions   *service.PermissionService
	OperationLogs *service.OperationLogService
	// MaxPageSize — верхняя граница take для постраничных запросов.
	MaxPageSize int
}

// APIHandler — основной обработчик API Backoffice Module.
type APIHandler struct {
	health *HealthHandler

	Menus   *RecordHandler[model.Menu]
	Buttons *RecordHandler[model.Button]
	Roles   *RecordHandler[model.Role]
	Users   *RecordHandler[model.User]
	Majors  *RecordHandler[model.Major]

	menus       *service.MenuService
	permissions *service.PermissionService
	logs        *service.OperationLogService
	maxPageSize int
	logger      *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(deps Deps, logger *slog.Logger) *APIHandler {
	logger = logger.With(slog.String("component", "api_handler"))
	return &APIHandler{
		health:      deps.Health,
		Menus:       NewRecordHandler(deps.Menus.Records, deps.MaxPageSize, logger),
		Buttons:     NewRecordHandler(deps.Buttons.Records, deps.MaxPageSize, logger),
		Roles:       NewRecordHandler(deps.Roles, deps.MaxPageSize, logger),
		Users:       NewRecordHandler(deps.Users, deps.MaxPageSize, logger),
		Majors:      NewRecordHandler(deps.Majors, deps.MaxPageSize, logger),
		menus:       deps.Menus,
		permissions: deps.Permissions,
		logs:        deps.OperationLogs,
		maxPageSize: deps.MaxPageSize,
		logger:      logger,
	}
}

// HealthLive — проверка живости (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — проверка готовности (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса; при ошибке отвечает 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return false
	}
	return true
}

// pathID связывает UUID из параметра пути; при ошибке отвечает 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр %s: %v", name, err))
		return "", false
	}
	return id.String(), true
}

// queryString связывает необязательный строковый query-параметр.
func queryString(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v *string
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр %s: %v", name, err))
		return "", false
	}
	if v == nil {
		return "", true
	}
	return *v, true
}

// queryStamp читает обязательный параметр concurrencyStamp.
func queryStamp(w http.ResponseWriter, r *http.Request) (string, bool) {
	var stamp string
	if err := runtime.BindQueryParameter("form", true, true, "concurrencyStamp", r.URL.Query(), &stamp); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный параметр concurrencyStamp: %v", err))
		return "", false
	}
	if stamp == "" {
		apierrors.ValidationError(w, "Не указан concurrencyStamp")
		return "", false
	}
	return stamp, true
}

// pageRequest переводит запрос DataTables в query.Request и ограничивает
// размер страницы.
func pageRequest(dt query.DataTableRequest, maxPageSize int) query.Request {
	req := dt.ToRequest()
	if maxPageSize > 0 && (req.Take < 0 || req.Take > maxPageSize) {
		req.Take = maxPageSize
	}
	return req
}
