// internal/service/abono/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"cochera/internal/service/abono/application"
	"cochera/internal/service/abono/domain"
)

// AbonoHandler 封装订阅服务的 HTTP 处理器。
type AbonoHandler struct {
	service *application.AbonoService
}

func NewAbonoHandler(service *application.AbonoService) *AbonoHandler {
	return &AbonoHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *AbonoHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/subscriptions/open", h.handleOpen)
	mux.HandleFunc("/subscriptions/extend", h.handleExtend)
	mux.HandleFunc("/subscriptions/settle", h.handleSettle)
	mux.HandleFunc("/subscriptions/cancel", h.handleCancel)
	mux.HandleFunc("/subscriptions/vehicles", h.handleAttachVehicle)
	mux.HandleFunc("/subscriptions", h.handleGet)
}

func (h *AbonoHandler) handleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := h.service.OpenSubscription(ctx, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sub)
}

func (h *AbonoHandler) handleExtend(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.ExtendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := h.service.ExtendSubscription(ctx, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

func (h *AbonoHandler) handleSettle(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.SettlePeriods(ctx, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *AbonoHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.service.CancelSubscription(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AbonoHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	sub, err := h.service.GetSubscription(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

func (h *AbonoHandler) handleAttachVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req struct {
		SubscriptionID int64  `json:"subscription_id"`
		Plate          string `json:"plate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.AttachVehicle(ctx, req.SubscriptionID, req.Plate); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError 把领域错误翻译成 HTTP 状态码。
func writeDomainError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrTariffNotConfigured),
		errors.Is(err, domain.ErrModalityMismatch),
		errors.Is(err, domain.ErrUnknownPeriod),
		errors.Is(err, domain.ErrInvalidPeriodCount),
		errors.Is(err, domain.ErrAlreadyCancelled):
		statusCode = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBookingConflict),
		errors.Is(err, domain.ErrPeriodAlreadyPaid):
		statusCode = http.StatusConflict
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
