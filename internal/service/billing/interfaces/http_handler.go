// internal/service/billing/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"cochera/internal/service/billing/application"
	"cochera/internal/service/billing/domain"
)

// BillingHandler 封装计费服务的 HTTP 处理器。
type BillingHandler struct {
	service *application.BillingService
}

func NewBillingHandler(service *application.BillingService) *BillingHandler {
	return &BillingHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/entry", h.handleEntry)
	mux.HandleFunc("/egress", h.handleEgress)
	mux.HandleFunc("/quote", h.handleQuote)
	mux.HandleFunc("/tariffs", h.handleSetTariff)
}

func (h *BillingHandler) handleEntry(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	occ, err := h.service.RegisterEntry(ctx, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(occ)
}

func (h *BillingHandler) handleEgress(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.EgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.RegisterEgress(ctx, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *BillingHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	facilityID, err := strconv.ParseInt(r.URL.Query().Get("facility_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid facility_id", http.StatusBadRequest)
		return
	}
	spot := r.URL.Query().Get("spot")

	charge, err := h.service.QuoteStay(ctx, facilityID, spot)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(charge)
}

func (h *BillingHandler) handleSetTariff(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	// DELETE 表示服务下线：关闭该组合的现行窗口
	if r.Method == http.MethodDelete {
		h.closeTariff(ctx, w, r)
		return
	}

	var req application.SetTariffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tariff, err := h.service.SetTariff(ctx, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tariff)
}

func (h *BillingHandler) closeTariff(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	facilityID, err1 := strconv.ParseInt(q.Get("facility_id"), 10, 64)
	serviceID, err2 := strconv.ParseInt(q.Get("service_id"), 10, 64)
	classID, err3 := strconv.ParseInt(q.Get("vehicle_class_id"), 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		http.Error(w, "facility_id, service_id and vehicle_class_id are required", http.StatusBadRequest)
		return
	}

	if err := h.service.CloseTariff(ctx, facilityID, serviceID, classID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError 把领域错误翻译成 HTTP 状态码，
// 每一类失败都要能让前台给出可操作的提示。
func writeDomainError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrOccupancyNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrTariffNotConfigured),
		errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrTariffOverlap):
		statusCode = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSpotConflict),
		errors.Is(err, domain.ErrSequenceConflict):
		statusCode = http.StatusConflict
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
