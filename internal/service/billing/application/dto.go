// internal/service/billing/application/dto.go
package application

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryRequest 是入场登记的请求体。
type EntryRequest struct {
	FacilityID int64  `json:"facility_id"`
	Spot       string `json:"spot"`
	Plate      string `json:"plate"`
	// EntryAt 为空时使用服务器当前时间
	EntryAt *time.Time `json:"entry_at,omitempty"`
}

// EgressRequest 是出场结算的请求体。
type EgressRequest struct {
	FacilityID int64      `json:"facility_id"`
	Spot       string     `json:"spot"`
	ExitAt     *time.Time `json:"exit_at,omitempty"`
	MethodID   int64      `json:"method_id"`
	StaffID    int64      `json:"staff_id"`
}

// ChargeLineDTO 对应一条收费明细。
type ChargeLineDTO struct {
	TariffID        int64           `json:"tariff_id"`
	DurationMinutes int             `json:"duration_minutes"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int64           `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

// EgressResponse 返回结算结果。
type EgressResponse struct {
	Plate          string          `json:"plate"`
	ElapsedMinutes int64           `json:"elapsed_minutes"`
	Lines          []ChargeLineDTO `json:"lines"`
	Total          decimal.Decimal `json:"total"`
	PaymentNumber  *int64          `json:"payment_number,omitempty"`
}

// SetTariffRequest 新建（并顶替）一条资费。
type SetTariffRequest struct {
	FacilityID      int64           `json:"facility_id"`
	ServiceID       int64           `json:"service_id"`
	VehicleClassID  int64           `json:"vehicle_class_id"`
	Kind            string          `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	ValidFrom       time.Time       `json:"valid_from"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
}
