// internal/service/abono/application/dto.go
package application

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenRequest 开一个新的 abono。
type OpenRequest struct {
	FacilityID     int64  `json:"facility_id"`
	Spot           string `json:"spot"`
	SubscriberID   int64  `json:"subscriber_id"`
	ServiceID      int64  `json:"service_id"`
	VehicleClassID int64  `json:"vehicle_class_id"`
	// Modality 在服务未配置计价时长时决定兜底包期天数
	Modality    string     `json:"modality"`
	PeriodCount int        `json:"period_count"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	Vehicles    []string   `json:"vehicles,omitempty"`
	StaffID     int64      `json:"staff_id"`
}

// ExtendRequest 给既有 abono 追加包期。
type ExtendRequest struct {
	SubscriptionID    int64  `json:"subscription_id"`
	AdditionalPeriods int    `json:"additional_periods"`
	ServiceID         int64  `json:"service_id"`
	VehicleClassID    int64  `json:"vehicle_class_id"`
	Modality          string `json:"modality"`
	StaffID           int64  `json:"staff_id"`
}

// SettleRequest 结清若干包期。单个包期不允许部分支付，
// 整单金额是所选包期金额之和。
type SettleRequest struct {
	SubscriptionID int64 `json:"subscription_id"`
	PeriodNumbers  []int `json:"period_numbers"`
	MethodID       int64 `json:"method_id"`
	StaffID        int64 `json:"staff_id"`
}

// SettleResponse 返回结清结果。
type SettleResponse struct {
	PaymentNumber int64           `json:"payment_number"`
	Amount        decimal.Decimal `json:"amount"`
	PeriodNumbers []int           `json:"period_numbers"`
}
