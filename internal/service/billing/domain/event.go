// internal/service/billing/domain/event.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleEntered 在入场登记成功后发布。
type VehicleEntered struct {
	EventID    string    `json:"event_id"`
	FacilityID int64     `json:"facility_id"`
	Spot       string    `json:"spot"`
	Plate      string    `json:"plate"`
	EntryAt    time.Time `json:"entry_at"`
}

// StaySettled 在出场结算（关单 + 收款 + 释放车位）提交后发布。
type StaySettled struct {
	EventID        string          `json:"event_id"`
	FacilityID     int64           `json:"facility_id"`
	Spot           string          `json:"spot"`
	Plate          string          `json:"plate"`
	ElapsedMinutes int64           `json:"elapsed_minutes"`
	Total          decimal.Decimal `json:"total"`
	PaymentNumber  int64           `json:"payment_number,omitempty"`
	ExitAt         time.Time       `json:"exit_at"`
}

// NewEventID 生成事件的全局唯一标识。
func NewEventID() string {
	return uuid.NewString()
}
