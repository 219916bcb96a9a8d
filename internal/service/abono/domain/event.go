// internal/service/abono/domain/event.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionOpened 在开卡事务提交后发布。
type SubscriptionOpened struct {
	EventID        string          `json:"event_id"`
	SubscriptionID int64           `json:"subscription_id"`
	FacilityID     int64           `json:"facility_id"`
	Spot           string          `json:"spot"`
	PeriodCount    int             `json:"period_count"`
	StartAt        time.Time       `json:"start_at"`
	EndAt          time.Time       `json:"end_at"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// SubscriptionExtended 在续期事务提交后发布。
type SubscriptionExtended struct {
	EventID        string    `json:"event_id"`
	SubscriptionID int64     `json:"subscription_id"`
	NewPeriods     []int     `json:"new_periods"`
	NewEndAt       time.Time `json:"new_end_at"`
}

// PeriodsSettled 在包期结清事务提交后发布。
type PeriodsSettled struct {
	EventID        string          `json:"event_id"`
	SubscriptionID int64           `json:"subscription_id"`
	PeriodNumbers  []int           `json:"period_numbers"`
	PaymentNumber  int64           `json:"payment_number"`
	Amount         decimal.Decimal `json:"amount"`
}

// SubscriptionCancelled 在取消后发布。
type SubscriptionCancelled struct {
	EventID        string    `json:"event_id"`
	SubscriptionID int64     `json:"subscription_id"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

// NewEventID 生成事件的全局唯一标识。
func NewEventID() string {
	return uuid.NewString()
}
