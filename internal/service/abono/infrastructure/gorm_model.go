// internal/service/abono/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionModel 对应 subscriptions 表。
// 业务键是 (facility_id, spot, start_at)；cached_status 只是检索快照。
type SubscriptionModel struct {
	ID           int64  `gorm:"primaryKey"`
	FacilityID   int64  `gorm:"uniqueIndex:uq_subscription_key"`
	Spot         string `gorm:"uniqueIndex:uq_subscription_key;size:16"`
	StartAt      time.Time `gorm:"uniqueIndex:uq_subscription_key"`
	SubscriberID int64
	ServiceID    int64
	EndAt        time.Time
	TotalAmount  decimal.Decimal `gorm:"type:decimal(10,2)"`
	Cancelled    bool
	CachedStatus string `gorm:"index;size:16"`
	PaymentID    *int64
	CreatedAt    time.Time

	Periods  []PeriodModel              `gorm:"foreignKey:SubscriptionID"`
	Vehicles []SubscriptionVehicleModel `gorm:"foreignKey:SubscriptionID"`
}

func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// PeriodModel 对应 subscription_periods 表。
// 包期号在订阅内唯一且连续，由生成逻辑保证、唯一索引兜底。
type PeriodModel struct {
	ID             int64 `gorm:"primaryKey"`
	SubscriptionID int64 `gorm:"uniqueIndex:uq_period_number"`
	Number         int   `gorm:"uniqueIndex:uq_period_number"`
	StartAt        time.Time
	EndAt          time.Time
	Amount         decimal.Decimal `gorm:"type:decimal(10,2)"`
	Paid           bool
	PaidAt         *time.Time
	PaymentID      *int64
}

func (PeriodModel) TableName() string {
	return "subscription_periods"
}

// SubscriptionVehicleModel 是订阅与车牌的关联表。
type SubscriptionVehicleModel struct {
	SubscriptionID int64  `gorm:"primaryKey"`
	Plate          string `gorm:"primaryKey;size:16"`
}

func (SubscriptionVehicleModel) TableName() string {
	return "subscription_vehicles"
}
