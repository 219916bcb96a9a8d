// internal/service/billing/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// TariffModel 对应数据库中的 tariffs 表。
// 金额列必须是定点小数，绝不能用浮点。
type TariffModel struct {
	ID              int64 `gorm:"primaryKey"`
	FacilityID      int64 `gorm:"index:idx_tariff_combo"`
	ServiceID       int64 `gorm:"index:idx_tariff_combo"`
	VehicleClassID  int64 `gorm:"index:idx_tariff_combo"`
	Kind            string
	Amount          decimal.Decimal `gorm:"type:decimal(10,2)"`
	ValidFrom       time.Time
	ValidTo         *time.Time
	DurationMinutes *int
	CreatedAt       time.Time
}

func (TariffModel) TableName() string {
	return "tariffs"
}

// OccupancyModel 对应 occupancies 表。
// (facility_id, spot) 上 exit_at 为空的行至多一条，由结算事务保证。
type OccupancyModel struct {
	ID         int64  `gorm:"primaryKey"`
	FacilityID int64  `gorm:"index:idx_occupancy_spot"`
	Spot       string `gorm:"index:idx_occupancy_spot;size:16"`
	Plate      string `gorm:"size:16"`
	EntryAt    time.Time
	ExitAt     *time.Time
	PaymentID  *int64
	CreatedAt  time.Time
}

func (OccupancyModel) TableName() string {
	return "occupancies"
}

// PaymentModel 对应 payments 表。
// (facility_id, number) 的唯一索引是流水号分配竞争的最终防线。
type PaymentModel struct {
	ID         int64           `gorm:"primaryKey"`
	FacilityID int64           `gorm:"uniqueIndex:uq_payment_number"`
	Number     int64           `gorm:"uniqueIndex:uq_payment_number"`
	Amount     decimal.Decimal `gorm:"type:decimal(10,2)"`
	MethodID   int64
	PaidAt     time.Time
	StaffID    int64
	CreatedAt  time.Time
}

func (PaymentModel) TableName() string {
	return "payments"
}

// PaymentSequenceModel 是每个停车场一行的流水号计数器，
// 分配时对该行加排他锁。
type PaymentSequenceModel struct {
	FacilityID int64 `gorm:"primaryKey"`
	LastValue  int64
	UpdatedAt  time.Time
}

func (PaymentSequenceModel) TableName() string {
	return "payment_sequences"
}

// VehicleModel 是车辆登记表的只读投影，车辆维护本身属于 CRUD 层。
type VehicleModel struct {
	Plate          string `gorm:"primaryKey;size:16"`
	VehicleClassID int64
}

func (VehicleModel) TableName() string {
	return "vehicles"
}
