// internal/service/abono/domain/repository.go
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionRepository 是订阅台账的持久化端口。
// 所有写方法都必须把校验和写入放在同一个数据库事务里。
type SubscriptionRepository interface {
	// Create 在校验"车位在 [StartAt, EndAt] 无未取消订阅、无进行中停车"
	// 之后插入订阅及其全部包期；冲突返回 ErrBookingConflict。
	Create(ctx context.Context, s *Subscription) error
	// Get 加载订阅及其包期和关联车辆。
	Get(ctx context.Context, id int64) (*Subscription, error)
	// AppendPeriods 校验扩展区间无冲突后追加包期并推移名义到期时间。
	AppendPeriods(ctx context.Context, s *Subscription, periods []Period, newEnd time.Time) error
	// SettlePeriods 在单个事务里登记一笔支付并把指定包期标记为已付。
	// 受影响行数与包期数不符时整体回滚。
	SettlePeriods(ctx context.Context, s *Subscription, numbers []int, payment *SettledPayment) error
	// Cancel 置取消标记并冻结名义到期时间。
	Cancel(ctx context.Context, id int64, at time.Time) error
	// UpdateCachedStatus 刷新检索用的状态快照列，失败不影响读取结果。
	UpdateCachedStatus(ctx context.Context, id int64, status Status) error
	// AttachVehicle 把一个车牌挂到订阅的关联车辆集合。
	AttachVehicle(ctx context.Context, id int64, plate string) error
}

// SettledPayment 是结清包期时产生的支付摘要。
// ID 和 Number 由仓储在事务内分配后回填。
type SettledPayment struct {
	ID       int64
	Number   int64
	Amount   decimal.Decimal
	MethodID int64
	StaffID  int64
	PaidAt   time.Time
}

// TariffSource 是对计费上下文资费目录的只读端口。
type TariffSource interface {
	// UnitTariff 返回该组合在 at 时点的现行单价和计价时长；
	// 无现行价格时返回 ErrTariffNotConfigured。
	UnitTariff(ctx context.Context, facilityID, serviceID, vehicleClassID int64, at time.Time) (decimal.Decimal, *int, error)
}

// EventPublisher 把领域事件发到消息总线。
type EventPublisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
}

// SpotLocker 是跨实例车位互斥锁端口。
type SpotLocker interface {
	WithSpotLock(facilityID int64, spot string, fn func() error) error
}
