// internal/service/billing/domain/repository.go
package domain

import (
	"context"
	"time"
)

// TariffRepository 是资费目录的读写端口。
type TariffRepository interface {
	// FindCurrent 实现 vigente 查询：返回窗口覆盖 [rangeStart, rangeEnd]
	// 且 ValidFrom 最新的记录；无适用记录时返回 ErrTariffNotConfigured。
	FindCurrent(ctx context.Context, facilityID, serviceID, vehicleClassID int64, rangeStart, rangeEnd time.Time) (*Tariff, error)
	// FindCurrentParking 返回该车型当前所有现行的临时停车（按时长）资费。
	FindCurrentParking(ctx context.Context, facilityID, vehicleClassID int64, at time.Time) ([]Tariff, error)
	// Create 新增一条资费；与既有窗口重叠时返回 ErrTariffOverlap。
	Create(ctx context.Context, t *Tariff) error
	// CloseWindow 关闭 (facility, service, class) 的开放窗口记录。
	CloseWindow(ctx context.Context, facilityID, serviceID, vehicleClassID int64, validTo time.Time) error
}

// OccupancyRepository 管理临时停车记录及其结算事务。
type OccupancyRepository interface {
	// CreateIfFree 在同一事务里校验"车位无进行中停车"并插入，
	// 已占用时返回 ErrSpotConflict。
	CreateIfFree(ctx context.Context, o *Occupancy) error
	// FindActive 返回车位当前进行中的停车，没有则返回 ErrOccupancyNotFound。
	FindActive(ctx context.Context, facilityID int64, spot string) (*Occupancy, error)
	// Settle 在单个事务里分配支付流水号、落支付、写出场时间并挂接支付。
	// payment 为 nil 表示金额低于开票下限，只关单不收款。
	// 任何一步失败整体回滚，车位保持占用。
	Settle(ctx context.Context, o *Occupancy, payment *Payment) error
}

// PaymentRepository 是支付记录端口。流水号分配必须与插入同事务，
// 并在唯一键冲突时重试一次，再失败返回 ErrSequenceConflict。
type PaymentRepository interface {
	Record(ctx context.Context, p *Payment) error
	NextNumber(ctx context.Context, facilityID int64) (int64, error)
}

// EventPublisher 把领域事件发到消息总线。发布失败只记日志，
// 不回滚已提交的业务事务。
type EventPublisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
}

// VehicleRegistry 是对外部车辆登记（CRUD 层维护）的只读端口，
// 计费时用它把车牌解析成车型。
type VehicleRegistry interface {
	ClassOf(ctx context.Context, plate string) (int64, error)
}

// SpotLocker 是跨实例车位互斥锁端口。
type SpotLocker interface {
	WithSpotLock(facilityID int64, spot string, fn func() error) error
}
