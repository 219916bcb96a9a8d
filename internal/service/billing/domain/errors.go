// internal/service/billing/domain/errors.go
package domain

import "errors"

var (
	// ErrTariffNotConfigured 表示查询区间内没有任何现行资费。
	// 上层必须拦截该操作并提示人工配置，绝不能按零价放行。
	ErrTariffNotConfigured = errors.New("no tariff configured for the requested service")

	// ErrInvalidInterval 表示出场时间不晚于入场时间等非法时间区间。
	ErrInvalidInterval = errors.New("invalid time interval")

	// ErrSpotConflict 表示目标车位在相关时间范围内已被占用或预订。
	ErrSpotConflict = errors.New("spot already booked for the requested range")

	// ErrOccupancyNotFound 表示该车位没有进行中的停车记录。
	ErrOccupancyNotFound = errors.New("no active occupancy for spot")

	// ErrSequenceConflict 表示支付流水号竞争失败且重试后仍冲突。
	ErrSequenceConflict = errors.New("payment sequence allocation conflict")

	// ErrTariffOverlap 表示新资费的有效期窗口与既有记录重叠。
	ErrTariffOverlap = errors.New("tariff validity window overlaps an existing record")
)
