// internal/service/abono/domain/errors.go
package domain

import "errors"

var (
	// ErrSubscriptionNotFound 表示订阅不存在。
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrTariffNotConfigured 表示该服务没有现行价格，
	// 不允许在价格未知的情况下开卡或续期。
	ErrTariffNotConfigured = errors.New("no tariff configured for the subscription service")

	// ErrBookingConflict 表示目标车位在相关时间范围内已有
	// 未取消的订阅或进行中的停车。
	ErrBookingConflict = errors.New("spot already booked for the requested range")

	// ErrModalityMismatch 表示续期服务与原订阅的包期模式不一致，
	// 调用方应提示改为新开一个订阅。
	ErrModalityMismatch = errors.New("extension modality does not match the subscription")

	// ErrUnknownPeriod 表示结清请求引用了不存在的包期号。
	ErrUnknownPeriod = errors.New("period does not exist on the subscription")

	// ErrPeriodAlreadyPaid 表示包期已结清，不允许重复收款。
	ErrPeriodAlreadyPaid = errors.New("period is already paid")

	// ErrAlreadyCancelled 表示订阅已处于取消终态。
	ErrAlreadyCancelled = errors.New("subscription is already cancelled")

	// ErrInvalidPeriodCount 表示请求的包期数不是正数。
	ErrInvalidPeriodCount = errors.New("period count must be positive")
)
