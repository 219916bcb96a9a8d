// internal/service/billing/domain/tariff.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 临时停车计费用到的两个基础计价单位时长（分钟）。
const (
	FraccionMinutes = 30 // fracción：最小计价单位
	HoraMinutes     = 60 // hora：整小时单位
)

// TariffKind 区分资费所属的服务类别。
type TariffKind string

const (
	KindParking TariffKind = "estacionamiento" // 临时停车
	KindAbono   TariffKind = "abono"           // 包期订阅
	KindExtra   TariffKind = "extra"           // 一次性附加项
)

// Tariff 是某个 (停车场, 服务, 车型) 组合下的一条计价记录。
// 价格从不原地修改：调价时关闭旧记录的有效期窗口并新建一条，
// 这样历史收费引用的价格永远可回溯。
type Tariff struct {
	ID             int64
	FacilityID     int64
	ServiceID      int64
	VehicleClassID int64
	Kind           TariffKind
	Amount         decimal.Decimal
	ValidFrom      time.Time
	// ValidTo 为 nil 表示开放窗口，即当前现行（vigente）价格。
	ValidTo *time.Time
	// DurationMinutes 为 nil 表示该服务不按时长计价（一次性附加项）。
	DurationMinutes *int
}

// Minutes 返回计价时长，未配置时为 0。
func (t *Tariff) Minutes() int {
	if t.DurationMinutes == nil {
		return 0
	}
	return *t.DurationMinutes
}

// Covers 判断有效期窗口是否覆盖查询区间 [rangeStart, rangeEnd]。
// 窗口结束早于区间开始、或窗口开始晚于区间结束的记录都不适用。
func (t *Tariff) Covers(rangeStart, rangeEnd time.Time) bool {
	if t.ValidFrom.After(rangeEnd) {
		return false
	}
	if t.ValidTo != nil && t.ValidTo.Before(rangeStart) {
		return false
	}
	return true
}

// SelectCurrent 在候选记录中挑出对查询区间现行的那一条：
// 先按 Covers 过滤，再取 ValidFrom 最新的（并列时取更晚者）。
// 没有适用记录时返回 nil，调用方必须把它当作"该服务暂不可计费"，
// 绝不能落回零价。
func SelectCurrent(tariffs []Tariff, rangeStart, rangeEnd time.Time) *Tariff {
	var best *Tariff
	for i := range tariffs {
		t := &tariffs[i]
		if !t.Covers(rangeStart, rangeEnd) {
			continue
		}
		if best == nil || !t.ValidFrom.Before(best.ValidFrom) {
			best = t
		}
	}
	return best
}
