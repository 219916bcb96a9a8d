// internal/service/billing/domain/payment.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment 是一笔收款。Number 在停车场内单调递增且唯一，
// 由仓储层在"取最大值加一 + 插入"的同一个事务里分配。
type Payment struct {
	ID         int64
	FacilityID int64
	Number     int64
	Amount     decimal.Decimal
	MethodID   int64
	PaidAt     time.Time
	// StaffID 仅用于审计，不参与任何计费判断。
	StaffID int64
}

// Billable 判断金额是否达到开票下限。
// 低于下限的金额静默跳过，不生成支付记录也不报错。
func (p *Payment) Billable(minimum decimal.Decimal) bool {
	return p.Amount.GreaterThan(minimum) && p.Amount.GreaterThan(decimal.Zero)
}
