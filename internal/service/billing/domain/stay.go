// internal/service/billing/domain/stay.go
package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ChargeLine 是一次临时停车收费的一个明细行，
// 记录具体用了哪条资费、单价和数量，保证账单可审计。
type ChargeLine struct {
	TariffID        int64
	ServiceID       int64
	DurationMinutes int
	UnitPrice       decimal.Decimal
	Quantity        int64
	Subtotal        decimal.Decimal
}

// StayCharge 是临时停车的完整计费结果。
type StayCharge struct {
	ElapsedMinutes int64
	Lines          []ChargeLine
	Total          decimal.Decimal
}

// ComputeStayCharge 计算一次已结束停车的应收金额。
//
// 规则按既有业务逐条归档，短时停车的两条特例不是贪心规则的推广，
// 必须保持原样：
//  1. 不超过 30 分钟且配置了 fracción：收恰好一个 fracción；
//  2. 否则不超过 60 分钟且配置了 hora：收恰好一个 hora；
//  3. 其余情况对时长大于一小时的资费按时长从大到小做贪心分解；
//  4. 贪心后的余数：不超过 30 分钟且有 fracción 收一个 fracción，
//     否则有 hora 按 ceil(余数/60) 收整小时；两者都没配置时余数不计费
//     （历史遗留口径，未经产品确认不得自行"修复"）。
//
// tariffs 传入该停车场、该车型当前所有现行的按时长计价记录。
// 一条记录都没有时返回空明细、总额为零，调用方应视为配置错误而非免费。
func ComputeStayCharge(entry, exit time.Time, tariffs []Tariff) (*StayCharge, error) {
	elapsed := int64(exit.Sub(entry).Minutes())
	if elapsed <= 0 {
		return nil, ErrInvalidInterval
	}

	var fraccion, hora *Tariff
	var largas []Tariff
	for i := range tariffs {
		t := tariffs[i]
		switch {
		case t.Minutes() == FraccionMinutes:
			fraccion = &tariffs[i]
		case t.Minutes() == HoraMinutes:
			hora = &tariffs[i]
		case t.Minutes() > HoraMinutes:
			largas = append(largas, t)
		}
	}

	charge := &StayCharge{ElapsedMinutes: elapsed, Total: decimal.Zero}

	if elapsed <= FraccionMinutes && fraccion != nil {
		charge.addLine(fraccion, 1)
		return charge, nil
	}
	if elapsed <= HoraMinutes && hora != nil {
		charge.addLine(hora, 1)
		return charge, nil
	}

	sort.Slice(largas, func(i, j int) bool {
		return largas[i].Minutes() > largas[j].Minutes()
	})

	remaining := elapsed
	for i := range largas {
		t := &largas[i]
		count := remaining / int64(t.Minutes())
		if count == 0 {
			continue
		}
		charge.addLine(t, count)
		remaining -= count * int64(t.Minutes())
	}

	if remaining > 0 {
		switch {
		case remaining <= FraccionMinutes && fraccion != nil:
			charge.addLine(fraccion, 1)
		case hora != nil:
			units := (remaining + HoraMinutes - 1) / HoraMinutes
			charge.addLine(hora, units)
			// 其余情况：余数不计费，见上面的口径说明
		}
	}

	return charge, nil
}

func (c *StayCharge) addLine(t *Tariff, quantity int64) {
	subtotal := t.Amount.Mul(decimal.NewFromInt(quantity))
	c.Lines = append(c.Lines, ChargeLine{
		TariffID:        t.ID,
		ServiceID:       t.ServiceID,
		DurationMinutes: t.Minutes(),
		UnitPrice:       t.Amount,
		Quantity:        quantity,
		Subtotal:        subtotal,
	})
	c.Total = c.Total.Add(subtotal)
}
