// internal/service/abono/domain/subscription.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period 是 abono 的一个计费包期。包期号从 1 开始连续递增，
// 时间上首尾相接；创建后只允许翻转支付状态并挂接支付，
// 永不重排或单独删除。
type Period struct {
	ID        int64
	Number    int
	StartAt   time.Time
	EndAt     time.Time
	Amount    decimal.Decimal
	Paid      bool
	PaidAt    *time.Time
	PaymentID *int64
}

// ContainsDay 判断某天是否落在包期内（起止日都含）。
func (p *Period) ContainsDay(day time.Time) bool {
	d := DateOf(day)
	return !d.Before(DateOf(p.StartAt)) && !d.After(DateOf(p.EndAt))
}

// Subscription 是一个车位的预付包期订阅（abono）。
// CachedStatus 只是给检索画面用的非规范化快照，
// 业务判断永远走 ResolveStatus 重新推导。
type Subscription struct {
	ID           int64
	FacilityID   int64
	Spot         string
	SubscriberID int64
	ServiceID    int64
	StartAt      time.Time
	// EndAt 是名义到期时间；取消后冻结，不再随续期推移。
	EndAt        time.Time
	TotalAmount  decimal.Decimal
	Cancelled    bool
	CachedStatus Status
	Periods      []Period
	Vehicles     []string
	PaymentID    *int64
}

// GeneratePeriods 从 start 起生成 count 个连续包期，
// 每期 days+graceDays 天、单价 amount，编号从 firstNumber 开始。
// 开卡时 graceDays 为 0；续期时每期多送一天宽限，
// 这一天是历史口径的一部分，必须原样保留。
func GeneratePeriods(start time.Time, days, graceDays, count, firstNumber int, amount decimal.Decimal) []Period {
	periods := make([]Period, 0, count)
	cursor := start
	for i := 0; i < count; i++ {
		end := cursor.AddDate(0, 0, days+graceDays)
		periods = append(periods, Period{
			Number:  firstNumber + i,
			StartAt: cursor,
			EndAt:   end,
			Amount:  amount,
		})
		cursor = end
	}
	return periods
}

// LastPeriodNumber 返回当前最大的包期号，没有包期时为 0。
func (s *Subscription) LastPeriodNumber() int {
	max := 0
	for i := range s.Periods {
		if s.Periods[i].Number > max {
			max = s.Periods[i].Number
		}
	}
	return max
}

// PeriodsEnd 返回最后一个包期的结束时间。
func (s *Subscription) PeriodsEnd() time.Time {
	end := s.StartAt
	for i := range s.Periods {
		if s.Periods[i].EndAt.After(end) {
			end = s.Periods[i].EndAt
		}
	}
	return end
}

// FirstPeriodSpanDays 返回首期的实际跨度天数，用于反推包期模式。
func (s *Subscription) FirstPeriodSpanDays() int {
	for i := range s.Periods {
		if s.Periods[i].Number == 1 {
			return int(s.Periods[i].EndAt.Sub(s.Periods[i].StartAt).Hours() / 24)
		}
	}
	return 0
}

// FindPeriods 按包期号取出包期，任何一个号不存在即整体失败。
func (s *Subscription) FindPeriods(numbers []int) ([]*Period, error) {
	byNumber := make(map[int]*Period, len(s.Periods))
	for i := range s.Periods {
		byNumber[s.Periods[i].Number] = &s.Periods[i]
	}
	found := make([]*Period, 0, len(numbers))
	for _, n := range numbers {
		p, ok := byNumber[n]
		if !ok {
			return nil, ErrUnknownPeriod
		}
		found = append(found, p)
	}
	return found, nil
}

// AllPaid 判断是否所有包期都已结清。
func (s *Subscription) AllPaid() bool {
	for i := range s.Periods {
		if !s.Periods[i].Paid {
			return false
		}
	}
	return true
}

// DateOf 把时间截断到当天零点，状态推导一律按日比较。
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
