// internal/service/abono/domain/status.go
package domain

import "time"

// Status 是 abono 对外可见的状态。
// 它从不作为权威状态落库，永远由 ResolveStatus 按当天日期、
// 包期台账和取消标记现场推导。
type Status string

const (
	StatusCurrent   Status = "current"
	StatusOverdue   Status = "overdue"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// ResolveStatus 推导订阅在 today 这天的状态。纯函数、无副作用、
// 幂等，每次读取都重新算，存储里的快照只用于检索。
//
// 判定顺序（前面的规则短路后面的）：
//  1. 已取消 → cancelled，终态；
//  2. today 严格晚于名义到期日：全部结清 → finished，否则 overdue；
//  3. 找到覆盖 today 的包期（起止日都含）：已付 → current，未付 → overdue；
//  4. 没有覆盖包期时，存在结束日早于 today 的未付包期 → overdue；
//  5. today 不晚于已付包期的最晚结束日 → current；
//  6. 其余情况 → overdue。
func ResolveStatus(s *Subscription, today time.Time) Status {
	if s.Cancelled {
		return StatusCancelled
	}

	day := DateOf(today)

	if !s.EndAt.IsZero() && day.After(DateOf(s.EndAt)) {
		if s.AllPaid() {
			return StatusFinished
		}
		return StatusOverdue
	}

	for i := range s.Periods {
		p := &s.Periods[i]
		if p.ContainsDay(day) {
			if p.Paid {
				return StatusCurrent
			}
			return StatusOverdue
		}
	}

	for i := range s.Periods {
		p := &s.Periods[i]
		if !p.Paid && DateOf(p.EndAt).Before(day) {
			return StatusOverdue
		}
	}

	latestPaidEnd := s.StartAt
	hasPaid := false
	for i := range s.Periods {
		p := &s.Periods[i]
		if p.Paid && p.EndAt.After(latestPaidEnd) {
			latestPaidEnd = p.EndAt
			hasPaid = true
		}
	}
	if hasPaid && !day.After(DateOf(latestPaidEnd)) {
		return StatusCurrent
	}

	return StatusOverdue
}
