// internal/service/abono/domain/status_test.go
package domain_test

import (
	"time"

	"github.com/shopspring/decimal"
	gc "gopkg.in/check.v1"

	"cochera/internal/service/abono/domain"
)

type statusSuite struct{}

var _ = gc.Suite(&statusSuite{})

func jan(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// dailySubscription 是 2024-01-01 开卡、3 个日卡包期的订阅。
func dailySubscription() *domain.Subscription {
	amount := decimal.RequireFromString("50")
	return &domain.Subscription{
		ID:         1,
		FacilityID: 1,
		Spot:       "A-12",
		StartAt:    jan(1),
		EndAt:      jan(4),
		Periods:    domain.GeneratePeriods(jan(1), 1, 0, 3, 1, amount),
	}
}

func (s *statusSuite) TestUnpaidCoveringPeriodIsOverdue(c *gc.C) {
	sub := dailySubscription()
	c.Check(domain.ResolveStatus(sub, jan(1)), gc.Equals, domain.StatusOverdue)
}

func (s *statusSuite) TestPaidCoveringPeriodIsCurrent(c *gc.C) {
	sub := dailySubscription()
	sub.Periods[0].Paid = true
	c.Check(domain.ResolveStatus(sub, jan(1)), gc.Equals, domain.StatusCurrent)
}

func (s *statusSuite) TestSettlingFlipsOverdueToCurrent(c *gc.C) {
	sub := dailySubscription()
	sub.Periods[0].Paid = true
	// 第二天落在 2 号包期，未结清时逾期，结清后恢复
	today := jan(3)
	c.Check(domain.ResolveStatus(sub, today), gc.Equals, domain.StatusOverdue)
	sub.Periods[1].Paid = true
	sub.Periods[2].Paid = true
	c.Check(domain.ResolveStatus(sub, today), gc.Equals, domain.StatusCurrent)
}

func (s *statusSuite) TestAfterNominalEndAllPaidIsFinished(c *gc.C) {
	sub := dailySubscription()
	for i := range sub.Periods {
		sub.Periods[i].Paid = true
	}
	c.Check(domain.ResolveStatus(sub, jan(5)), gc.Equals, domain.StatusFinished)
}

func (s *statusSuite) TestAfterNominalEndWithDebtIsOverdue(c *gc.C) {
	sub := dailySubscription()
	sub.Periods[0].Paid = true
	sub.Periods[1].Paid = true
	c.Check(domain.ResolveStatus(sub, jan(5)), gc.Equals, domain.StatusOverdue)
}

func (s *statusSuite) TestCancelledWinsOverEverything(c *gc.C) {
	sub := dailySubscription()
	for i := range sub.Periods {
		sub.Periods[i].Paid = true
	}
	sub.Cancelled = true
	// 取消是终态，过去、当期、到期后都一样
	for _, today := range []time.Time{jan(1), jan(3), jan(20)} {
		c.Check(domain.ResolveStatus(sub, today), gc.Equals, domain.StatusCancelled)
	}
}

func (s *statusSuite) TestExpiredUnpaidPeriodBeforeTodayIsOverdue(c *gc.C) {
	amount := decimal.RequireFromString("50")
	sub := &domain.Subscription{
		ID:      2,
		StartAt: jan(1),
		EndAt:   jan(10),
		Periods: domain.GeneratePeriods(jan(1), 1, 0, 1, 1, amount),
	}
	// 唯一包期 1 月 2 日结束且未付，1 月 3 日没有覆盖包期
	c.Check(domain.ResolveStatus(sub, jan(3)), gc.Equals, domain.StatusOverdue)
}

func (s *statusSuite) TestNoCoverageNoDebtDefaultsToOverdue(c *gc.C) {
	sub := &domain.Subscription{ID: 3, StartAt: jan(1), EndAt: jan(10)}
	c.Check(domain.ResolveStatus(sub, jan(5)), gc.Equals, domain.StatusOverdue)
}

func (s *statusSuite) TestDayLevelComparisonIgnoresTimeOfDay(c *gc.C) {
	sub := dailySubscription()
	sub.Periods[0].Paid = true
	lateEvening := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	c.Check(domain.ResolveStatus(sub, lateEvening), gc.Equals, domain.StatusCurrent)
}

func (s *statusSuite) TestResolveIsIdempotent(c *gc.C) {
	sub := dailySubscription()
	sub.Periods[0].Paid = true
	first := domain.ResolveStatus(sub, jan(2))
	for i := 0; i < 5; i++ {
		c.Check(domain.ResolveStatus(sub, jan(2)), gc.Equals, first)
	}
}
