// internal/service/abono/domain/subscription_test.go
package domain_test

import (
	"github.com/shopspring/decimal"
	gc "gopkg.in/check.v1"

	"cochera/internal/service/abono/domain"
)

type subscriptionSuite struct{}

var _ = gc.Suite(&subscriptionSuite{})

func (s *subscriptionSuite) TestGeneratePeriodsAreContiguousAndNumbered(c *gc.C) {
	amount := decimal.RequireFromString("1200")
	periods := domain.GeneratePeriods(jan(1), 30, 0, 3, 1, amount)

	c.Assert(periods, gc.HasLen, 3)
	for i, p := range periods {
		c.Check(p.Number, gc.Equals, i+1)
		c.Check(p.Amount.String(), gc.Equals, "1200")
		c.Check(p.Paid, gc.Equals, false)
	}
	// 首尾相接，无缝隙无重叠
	for i := 1; i < len(periods); i++ {
		c.Check(periods[i].StartAt.Equal(periods[i-1].EndAt), gc.Equals, true)
	}
	c.Check(periods[0].StartAt.Equal(jan(1)), gc.Equals, true)
	c.Check(periods[2].EndAt.Equal(jan(1).AddDate(0, 0, 90)), gc.Equals, true)
}

func (s *subscriptionSuite) TestExtensionPeriodsCarryGraceDay(c *gc.C) {
	amount := decimal.RequireFromString("1200")
	opened := domain.GeneratePeriods(jan(1), 30, 0, 1, 1, amount)

	sub := &domain.Subscription{StartAt: jan(1), Periods: opened}
	extension := domain.GeneratePeriods(sub.PeriodsEnd(), 30, 1, 2, sub.LastPeriodNumber()+1, amount)

	c.Assert(extension, gc.HasLen, 2)
	// 续期每期 30+1 天，宽限日是历史口径的一部分
	c.Check(extension[0].Number, gc.Equals, 2)
	c.Check(extension[0].StartAt.Equal(opened[0].EndAt), gc.Equals, true)
	c.Check(extension[0].EndAt.Sub(extension[0].StartAt).Hours(), gc.Equals, float64(31*24))
	c.Check(extension[1].Number, gc.Equals, 3)
	c.Check(extension[1].StartAt.Equal(extension[0].EndAt), gc.Equals, true)
}

func (s *subscriptionSuite) TestFirstPeriodSpanDays(c *gc.C) {
	amount := decimal.RequireFromString("1200")
	sub := &domain.Subscription{
		StartAt: jan(1),
		Periods: domain.GeneratePeriods(jan(1), 30, 0, 2, 1, amount),
	}
	c.Check(sub.FirstPeriodSpanDays(), gc.Equals, 30)
	c.Check((&domain.Subscription{}).FirstPeriodSpanDays(), gc.Equals, 0)
}

func (s *subscriptionSuite) TestFindPeriodsFailsOnUnknownNumber(c *gc.C) {
	amount := decimal.RequireFromString("50")
	sub := &domain.Subscription{Periods: domain.GeneratePeriods(jan(1), 1, 0, 3, 1, amount)}

	found, err := sub.FindPeriods([]int{1, 3})
	c.Assert(err, gc.IsNil)
	c.Assert(found, gc.HasLen, 2)
	c.Check(found[1].Number, gc.Equals, 3)

	_, err = sub.FindPeriods([]int{2, 9})
	c.Check(err, gc.Equals, domain.ErrUnknownPeriod)
}

func (s *subscriptionSuite) TestLastPeriodNumberAndPeriodsEnd(c *gc.C) {
	amount := decimal.RequireFromString("50")
	sub := &domain.Subscription{
		StartAt: jan(1),
		Periods: domain.GeneratePeriods(jan(1), 7, 0, 4, 1, amount),
	}
	c.Check(sub.LastPeriodNumber(), gc.Equals, 4)
	c.Check(sub.PeriodsEnd().Equal(jan(1).AddDate(0, 0, 28)), gc.Equals, true)

	empty := &domain.Subscription{StartAt: jan(1)}
	c.Check(empty.LastPeriodNumber(), gc.Equals, 0)
	c.Check(empty.PeriodsEnd().Equal(jan(1)), gc.Equals, true)
}

type modalitySuite struct{}

var _ = gc.Suite(&modalitySuite{})

func (s *modalitySuite) TestModalityFromDaysThresholds(c *gc.C) {
	cases := []struct {
		days int
		want domain.Modality
		ok   bool
	}{
		{1, domain.ModalityDaily, true},
		{2, "", false},
		{5, "", false},
		{6, domain.ModalityWeekly, true},
		{7, domain.ModalityWeekly, true},
		{8, domain.ModalityWeekly, true},
		{9, "", false},
		{27, "", false},
		{28, domain.ModalityMonthly, true},
		{30, domain.ModalityMonthly, true},
		{31, domain.ModalityMonthly, true},
		{32, "", false},
	}
	for _, tc := range cases {
		got, ok := domain.ModalityFromDays(tc.days)
		c.Check(ok, gc.Equals, tc.ok, gc.Commentf("days=%d", tc.days))
		c.Check(got, gc.Equals, tc.want, gc.Commentf("days=%d", tc.days))
	}
}

func (s *modalitySuite) TestInferModalityToleratesGraceDay(c *gc.C) {
	// 带 1 天宽限的首期：2 天推回日卡，32 天推回月卡
	got, ok := domain.InferModality(2)
	c.Check(ok, gc.Equals, true)
	c.Check(got, gc.Equals, domain.ModalityDaily)

	got, ok = domain.InferModality(32)
	c.Check(ok, gc.Equals, true)
	c.Check(got, gc.Equals, domain.ModalityMonthly)

	_, ok = domain.InferModality(15)
	c.Check(ok, gc.Equals, false)
}

func (s *modalitySuite) TestPeriodDaysPrefersConfiguredDuration(c *gc.C) {
	minutes := 40320 // 28 天
	c.Check(domain.PeriodDays(&minutes, domain.ModalityMonthly), gc.Equals, 28)

	ragged := 40321 // 不满一天向上取整
	c.Check(domain.PeriodDays(&ragged, domain.ModalityMonthly), gc.Equals, 29)

	c.Check(domain.PeriodDays(nil, domain.ModalityWeekly), gc.Equals, 7)
	zero := 0
	c.Check(domain.PeriodDays(&zero, domain.ModalityDaily), gc.Equals, 1)
}
