// internal/service/billing/domain/tariff_test.go
package domain_test

import (
	"time"

	"github.com/shopspring/decimal"
	gc "gopkg.in/check.v1"

	"cochera/internal/service/billing/domain"
)

type tariffSuite struct{}

var _ = gc.Suite(&tariffSuite{})

func windowTariff(id int64, from time.Time, to *time.Time) domain.Tariff {
	return domain.Tariff{
		ID:             id,
		FacilityID:     1,
		ServiceID:      7,
		VehicleClassID: 1,
		Kind:           domain.KindAbono,
		Amount:         decimal.RequireFromString("500"),
		ValidFrom:      from,
		ValidTo:        to,
	}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func (s *tariffSuite) TestCoversOpenWindow(c *gc.C) {
	t := windowTariff(1, day(1), nil)
	c.Check(t.Covers(day(10), day(10)), gc.Equals, true)
	c.Check(t.Covers(day(1), day(1)), gc.Equals, true)
}

func (s *tariffSuite) TestCoversRejectsWindowOutsideRange(c *gc.C) {
	end := day(5)
	t := windowTariff(1, day(1), &end)
	// 窗口在区间开始之前结束
	c.Check(t.Covers(day(6), day(6)), gc.Equals, false)
	// 窗口在区间结束之后才开始
	later := windowTariff(2, day(20), nil)
	c.Check(later.Covers(day(10), day(12)), gc.Equals, false)
}

func (s *tariffSuite) TestCoversPartialOverlapIsEnough(c *gc.C) {
	end := day(5)
	t := windowTariff(1, day(1), &end)
	c.Check(t.Covers(day(4), day(10)), gc.Equals, true)
}

func (s *tariffSuite) TestSelectCurrentPicksLatestValidFrom(c *gc.C) {
	closed := day(10)
	tariffs := []domain.Tariff{
		windowTariff(1, day(1), &closed),
		windowTariff(2, day(10), nil),
	}
	got := domain.SelectCurrent(tariffs, day(15), day(15))
	c.Assert(got, gc.NotNil)
	c.Check(got.ID, gc.Equals, int64(2))
}

func (s *tariffSuite) TestSelectCurrentTieGoesToLaterRecord(c *gc.C) {
	tariffs := []domain.Tariff{
		windowTariff(1, day(1), nil),
		windowTariff(2, day(1), nil),
	}
	got := domain.SelectCurrent(tariffs, day(5), day(5))
	c.Assert(got, gc.NotNil)
	c.Check(got.ID, gc.Equals, int64(2))
}

func (s *tariffSuite) TestSelectCurrentNoMatchReturnsNil(c *gc.C) {
	end := day(3)
	tariffs := []domain.Tariff{windowTariff(1, day(1), &end)}
	c.Check(domain.SelectCurrent(tariffs, day(10), day(10)), gc.IsNil)
}

func (s *tariffSuite) TestSelectCurrentHistoricalLookup(c *gc.C) {
	// 历史区间命中已关闭的窗口，保证老账单可回溯定价。
	closed := day(10)
	tariffs := []domain.Tariff{
		windowTariff(1, day(1), &closed),
		windowTariff(2, day(10), nil),
	}
	got := domain.SelectCurrent(tariffs, day(5), day(8))
	c.Assert(got, gc.NotNil)
	c.Check(got.ID, gc.Equals, int64(1))
}
