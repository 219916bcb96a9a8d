// internal/service/billing/domain/stay_test.go
package domain_test

import (
	"time"

	"github.com/shopspring/decimal"
	gc "gopkg.in/check.v1"

	"cochera/internal/service/billing/domain"
)

type staySuite struct {
	entry time.Time
}

var _ = gc.Suite(&staySuite{})

func (s *staySuite) SetUpTest(c *gc.C) {
	s.entry = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
}

func minutesTariff(id int64, minutes int, amount string) domain.Tariff {
	m := minutes
	return domain.Tariff{
		ID:              id,
		FacilityID:      1,
		ServiceID:       id,
		VehicleClassID:  1,
		Kind:            domain.KindParking,
		Amount:          decimal.RequireFromString(amount),
		ValidFrom:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationMinutes: &m,
	}
}

// 标准三档资费：fracción 100、hora 150、día 1000。
func (s *staySuite) standardTariffs() []domain.Tariff {
	return []domain.Tariff{
		minutesTariff(1, 30, "100"),
		minutesTariff(2, 60, "150"),
		minutesTariff(3, 1440, "1000"),
	}
}

func (s *staySuite) compute(c *gc.C, minutes int, tariffs []domain.Tariff) *domain.StayCharge {
	charge, err := domain.ComputeStayCharge(s.entry, s.entry.Add(time.Duration(minutes)*time.Minute), tariffs)
	c.Assert(err, gc.IsNil)
	return charge
}

func (s *staySuite) TestShortStayChargesOneFraccion(c *gc.C) {
	charge := s.compute(c, 25, s.standardTariffs())
	c.Assert(charge.Lines, gc.HasLen, 1)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(1))
	c.Check(charge.Lines[0].Quantity, gc.Equals, int64(1))
	c.Check(charge.Total.String(), gc.Equals, "100")
}

func (s *staySuite) TestExactlyThirtyMinutesIsStillFraccion(c *gc.C) {
	charge := s.compute(c, 30, s.standardTariffs())
	c.Assert(charge.Lines, gc.HasLen, 1)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(1))
	c.Check(charge.Total.String(), gc.Equals, "100")
}

func (s *staySuite) TestThirtyOneMinutesChargesOneHora(c *gc.C) {
	charge := s.compute(c, 31, s.standardTariffs())
	c.Assert(charge.Lines, gc.HasLen, 1)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(2))
	c.Check(charge.Total.String(), gc.Equals, "150")
}

func (s *staySuite) TestShortStayWithoutFraccionFallsToHora(c *gc.C) {
	tariffs := []domain.Tariff{
		minutesTariff(2, 60, "150"),
		minutesTariff(3, 1440, "1000"),
	}
	charge := s.compute(c, 20, tariffs)
	c.Assert(charge.Lines, gc.HasLen, 1)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(2))
	c.Check(charge.Total.String(), gc.Equals, "150")
}

func (s *staySuite) TestRemainderOverThirtyRoundsUpToHoras(c *gc.C) {
	// 100 分钟超出短时特例，día 装不下，余数 100 按 ceil(100/60)=2 小时收。
	charge := s.compute(c, 100, s.standardTariffs())
	c.Assert(charge.Lines, gc.HasLen, 1)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(2))
	c.Check(charge.Lines[0].Quantity, gc.Equals, int64(2))
	c.Check(charge.Total.String(), gc.Equals, "300")
}

func (s *staySuite) TestFullDayChargesOneDia(c *gc.C) {
	charge := s.compute(c, 1440, s.standardTariffs())
	c.Assert(charge.Lines, gc.HasLen, 1)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(3))
	c.Check(charge.Total.String(), gc.Equals, "1000")
}

func (s *staySuite) TestDayPlusShortRemainderAddsFraccion(c *gc.C) {
	charge := s.compute(c, 1465, s.standardTariffs())
	c.Assert(charge.Lines, gc.HasLen, 2)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(3))
	c.Check(charge.Lines[1].TariffID, gc.Equals, int64(1))
	c.Check(charge.Total.String(), gc.Equals, "1100")
}

func (s *staySuite) TestDayPlusLongRemainderAddsHora(c *gc.C) {
	charge := s.compute(c, 1500, s.standardTariffs())
	c.Assert(charge.Lines, gc.HasLen, 2)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(3))
	c.Check(charge.Lines[1].TariffID, gc.Equals, int64(2))
	c.Check(charge.Lines[1].Quantity, gc.Equals, int64(1))
	c.Check(charge.Total.String(), gc.Equals, "1150")
}

func (s *staySuite) TestRemainderWithoutShortUnitsStaysUnbilled(c *gc.C) {
	// 只配了 día 时贪心后的余数不计费，这是归档的历史口径。
	tariffs := []domain.Tariff{minutesTariff(3, 1440, "1000")}
	charge := s.compute(c, 1500, tariffs)
	c.Assert(charge.Lines, gc.HasLen, 1)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(3))
	c.Check(charge.Total.String(), gc.Equals, "1000")
}

func (s *staySuite) TestGreedyPrefersLongestUnitFirst(c *gc.C) {
	tariffs := []domain.Tariff{
		minutesTariff(1, 30, "100"),
		minutesTariff(2, 60, "150"),
		minutesTariff(3, 1440, "1000"),
		minutesTariff(4, 720, "600"),
	}
	// 2 días + 1 media jornada + 1 hora = 2000 + 600 + 150
	charge := s.compute(c, 2*1440+720+45, tariffs)
	c.Assert(charge.Lines, gc.HasLen, 3)
	c.Check(charge.Lines[0].TariffID, gc.Equals, int64(3))
	c.Check(charge.Lines[0].Quantity, gc.Equals, int64(2))
	c.Check(charge.Lines[1].TariffID, gc.Equals, int64(4))
	c.Check(charge.Lines[2].TariffID, gc.Equals, int64(2))
	c.Check(charge.Total.String(), gc.Equals, "2750")
}

func (s *staySuite) TestGreedyMatchesReferenceFormula(c *gc.C) {
	tariffs := s.standardTariffs()
	for minutes := 61; minutes <= 4000; minutes += 37 {
		charge := s.compute(c, minutes, tariffs)

		days := int64(minutes) / 1440
		rem := int64(minutes) % 1440
		expected := decimal.NewFromInt(days * 1000)
		switch {
		case rem == 0:
		case rem <= 30:
			expected = expected.Add(decimal.NewFromInt(100))
		default:
			horas := (rem + 59) / 60
			expected = expected.Add(decimal.NewFromInt(horas * 150))
		}
		c.Check(charge.Total.String(), gc.Equals, expected.String(),
			gc.Commentf("minutes=%d", minutes))
	}
}

func (s *staySuite) TestZeroOrNegativeIntervalIsRejected(c *gc.C) {
	_, err := domain.ComputeStayCharge(s.entry, s.entry, s.standardTariffs())
	c.Check(err, gc.Equals, domain.ErrInvalidInterval)

	_, err = domain.ComputeStayCharge(s.entry, s.entry.Add(-time.Minute), s.standardTariffs())
	c.Check(err, gc.Equals, domain.ErrInvalidInterval)
}

func (s *staySuite) TestSubMinuteStayIsRejected(c *gc.C) {
	// 不足一分钟向下取整后为零，按无效区间处理。
	_, err := domain.ComputeStayCharge(s.entry, s.entry.Add(30*time.Second), s.standardTariffs())
	c.Check(err, gc.Equals, domain.ErrInvalidInterval)
}

func (s *staySuite) TestNoTariffsYieldsEmptyCharge(c *gc.C) {
	charge := s.compute(c, 90, nil)
	c.Check(charge.Lines, gc.HasLen, 0)
	c.Check(charge.Total.IsZero(), gc.Equals, true)
}
