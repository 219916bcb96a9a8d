// internal/service/abono/application/service_test.go
package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	gc "gopkg.in/check.v1"

	"cochera/internal/service/abono/application"
	"cochera/internal/service/abono/domain"
)

func Test(t *testing.T) {
	gc.TestingT(t)
}

// fakeSubscriptionRepo 是内存版订阅台账，写路径语义与真实仓储一致：
// 重叠即冲突、少更新一行即回滚。
type fakeSubscriptionRepo struct {
	nextID        int64
	nextPaymentNo int64
	subs          map[int64]*domain.Subscription
	statusWrites  []domain.Status
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[int64]*domain.Subscription)}
}

func (f *fakeSubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	for _, existing := range f.subs {
		if existing.Cancelled || existing.FacilityID != s.FacilityID || existing.Spot != s.Spot {
			continue
		}
		if s.StartAt.Before(existing.EndAt) && existing.StartAt.Before(s.EndAt) {
			return domain.ErrBookingConflict
		}
	}
	f.nextID++
	s.ID = f.nextID
	copied := *s
	copied.Periods = append([]domain.Period(nil), s.Periods...)
	f.subs[s.ID] = &copied
	return nil
}

func (f *fakeSubscriptionRepo) Get(ctx context.Context, id int64) (*domain.Subscription, error) {
	stored, ok := f.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	copied := *stored
	copied.Periods = append([]domain.Period(nil), stored.Periods...)
	return &copied, nil
}

func (f *fakeSubscriptionRepo) AppendPeriods(ctx context.Context, s *domain.Subscription, periods []domain.Period, newEnd time.Time) error {
	stored, ok := f.subs[s.ID]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}
	stored.Periods = append(stored.Periods, periods...)
	stored.EndAt = newEnd
	return nil
}

func (f *fakeSubscriptionRepo) SettlePeriods(ctx context.Context, s *domain.Subscription, numbers []int, payment *domain.SettledPayment) error {
	stored, ok := f.subs[s.ID]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}
	byNumber := make(map[int]*domain.Period)
	for i := range stored.Periods {
		byNumber[stored.Periods[i].Number] = &stored.Periods[i]
	}
	for _, n := range numbers {
		p, found := byNumber[n]
		if !found || p.Paid {
			return domain.ErrPeriodAlreadyPaid
		}
	}
	f.nextPaymentNo++
	payment.ID = f.nextPaymentNo
	payment.Number = f.nextPaymentNo
	for _, n := range numbers {
		p := byNumber[n]
		p.Paid = true
		paidAt := payment.PaidAt
		p.PaidAt = &paidAt
		p.PaymentID = &payment.ID
	}
	return nil
}

func (f *fakeSubscriptionRepo) Cancel(ctx context.Context, id int64, at time.Time) error {
	stored, ok := f.subs[id]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}
	if stored.Cancelled {
		return domain.ErrAlreadyCancelled
	}
	stored.Cancelled = true
	return nil
}

func (f *fakeSubscriptionRepo) UpdateCachedStatus(ctx context.Context, id int64, status domain.Status) error {
	stored, ok := f.subs[id]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}
	stored.CachedStatus = status
	f.statusWrites = append(f.statusWrites, status)
	return nil
}

func (f *fakeSubscriptionRepo) AttachVehicle(ctx context.Context, id int64, plate string) error {
	stored, ok := f.subs[id]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}
	for _, existing := range stored.Vehicles {
		if existing == plate {
			return nil
		}
	}
	stored.Vehicles = append(stored.Vehicles, plate)
	return nil
}

type fakeTariffSource struct {
	amount   decimal.Decimal
	duration *int
	missing  bool
}

func (f *fakeTariffSource) UnitTariff(ctx context.Context, facilityID, serviceID, vehicleClassID int64, at time.Time) (decimal.Decimal, *int, error) {
	if f.missing {
		return decimal.Zero, nil, domain.ErrTariffNotConfigured
	}
	return f.amount, f.duration, nil
}

type fakePublisher struct {
	events []interface{}
}

func (f *fakePublisher) Publish(ctx context.Context, key string, event interface{}) error {
	f.events = append(f.events, event)
	return nil
}

type fakeLocker struct{}

func (fakeLocker) WithSpotLock(facilityID int64, spot string, fn func() error) error {
	return fn()
}

type abonoSuite struct {
	repo      *fakeSubscriptionRepo
	tariffs   *fakeTariffSource
	publisher *fakePublisher

	service *application.AbonoService
	clock   time.Time
}

var _ = gc.Suite(&abonoSuite{})

func (s *abonoSuite) SetUpTest(c *gc.C) {
	monthly := 30 * 24 * 60
	s.repo = newFakeSubscriptionRepo()
	s.tariffs = &fakeTariffSource{amount: decimal.RequireFromString("1200"), duration: &monthly}
	s.publisher = &fakePublisher{}
	s.clock = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	s.service = application.NewAbonoService(
		s.repo,
		s.tariffs,
		s.publisher,
		fakeLocker{},
		otel.Tracer("test"),
	).WithClock(func() time.Time { return s.clock })
}

func (s *abonoSuite) open(c *gc.C, spot string, count int) *domain.Subscription {
	sub, err := s.service.OpenSubscription(context.Background(), application.OpenRequest{
		FacilityID: 1, Spot: spot, SubscriberID: 77, ServiceID: 5, VehicleClassID: 1,
		Modality: string(domain.ModalityMonthly), PeriodCount: count,
	})
	c.Assert(err, gc.IsNil)
	return sub
}

func (s *abonoSuite) TestOpenGeneratesContiguousPeriods(c *gc.C) {
	sub := s.open(c, "A-1", 3)

	c.Check(sub.ID, gc.Equals, int64(1))
	c.Assert(sub.Periods, gc.HasLen, 3)
	c.Check(sub.TotalAmount.String(), gc.Equals, "3600")
	c.Check(sub.EndAt.Equal(s.clock.AddDate(0, 0, 90)), gc.Equals, true)
	for i, p := range sub.Periods {
		c.Check(p.Number, gc.Equals, i+1)
		c.Check(p.Paid, gc.Equals, false)
	}
	c.Check(s.publisher.events, gc.HasLen, 1)
}

func (s *abonoSuite) TestOpenWithoutTariffIsRejected(c *gc.C) {
	s.tariffs.missing = true
	_, err := s.service.OpenSubscription(context.Background(), application.OpenRequest{
		FacilityID: 1, Spot: "A-1", PeriodCount: 1, Modality: string(domain.ModalityMonthly),
	})
	c.Check(err, gc.Equals, domain.ErrTariffNotConfigured)
	c.Check(s.repo.subs, gc.HasLen, 0)
}

func (s *abonoSuite) TestOpenRejectsNonPositiveCount(c *gc.C) {
	_, err := s.service.OpenSubscription(context.Background(), application.OpenRequest{
		FacilityID: 1, Spot: "A-1", PeriodCount: 0,
	})
	c.Check(err, gc.Equals, domain.ErrInvalidPeriodCount)
}

func (s *abonoSuite) TestOpenOnBookedSpotConflicts(c *gc.C) {
	s.open(c, "A-1", 2)
	_, err := s.service.OpenSubscription(context.Background(), application.OpenRequest{
		FacilityID: 1, Spot: "A-1", PeriodCount: 1, Modality: string(domain.ModalityMonthly),
	})
	c.Check(err, gc.Equals, domain.ErrBookingConflict)
}

func (s *abonoSuite) TestExtendAppendsNumberedPeriodsWithGrace(c *gc.C) {
	sub := s.open(c, "A-1", 1)

	extended, err := s.service.ExtendSubscription(context.Background(), application.ExtendRequest{
		SubscriptionID: sub.ID, AdditionalPeriods: 2, ServiceID: 5, VehicleClassID: 1,
		Modality: string(domain.ModalityMonthly),
	})
	c.Assert(err, gc.IsNil)

	stored, err := s.repo.Get(context.Background(), extended.ID)
	c.Assert(err, gc.IsNil)
	c.Assert(stored.Periods, gc.HasLen, 3)
	c.Check(stored.Periods[1].Number, gc.Equals, 2)
	c.Check(stored.Periods[2].Number, gc.Equals, 3)
	// 续期每期多送一天宽限
	span := stored.Periods[1].EndAt.Sub(stored.Periods[1].StartAt)
	c.Check(span, gc.Equals, 31*24*time.Hour)
	// 名义到期时间推到最后一个包期的结束
	c.Check(stored.EndAt.Equal(stored.Periods[2].EndAt), gc.Equals, true)
}

func (s *abonoSuite) TestExtendWithDifferentModalityIsRejected(c *gc.C) {
	sub := s.open(c, "A-1", 1)

	daily := 24 * 60
	s.tariffs.duration = &daily
	_, err := s.service.ExtendSubscription(context.Background(), application.ExtendRequest{
		SubscriptionID: sub.ID, AdditionalPeriods: 1, ServiceID: 6, VehicleClassID: 1,
		Modality: string(domain.ModalityDaily),
	})
	c.Check(err, gc.Equals, domain.ErrModalityMismatch)
}

func (s *abonoSuite) TestExtendCancelledSubscriptionFails(c *gc.C) {
	sub := s.open(c, "A-1", 1)
	c.Assert(s.service.CancelSubscription(context.Background(), sub.ID), gc.IsNil)

	_, err := s.service.ExtendSubscription(context.Background(), application.ExtendRequest{
		SubscriptionID: sub.ID, AdditionalPeriods: 1, ServiceID: 5, VehicleClassID: 1,
		Modality: string(domain.ModalityMonthly),
	})
	c.Check(err, gc.Equals, domain.ErrAlreadyCancelled)
}

func (s *abonoSuite) TestSettleMarksPeriodsAndSumsAmount(c *gc.C) {
	sub := s.open(c, "A-1", 3)

	resp, err := s.service.SettlePeriods(context.Background(), application.SettleRequest{
		SubscriptionID: sub.ID, PeriodNumbers: []int{1, 2}, MethodID: 2, StaffID: 9,
	})
	c.Assert(err, gc.IsNil)
	c.Check(resp.Amount.String(), gc.Equals, "2400")
	c.Check(resp.PaymentNumber, gc.Equals, int64(1))

	stored, err := s.repo.Get(context.Background(), sub.ID)
	c.Assert(err, gc.IsNil)
	c.Check(stored.Periods[0].Paid, gc.Equals, true)
	c.Check(stored.Periods[1].Paid, gc.Equals, true)
	c.Check(stored.Periods[2].Paid, gc.Equals, false)
}

func (s *abonoSuite) TestSettleUnknownPeriodFailsWhole(c *gc.C) {
	sub := s.open(c, "A-1", 2)

	_, err := s.service.SettlePeriods(context.Background(), application.SettleRequest{
		SubscriptionID: sub.ID, PeriodNumbers: []int{2, 5},
	})
	c.Check(err, gc.Equals, domain.ErrUnknownPeriod)

	stored, _ := s.repo.Get(context.Background(), sub.ID)
	c.Check(stored.Periods[1].Paid, gc.Equals, false)
}

func (s *abonoSuite) TestSettleAlreadyPaidPeriodFails(c *gc.C) {
	sub := s.open(c, "A-1", 2)
	_, err := s.service.SettlePeriods(context.Background(), application.SettleRequest{
		SubscriptionID: sub.ID, PeriodNumbers: []int{1},
	})
	c.Assert(err, gc.IsNil)

	_, err = s.service.SettlePeriods(context.Background(), application.SettleRequest{
		SubscriptionID: sub.ID, PeriodNumbers: []int{1, 2},
	})
	c.Check(err, gc.Equals, domain.ErrPeriodAlreadyPaid)
}

func (s *abonoSuite) TestGetResolvesStatusAndRefreshesSnapshot(c *gc.C) {
	sub := s.open(c, "A-1", 1)
	// 开卡时快照是 overdue（首期未付），结清后读取应刷新为 current
	_, err := s.service.SettlePeriods(context.Background(), application.SettleRequest{
		SubscriptionID: sub.ID, PeriodNumbers: []int{1},
	})
	c.Assert(err, gc.IsNil)

	got, err := s.service.GetSubscription(context.Background(), sub.ID)
	c.Assert(err, gc.IsNil)
	c.Check(got.CachedStatus, gc.Equals, domain.StatusCurrent)
	c.Check(s.repo.statusWrites, gc.HasLen, 1)
	c.Check(s.repo.statusWrites[0], gc.Equals, domain.StatusCurrent)
}

func (s *abonoSuite) TestCancelIsTerminal(c *gc.C) {
	sub := s.open(c, "A-1", 1)
	c.Assert(s.service.CancelSubscription(context.Background(), sub.ID), gc.IsNil)
	c.Check(s.service.CancelSubscription(context.Background(), sub.ID), gc.Equals, domain.ErrAlreadyCancelled)

	got, err := s.service.GetSubscription(context.Background(), sub.ID)
	c.Assert(err, gc.IsNil)
	c.Check(got.CachedStatus, gc.Equals, domain.StatusCancelled)
}

func (s *abonoSuite) TestCancelFreesSpotForNewSubscription(c *gc.C) {
	sub := s.open(c, "A-1", 1)
	c.Assert(s.service.CancelSubscription(context.Background(), sub.ID), gc.IsNil)
	s.open(c, "A-1", 1)
}

func (s *abonoSuite) TestAttachVehicle(c *gc.C) {
	sub := s.open(c, "A-1", 1)
	c.Assert(s.service.AttachVehicle(context.Background(), sub.ID, "ABC123"), gc.IsNil)

	got, err := s.service.GetSubscription(context.Background(), sub.ID)
	c.Assert(err, gc.IsNil)
	c.Check(got.Vehicles, gc.DeepEquals, []string{"ABC123"})

	c.Check(s.service.AttachVehicle(context.Background(), int64(404), "ABC123"),
		gc.Equals, domain.ErrSubscriptionNotFound)
}

func (s *abonoSuite) TestUnknownSubscriptionIsNotFound(c *gc.C) {
	_, err := s.service.GetSubscription(context.Background(), 42)
	c.Check(err, gc.Equals, domain.ErrSubscriptionNotFound)

	for _, call := range []func() error{
		func() error {
			_, err := s.service.ExtendSubscription(context.Background(), application.ExtendRequest{
				SubscriptionID: 42, AdditionalPeriods: 1, Modality: string(domain.ModalityMonthly),
			})
			return err
		},
		func() error {
			_, err := s.service.SettlePeriods(context.Background(), application.SettleRequest{
				SubscriptionID: 42, PeriodNumbers: []int{1},
			})
			return err
		},
		func() error { return s.service.CancelSubscription(context.Background(), 42) },
	} {
		c.Check(call(), gc.Equals, domain.ErrSubscriptionNotFound)
	}
}
