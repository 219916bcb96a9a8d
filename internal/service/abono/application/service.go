// internal/service/abono/application/service.go
package application

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cochera/internal/pkg/logger"
	"cochera/internal/service/abono/domain"
)

// AbonoService 汇集 abono 的所有用例：开卡、续期、结清、取消和查询。
type AbonoService struct {
	subscriptions domain.SubscriptionRepository
	tariffs       domain.TariffSource
	publisher     domain.EventPublisher
	locker        domain.SpotLocker
	tracer        trace.Tracer

	// now 可注入，测试里用固定时钟
	now func() time.Time
}

// NewAbonoService 组装订阅服务。
func NewAbonoService(
	subscriptions domain.SubscriptionRepository,
	tariffs domain.TariffSource,
	publisher domain.EventPublisher,
	locker domain.SpotLocker,
	tracer trace.Tracer,
) *AbonoService {
	return &AbonoService{
		subscriptions: subscriptions,
		tariffs:       tariffs,
		publisher:     publisher,
		locker:        locker,
		tracer:        tracer,
		now:           time.Now,
	}
}

// WithClock 替换时钟，仅测试使用。
func (s *AbonoService) WithClock(now func() time.Time) *AbonoService {
	s.now = now
	return s
}

// OpenSubscription 开一个新 abono：查现行单价、生成连续包期、
// 在车位锁和数据库事务的双重保护下落库。
// 没有现行价格时直接拒绝，订阅永远不能以未知价格创建。
func (s *AbonoService) OpenSubscription(ctx context.Context, req OpenRequest) (*domain.Subscription, error) {
	ctx, span := s.tracer.Start(ctx, "abono.OpenSubscription")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("facility.id", req.FacilityID),
		attribute.String("spot", req.Spot),
		attribute.Int("period.count", req.PeriodCount),
	)

	if req.PeriodCount <= 0 {
		return nil, domain.ErrInvalidPeriodCount
	}

	startAt := s.now()
	if req.StartAt != nil {
		startAt = *req.StartAt
	}

	amount, duration, err := s.tariffs.UnitTariff(ctx, req.FacilityID, req.ServiceID, req.VehicleClassID, startAt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	days := domain.PeriodDays(duration, domain.Modality(req.Modality))
	periods := domain.GeneratePeriods(startAt, days, 0, req.PeriodCount, 1, amount)

	sub := &domain.Subscription{
		FacilityID:   req.FacilityID,
		Spot:         req.Spot,
		SubscriberID: req.SubscriberID,
		ServiceID:    req.ServiceID,
		StartAt:      startAt,
		EndAt:        startAt.AddDate(0, 0, days*req.PeriodCount),
		TotalAmount:  amount.Mul(decimal.NewFromInt(int64(req.PeriodCount))),
		Periods:      periods,
		Vehicles:     req.Vehicles,
	}
	sub.CachedStatus = domain.ResolveStatus(sub, s.now())

	err = s.locker.WithSpotLock(req.FacilityID, req.Spot, func() error {
		return s.subscriptions.Create(ctx, sub)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.publish(ctx, sub.FacilityID, &domain.SubscriptionOpened{
		EventID:        domain.NewEventID(),
		SubscriptionID: sub.ID,
		FacilityID:     sub.FacilityID,
		Spot:           sub.Spot,
		PeriodCount:    req.PeriodCount,
		StartAt:        sub.StartAt,
		EndAt:          sub.EndAt,
		TotalAmount:    sub.TotalAmount,
	})
	logger.Ctx(ctx).Info().
		Int64("subscription_id", sub.ID).
		Int("periods", req.PeriodCount).
		Msg("subscription opened")
	return sub, nil
}

// ExtendSubscription 给 abono 追加包期。续期服务的包期模式必须与
// 原订阅一致（从首期实际跨度反推，容差一天），否则提示新开订阅。
// 续期的每个包期比名义时长多送一天宽限，这是历史口径，原样保留。
func (s *AbonoService) ExtendSubscription(ctx context.Context, req ExtendRequest) (*domain.Subscription, error) {
	ctx, span := s.tracer.Start(ctx, "abono.ExtendSubscription")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("subscription.id", req.SubscriptionID),
		attribute.Int("period.count", req.AdditionalPeriods),
	)

	if req.AdditionalPeriods <= 0 {
		return nil, domain.ErrInvalidPeriodCount
	}

	sub, err := s.subscriptions.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Cancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	subModality, ok := domain.InferModality(sub.FirstPeriodSpanDays())
	if !ok {
		return nil, domain.ErrModalityMismatch
	}

	amount, duration, err := s.tariffs.UnitTariff(ctx, sub.FacilityID, req.ServiceID, req.VehicleClassID, s.now())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	days := domain.PeriodDays(duration, domain.Modality(req.Modality))
	extModality, ok := domain.ModalityFromDays(days)
	if !ok || extModality != subModality {
		return nil, domain.ErrModalityMismatch
	}

	periods := domain.GeneratePeriods(sub.PeriodsEnd(), days, 1, req.AdditionalPeriods, sub.LastPeriodNumber()+1, amount)
	newEnd := periods[len(periods)-1].EndAt

	err = s.locker.WithSpotLock(sub.FacilityID, sub.Spot, func() error {
		return s.subscriptions.AppendPeriods(ctx, sub, periods, newEnd)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	numbers := make([]int, 0, len(periods))
	for _, p := range periods {
		numbers = append(numbers, p.Number)
	}
	s.publish(ctx, sub.FacilityID, &domain.SubscriptionExtended{
		EventID:        domain.NewEventID(),
		SubscriptionID: sub.ID,
		NewPeriods:     numbers,
		NewEndAt:       newEnd,
	})
	return sub, nil
}

// SettlePeriods 结清指定包期：一笔支付覆盖所选包期金额之和，
// 单个包期不允许部分支付。引用不存在的包期号整体拒绝。
func (s *AbonoService) SettlePeriods(ctx context.Context, req SettleRequest) (*SettleResponse, error) {
	ctx, span := s.tracer.Start(ctx, "abono.SettlePeriods")
	defer span.End()
	span.SetAttributes(attribute.Int64("subscription.id", req.SubscriptionID))

	sub, err := s.subscriptions.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	periods, err := sub.FindPeriods(req.PeriodNumbers)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, p := range periods {
		if p.Paid {
			return nil, domain.ErrPeriodAlreadyPaid
		}
		total = total.Add(p.Amount)
	}

	payment := &domain.SettledPayment{
		Amount:   total,
		MethodID: req.MethodID,
		StaffID:  req.StaffID,
		PaidAt:   s.now(),
	}
	if err := s.subscriptions.SettlePeriods(ctx, sub, req.PeriodNumbers, payment); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.publish(ctx, sub.FacilityID, &domain.PeriodsSettled{
		EventID:        domain.NewEventID(),
		SubscriptionID: sub.ID,
		PeriodNumbers:  req.PeriodNumbers,
		PaymentNumber:  payment.Number,
		Amount:         total,
	})
	return &SettleResponse{
		PaymentNumber: payment.Number,
		Amount:        total,
		PeriodNumbers: req.PeriodNumbers,
	}, nil
}

// GetSubscription 读取订阅并现场推导状态。
// 推导结果顺手刷回快照列供检索画面过滤，但返回值永远是现算的。
func (s *AbonoService) GetSubscription(ctx context.Context, id int64) (*domain.Subscription, error) {
	ctx, span := s.tracer.Start(ctx, "abono.GetSubscription")
	defer span.End()

	sub, err := s.subscriptions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	status := domain.ResolveStatus(sub, s.now())
	if status != sub.CachedStatus {
		if err := s.subscriptions.UpdateCachedStatus(ctx, id, status); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int64("subscription_id", id).Msg("failed to refresh status snapshot")
		}
	}
	sub.CachedStatus = status
	return sub, nil
}

// CancelSubscription 取消订阅：置终态标记、停止生成新包期、
// 冻结名义到期时间。既有包期一律保留。
func (s *AbonoService) CancelSubscription(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "abono.CancelSubscription")
	defer span.End()

	sub, err := s.subscriptions.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.Cancelled {
		return domain.ErrAlreadyCancelled
	}

	cancelledAt := s.now()
	if err := s.subscriptions.Cancel(ctx, id, cancelledAt); err != nil {
		span.RecordError(err)
		return err
	}

	s.publish(ctx, sub.FacilityID, &domain.SubscriptionCancelled{
		EventID:        domain.NewEventID(),
		SubscriptionID: id,
		CancelledAt:    cancelledAt,
	})
	return nil
}

// AttachVehicle 把车牌挂到订阅的关联车辆集合。
func (s *AbonoService) AttachVehicle(ctx context.Context, id int64, plate string) error {
	ctx, span := s.tracer.Start(ctx, "abono.AttachVehicle")
	defer span.End()

	if _, err := s.subscriptions.Get(ctx, id); err != nil {
		return err
	}
	return s.subscriptions.AttachVehicle(ctx, id, plate)
}

func (s *AbonoService) publish(ctx context.Context, facilityID int64, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, strconv.FormatInt(facilityID, 10), event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to publish abono event")
	}
}
