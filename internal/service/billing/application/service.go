// internal/service/billing/application/service.go
package application

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cochera/internal/pkg/logger"
	"cochera/internal/service/billing/domain"
)

// BillingService 汇集临时停车计费的所有用例：
// 入场登记、出场结算、费用试算和资费目录维护。
type BillingService struct {
	tariffs     domain.TariffRepository
	occupancies domain.OccupancyRepository
	payments    domain.PaymentRepository
	vehicles    domain.VehicleRegistry
	publisher   domain.EventPublisher
	locker      domain.SpotLocker
	tracer      trace.Tracer

	// now 可注入，测试里用固定时钟
	now func() time.Time
	// minPayment 以下的金额不生成支付记录
	minPayment decimal.Decimal
}

// NewBillingService 组装计费服务。
func NewBillingService(
	tariffs domain.TariffRepository,
	occupancies domain.OccupancyRepository,
	payments domain.PaymentRepository,
	vehicles domain.VehicleRegistry,
	publisher domain.EventPublisher,
	locker domain.SpotLocker,
	tracer trace.Tracer,
	minPayment decimal.Decimal,
) *BillingService {
	return &BillingService{
		tariffs:     tariffs,
		occupancies: occupancies,
		payments:    payments,
		vehicles:    vehicles,
		publisher:   publisher,
		locker:      locker,
		tracer:      tracer,
		now:         time.Now,
		minPayment:  minPayment,
	}
}

// WithClock 替换时钟，仅测试使用。
func (s *BillingService) WithClock(now func() time.Time) *BillingService {
	s.now = now
	return s
}

// RegisterEntry 登记车辆入场。先拿车位分布式锁，再在数据库事务里
// 做"无进行中停车"校验并插入，双保险防止并发双重占用。
func (s *BillingService) RegisterEntry(ctx context.Context, req EntryRequest) (*domain.Occupancy, error) {
	ctx, span := s.tracer.Start(ctx, "billing.RegisterEntry")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("facility.id", req.FacilityID),
		attribute.String("spot", req.Spot),
		attribute.String("plate", req.Plate),
	)

	entryAt := s.now()
	if req.EntryAt != nil {
		entryAt = *req.EntryAt
	}
	occ := domain.NewOccupancy(req.FacilityID, req.Spot, req.Plate, entryAt)

	err := s.locker.WithSpotLock(req.FacilityID, req.Spot, func() error {
		return s.occupancies.CreateIfFree(ctx, occ)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.publish(ctx, req.FacilityID, &domain.VehicleEntered{
		EventID:    domain.NewEventID(),
		FacilityID: req.FacilityID,
		Spot:       req.Spot,
		Plate:      req.Plate,
		EntryAt:    entryAt,
	})
	return occ, nil
}

// RegisterEgress 执行出场结算：关闭停车记录、计算费用、落支付，
// 三者在仓储层的一个事务里提交；任何一步失败车位保持占用。
func (s *BillingService) RegisterEgress(ctx context.Context, req EgressRequest) (*EgressResponse, error) {
	ctx, span := s.tracer.Start(ctx, "billing.RegisterEgress")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("facility.id", req.FacilityID),
		attribute.String("spot", req.Spot),
	)

	occ, err := s.occupancies.FindActive(ctx, req.FacilityID, req.Spot)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	exitAt := s.now()
	if req.ExitAt != nil {
		exitAt = *req.ExitAt
	}
	if err := occ.Close(exitAt); err != nil {
		span.RecordError(err)
		return nil, err
	}

	charge, err := s.computeCharge(ctx, occ, exitAt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var payment *domain.Payment
	candidate := &domain.Payment{
		FacilityID: req.FacilityID,
		Amount:     charge.Total,
		MethodID:   req.MethodID,
		PaidAt:     exitAt,
		StaffID:    req.StaffID,
	}
	if candidate.Billable(s.minPayment) {
		payment = candidate
	} else {
		logger.Ctx(ctx).Warn().
			Str("amount", charge.Total.String()).
			Msg("charge below billable minimum, closing occupancy without payment")
	}

	if err := s.occupancies.Settle(ctx, occ, payment); err != nil {
		span.RecordError(err)
		return nil, err
	}

	event := &domain.StaySettled{
		EventID:        domain.NewEventID(),
		FacilityID:     req.FacilityID,
		Spot:           req.Spot,
		Plate:          occ.Plate,
		ElapsedMinutes: charge.ElapsedMinutes,
		Total:          charge.Total,
		ExitAt:         exitAt,
	}
	if payment != nil {
		event.PaymentNumber = payment.Number
	}
	s.publish(ctx, req.FacilityID, event)

	resp := &EgressResponse{
		Plate:          occ.Plate,
		ElapsedMinutes: charge.ElapsedMinutes,
		Total:          charge.Total,
	}
	for _, line := range charge.Lines {
		resp.Lines = append(resp.Lines, ChargeLineDTO{
			TariffID:        line.TariffID,
			DurationMinutes: line.DurationMinutes,
			UnitPrice:       line.UnitPrice,
			Quantity:        line.Quantity,
			Subtotal:        line.Subtotal,
		})
	}
	if payment != nil {
		resp.PaymentNumber = &payment.Number
	}
	return resp, nil
}

// QuoteStay 按当前时间试算进行中停车的费用，只读不落库。
func (s *BillingService) QuoteStay(ctx context.Context, facilityID int64, spot string) (*domain.StayCharge, error) {
	ctx, span := s.tracer.Start(ctx, "billing.QuoteStay")
	defer span.End()

	occ, err := s.occupancies.FindActive(ctx, facilityID, spot)
	if err != nil {
		return nil, err
	}
	return s.computeCharge(ctx, occ, s.now())
}

// computeCharge 解析车型、加载现行资费并执行计费算法。
// 一条资费都没配置时按 NotConfigured 拒绝，避免免费放行。
func (s *BillingService) computeCharge(ctx context.Context, occ *domain.Occupancy, exitAt time.Time) (*domain.StayCharge, error) {
	classID, err := s.vehicles.ClassOf(ctx, occ.Plate)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving vehicle class for plate %s", occ.Plate)
	}
	tariffs, err := s.tariffs.FindCurrentParking(ctx, occ.FacilityID, classID, exitAt)
	if err != nil {
		return nil, err
	}
	if len(tariffs) == 0 {
		return nil, domain.ErrTariffNotConfigured
	}
	return domain.ComputeStayCharge(occ.EntryAt, exitAt, tariffs)
}

// SetTariff 发布一条新资费：先把同组合的开放窗口关在新价格生效点，
// 再插入新记录，保证同一时刻至多一条 vigente。
func (s *BillingService) SetTariff(ctx context.Context, req SetTariffRequest) (*domain.Tariff, error) {
	ctx, span := s.tracer.Start(ctx, "billing.SetTariff")
	defer span.End()

	if err := s.tariffs.CloseWindow(ctx, req.FacilityID, req.ServiceID, req.VehicleClassID, req.ValidFrom); err != nil {
		span.RecordError(err)
		return nil, err
	}
	t := &domain.Tariff{
		FacilityID:      req.FacilityID,
		ServiceID:       req.ServiceID,
		VehicleClassID:  req.VehicleClassID,
		Kind:            domain.TariffKind(req.Kind),
		Amount:          req.Amount,
		ValidFrom:       req.ValidFrom,
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.tariffs.Create(ctx, t); err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Ctx(ctx).Info().
		Int64("facility_id", t.FacilityID).
		Int64("service_id", t.ServiceID).
		Str("amount", t.Amount.String()).
		Msg("tariff published")
	return t, nil
}

// CloseTariff 停用某个服务的现行资费（服务下线）。
func (s *BillingService) CloseTariff(ctx context.Context, facilityID, serviceID, vehicleClassID int64) error {
	ctx, span := s.tracer.Start(ctx, "billing.CloseTariff")
	defer span.End()
	return s.tariffs.CloseWindow(ctx, facilityID, serviceID, vehicleClassID, s.now())
}

// publish 发布领域事件。事件总线故障不影响已提交的业务结果。
func (s *BillingService) publish(ctx context.Context, facilityID int64, event interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, strconv.FormatInt(facilityID, 10), event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to publish billing event")
	}
}
