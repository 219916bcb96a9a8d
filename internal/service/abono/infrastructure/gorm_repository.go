// internal/service/abono/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cochera/internal/service/abono/domain"
	billingdomain "cochera/internal/service/billing/domain"
	billinginfra "cochera/internal/service/billing/infrastructure"
)

// GormSubscriptionRepository 用 GORM 实现订阅台账仓储。
// 支付登记复用计费上下文的 PaymentStore，保证收据号在同一停车场内
// 全局单调，不区分临停和 abono。
type GormSubscriptionRepository struct {
	db       *gorm.DB
	payments *billinginfra.PaymentStore
}

func NewGormSubscriptionRepository(db *gorm.DB, payments *billinginfra.PaymentStore) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db, payments: payments}
}

func (r *GormSubscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	model := fromDomainSubscription(s)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkSpotFree(tx, s.FacilityID, s.Spot, s.StartAt, s.EndAt, 0); err != nil {
			return err
		}
		// 进行中的临停同样占着车位，不能在它头上开订阅。
		var parked int64
		if err := tx.Table("occupancies").
			Where("facility_id = ? AND spot = ? AND exit_at IS NULL", s.FacilityID, s.Spot).
			Count(&parked).Error; err != nil {
			return errors.Wrap(err, "count active occupancies")
		}
		if parked > 0 {
			return domain.ErrBookingConflict
		}
		if err := tx.Create(model).Error; err != nil {
			return errors.Wrap(err, "insert subscription")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.ID = model.ID
	for i := range model.Periods {
		s.Periods[i].ID = model.Periods[i].ID
	}
	return nil
}

func (r *GormSubscriptionRepository) Get(ctx context.Context, id int64) (*domain.Subscription, error) {
	var model SubscriptionModel
	err := r.db.WithContext(ctx).
		Preload("Periods", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Preload("Vehicles").
		First(&model, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load subscription")
	}
	return toDomainSubscription(&model), nil
}

func (r *GormSubscriptionRepository) AppendPeriods(ctx context.Context, s *domain.Subscription, periods []domain.Period, newEnd time.Time) error {
	if len(periods) == 0 {
		return nil
	}
	models := make([]PeriodModel, 0, len(periods))
	for i := range periods {
		models = append(models, fromDomainPeriod(&periods[i], s.ID))
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkSpotFree(tx, s.FacilityID, s.Spot, periods[0].StartAt, newEnd, s.ID); err != nil {
			return err
		}
		if err := tx.Create(&models).Error; err != nil {
			return errors.Wrap(err, "insert periods")
		}
		if err := tx.Model(&SubscriptionModel{}).
			Where("id = ?", s.ID).
			Update("end_at", newEnd).Error; err != nil {
			return errors.Wrap(err, "push end_at")
		}
		return nil
	})
	if err != nil {
		return err
	}
	for i := range models {
		periods[i].ID = models[i].ID
	}
	return nil
}

func (r *GormSubscriptionRepository) SettlePeriods(ctx context.Context, s *domain.Subscription, numbers []int, payment *domain.SettledPayment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bp := &billingdomain.Payment{
			FacilityID: s.FacilityID,
			Amount:     payment.Amount,
			MethodID:   payment.MethodID,
			StaffID:    payment.StaffID,
			PaidAt:     payment.PaidAt,
		}
		if err := r.payments.RecordTx(tx, bp); err != nil {
			return err
		}
		res := tx.Model(&PeriodModel{}).
			Where("subscription_id = ? AND number IN ? AND paid = 0", s.ID, numbers).
			Updates(map[string]interface{}{
				"paid":       true,
				"paid_at":    payment.PaidAt,
				"payment_id": bp.ID,
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "mark periods paid")
		}
		// 少更新一行就说明有包期在别处被抢先结清了，整单回滚。
		if res.RowsAffected != int64(len(numbers)) {
			return domain.ErrPeriodAlreadyPaid
		}
		payment.ID = bp.ID
		payment.Number = bp.Number
		return nil
	})
}

func (r *GormSubscriptionRepository) Cancel(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&SubscriptionModel{}).
			Where("id = ? AND cancelled = 0", id).
			Updates(map[string]interface{}{
				"cancelled":     true,
				"cached_status": string(domain.StatusCancelled),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "cancel subscription")
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&SubscriptionModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return errors.Wrap(err, "probe subscription")
			}
			if count == 0 {
				return domain.ErrSubscriptionNotFound
			}
			return domain.ErrAlreadyCancelled
		}
		return nil
	})
}

func (r *GormSubscriptionRepository) UpdateCachedStatus(ctx context.Context, id int64, status domain.Status) error {
	err := r.db.WithContext(ctx).Model(&SubscriptionModel{}).
		Where("id = ?", id).
		Update("cached_status", string(status)).Error
	return errors.Wrap(err, "refresh cached status")
}

func (r *GormSubscriptionRepository) AttachVehicle(ctx context.Context, id int64, plate string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&SubscriptionModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrap(err, "probe subscription")
	}
	if count == 0 {
		return domain.ErrSubscriptionNotFound
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&SubscriptionVehicleModel{SubscriptionID: id, Plate: plate}).Error
	return errors.Wrap(err, "attach vehicle")
}

// checkSpotFree 校验车位在 [from, to) 内没有与别的未取消订阅重叠。
// excludeID 用来在续期时跳过自己。
func (r *GormSubscriptionRepository) checkSpotFree(tx *gorm.DB, facilityID int64, spot string, from, to time.Time, excludeID int64) error {
	q := tx.Model(&SubscriptionModel{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("facility_id = ? AND spot = ? AND cancelled = 0", facilityID, spot).
		Where("start_at < ? AND end_at > ?", to, from)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var overlapping int64
	if err := q.Count(&overlapping).Error; err != nil {
		return errors.Wrap(err, "count overlapping subscriptions")
	}
	if overlapping > 0 {
		return domain.ErrBookingConflict
	}
	return nil
}
