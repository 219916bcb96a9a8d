// internal/service/billing/infrastructure/occupancy_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cochera/internal/service/billing/domain"
)

// GormOccupancyRepository 是 OccupancyRepository 的 GORM 实现。
type GormOccupancyRepository struct {
	db       *gorm.DB
	payments *PaymentStore
}

func NewGormOccupancyRepository(db *gorm.DB, payments *PaymentStore) *GormOccupancyRepository {
	return &GormOccupancyRepository{db: db, payments: payments}
}

// CreateIfFree 在一个事务里锁住该车位的进行中记录做重叠校验再插入。
// 没有事务边界的 check-then-insert 在并发下会双重占用。
func (r *GormOccupancyRepository) CreateIfFree(ctx context.Context, o *domain.Occupancy) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&OccupancyModel{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("facility_id = ? AND spot = ? AND exit_at IS NULL", o.FacilityID, o.Spot).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrSpotConflict
		}

		model := fromDomainOccupancy(o)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		o.ID = model.ID
		return nil
	})
}

// FindActive 返回车位当前进行中的停车记录。
func (r *GormOccupancyRepository) FindActive(ctx context.Context, facilityID int64, spot string) (*domain.Occupancy, error) {
	var model OccupancyModel
	err := r.db.WithContext(ctx).
		Where("facility_id = ? AND spot = ? AND exit_at IS NULL", facilityID, spot).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOccupancyNotFound
		}
		return nil, err
	}
	return toDomainOccupancy(&model), nil
}

// Settle 在单个事务里完成出场结算：
// 分配流水号并落支付（如有）、写出场时间、挂接支付。
// 任何一步失败整体回滚，车位保持占用，绝不会出现
// "车位已释放但没有收款记录"的提交状态。
func (r *GormOccupancyRepository) Settle(ctx context.Context, o *domain.Occupancy, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if payment != nil {
			if err := r.payments.RecordTx(tx, payment); err != nil {
				return err
			}
			o.PaymentID = &payment.ID
		}

		res := tx.Model(&OccupancyModel{}).
			Where("id = ? AND exit_at IS NULL", o.ID).
			Updates(map[string]interface{}{
				"exit_at":    o.ExitAt,
				"payment_id": o.PaymentID,
			})
		if res.Error != nil {
			return res.Error
		}
		// 另一个结算已经关了这条记录
		if res.RowsAffected == 0 {
			return domain.ErrOccupancyNotFound
		}
		return nil
	})
}
