// internal/service/billing/infrastructure/tariff_repository.go
package infrastructure

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cochera/internal/service/billing/domain"
)

// GormTariffRepository 是 TariffRepository 的 GORM 实现。
type GormTariffRepository struct {
	db *gorm.DB
}

func NewGormTariffRepository(db *gorm.DB) *GormTariffRepository {
	return &GormTariffRepository{db: db}
}

// FindCurrent 取出该组合的全部候选记录，再用纯函数挑现行的那条。
// 单个组合的历史价格不会多到需要把筛选下推到 SQL。
func (r *GormTariffRepository) FindCurrent(ctx context.Context, facilityID, serviceID, vehicleClassID int64, rangeStart, rangeEnd time.Time) (*domain.Tariff, error) {
	var models []TariffModel
	err := r.db.WithContext(ctx).
		Where("facility_id = ? AND service_id = ? AND vehicle_class_id = ?", facilityID, serviceID, vehicleClassID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	tariffs := make([]domain.Tariff, 0, len(models))
	for i := range models {
		tariffs = append(tariffs, *toDomainTariff(&models[i]))
	}
	current := domain.SelectCurrent(tariffs, rangeStart, rangeEnd)
	if current == nil {
		return nil, domain.ErrTariffNotConfigured
	}
	return current, nil
}

// FindCurrentParking 返回该车型此刻现行的全部按时长临时停车资费。
func (r *GormTariffRepository) FindCurrentParking(ctx context.Context, facilityID, vehicleClassID int64, at time.Time) ([]domain.Tariff, error) {
	var models []TariffModel
	err := r.db.WithContext(ctx).
		Where("facility_id = ? AND vehicle_class_id = ? AND kind = ?", facilityID, vehicleClassID, string(domain.KindParking)).
		Where("duration_minutes IS NOT NULL").
		Where("valid_from <= ? AND (valid_to IS NULL OR valid_to >= ?)", at, at).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	tariffs := make([]domain.Tariff, 0, len(models))
	for i := range models {
		tariffs = append(tariffs, *toDomainTariff(&models[i]))
	}
	return tariffs, nil
}

// Create 插入新资费，同组合仍有未关闭或晚于新生效点的窗口时拒绝。
func (r *GormTariffRepository) Create(ctx context.Context, t *domain.Tariff) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var overlapping int64
		err := tx.Model(&TariffModel{}).
			Where("facility_id = ? AND service_id = ? AND vehicle_class_id = ?", t.FacilityID, t.ServiceID, t.VehicleClassID).
			Where("valid_to IS NULL OR valid_to > ?", t.ValidFrom).
			Count(&overlapping).Error
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return domain.ErrTariffOverlap
		}

		model := fromDomainTariff(t)
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		t.ID = model.ID
		return nil
	})
}

// CloseWindow 把该组合的开放窗口记录关在 validTo。
func (r *GormTariffRepository) CloseWindow(ctx context.Context, facilityID, serviceID, vehicleClassID int64, validTo time.Time) error {
	return r.db.WithContext(ctx).Model(&TariffModel{}).
		Where("facility_id = ? AND service_id = ? AND vehicle_class_id = ? AND valid_to IS NULL", facilityID, serviceID, vehicleClassID).
		Update("valid_to", validTo).Error
}
