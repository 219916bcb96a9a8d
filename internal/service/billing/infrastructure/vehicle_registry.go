// internal/service/billing/infrastructure/vehicle_registry.go
package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormVehicleRegistry 对车辆登记表做只读查询，车辆维护在 CRUD 层。
type GormVehicleRegistry struct {
	db *gorm.DB
}

func NewGormVehicleRegistry(db *gorm.DB) *GormVehicleRegistry {
	return &GormVehicleRegistry{db: db}
}

// ClassOf 把车牌解析为车型。
func (r *GormVehicleRegistry) ClassOf(ctx context.Context, plate string) (int64, error) {
	var model VehicleModel
	err := r.db.WithContext(ctx).First(&model, "plate = ?", plate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("vehicle %s is not registered", plate)
		}
		return 0, err
	}
	return model.VehicleClassID, nil
}
