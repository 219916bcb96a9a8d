// internal/service/billing/infrastructure/tariff_cache.go
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cochera/internal/pkg/logger"
	"cochera/internal/pkg/redis"
	"cochera/internal/service/billing/domain"
)

// CachedTariffRepository 在 GORM 仓储外面加一层 Redis 读穿缓存。
// 临时停车的现行资费每次出场都要查，但变更频率极低。
// 写路径（Create/CloseWindow）直接失效对应的键。
type CachedTariffRepository struct {
	inner domain.TariffRepository
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedTariffRepository(inner domain.TariffRepository, cache *redis.Client, ttl time.Duration) *CachedTariffRepository {
	return &CachedTariffRepository{inner: inner, cache: cache, ttl: ttl}
}

func parkingKey(facilityID, vehicleClassID int64) string {
	return fmt.Sprintf("tariff:parking:%d:%d", facilityID, vehicleClassID)
}

// FindCurrent 的查询区间随调用变化，不缓存，直接透传。
func (r *CachedTariffRepository) FindCurrent(ctx context.Context, facilityID, serviceID, vehicleClassID int64, rangeStart, rangeEnd time.Time) (*domain.Tariff, error) {
	return r.inner.FindCurrent(ctx, facilityID, serviceID, vehicleClassID, rangeStart, rangeEnd)
}

func (r *CachedTariffRepository) FindCurrentParking(ctx context.Context, facilityID, vehicleClassID int64, at time.Time) ([]domain.Tariff, error) {
	key := parkingKey(facilityID, vehicleClassID)
	var cached []domain.Tariff
	err := r.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		// 缓存故障降级回源，不影响计费
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("tariff cache read failed, falling back to db")
	}

	tariffs, err := r.inner.FindCurrentParking(ctx, facilityID, vehicleClassID, at)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, key, tariffs, r.ttl); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("tariff cache write failed")
	}
	return tariffs, nil
}

func (r *CachedTariffRepository) Create(ctx context.Context, t *domain.Tariff) error {
	if err := r.inner.Create(ctx, t); err != nil {
		return err
	}
	r.invalidate(ctx, t.FacilityID, t.VehicleClassID)
	return nil
}

func (r *CachedTariffRepository) CloseWindow(ctx context.Context, facilityID, serviceID, vehicleClassID int64, validTo time.Time) error {
	if err := r.inner.CloseWindow(ctx, facilityID, serviceID, vehicleClassID, validTo); err != nil {
		return err
	}
	r.invalidate(ctx, facilityID, vehicleClassID)
	return nil
}

func (r *CachedTariffRepository) invalidate(ctx context.Context, facilityID, vehicleClassID int64) {
	if err := r.cache.Delete(ctx, parkingKey(facilityID, vehicleClassID)); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("tariff cache invalidation failed")
	}
}
