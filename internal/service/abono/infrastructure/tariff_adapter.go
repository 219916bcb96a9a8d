// internal/service/abono/infrastructure/tariff_adapter.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"cochera/internal/service/abono/domain"
	billingdomain "cochera/internal/service/billing/domain"
)

// BillingTariffSource 把计费上下文的资费目录适配成 abono 的只读单价口。
type BillingTariffSource struct {
	tariffs billingdomain.TariffRepository
}

func NewBillingTariffSource(tariffs billingdomain.TariffRepository) *BillingTariffSource {
	return &BillingTariffSource{tariffs: tariffs}
}

func (s *BillingTariffSource) UnitTariff(ctx context.Context, facilityID, serviceID, vehicleClassID int64, at time.Time) (decimal.Decimal, *int, error) {
	tariff, err := s.tariffs.FindCurrent(ctx, facilityID, serviceID, vehicleClassID, at, at)
	if errors.Is(err, billingdomain.ErrTariffNotConfigured) {
		return decimal.Zero, nil, domain.ErrTariffNotConfigured
	}
	if err != nil {
		return decimal.Zero, nil, err
	}
	return tariff.Amount, tariff.DurationMinutes, nil
}
