// internal/service/billing/infrastructure/mapper.go
package infrastructure

import (
	"cochera/internal/service/billing/domain"
)

// toDomainTariff 数据库模型 → 领域模型
func toDomainTariff(m *TariffModel) *domain.Tariff {
	if m == nil {
		return nil
	}
	return &domain.Tariff{
		ID:              m.ID,
		FacilityID:      m.FacilityID,
		ServiceID:       m.ServiceID,
		VehicleClassID:  m.VehicleClassID,
		Kind:            domain.TariffKind(m.Kind),
		Amount:          m.Amount,
		ValidFrom:       m.ValidFrom,
		ValidTo:         m.ValidTo,
		DurationMinutes: m.DurationMinutes,
	}
}

func fromDomainTariff(t *domain.Tariff) *TariffModel {
	return &TariffModel{
		ID:              t.ID,
		FacilityID:      t.FacilityID,
		ServiceID:       t.ServiceID,
		VehicleClassID:  t.VehicleClassID,
		Kind:            string(t.Kind),
		Amount:          t.Amount,
		ValidFrom:       t.ValidFrom,
		ValidTo:         t.ValidTo,
		DurationMinutes: t.DurationMinutes,
	}
}

func toDomainOccupancy(m *OccupancyModel) *domain.Occupancy {
	if m == nil {
		return nil
	}
	return &domain.Occupancy{
		ID:         m.ID,
		FacilityID: m.FacilityID,
		Spot:       m.Spot,
		Plate:      m.Plate,
		EntryAt:    m.EntryAt,
		ExitAt:     m.ExitAt,
		PaymentID:  m.PaymentID,
	}
}

func fromDomainOccupancy(o *domain.Occupancy) *OccupancyModel {
	return &OccupancyModel{
		ID:         o.ID,
		FacilityID: o.FacilityID,
		Spot:       o.Spot,
		Plate:      o.Plate,
		EntryAt:    o.EntryAt,
		ExitAt:     o.ExitAt,
		PaymentID:  o.PaymentID,
	}
}

func fromDomainPayment(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:         p.ID,
		FacilityID: p.FacilityID,
		Number:     p.Number,
		Amount:     p.Amount,
		MethodID:   p.MethodID,
		PaidAt:     p.PaidAt,
		StaffID:    p.StaffID,
	}
}
