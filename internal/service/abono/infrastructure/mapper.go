// internal/service/abono/infrastructure/mapper.go
package infrastructure

import (
	"cochera/internal/service/abono/domain"
)

func toDomainSubscription(m *SubscriptionModel) *domain.Subscription {
	s := &domain.Subscription{
		ID:           m.ID,
		FacilityID:   m.FacilityID,
		Spot:         m.Spot,
		SubscriberID: m.SubscriberID,
		ServiceID:    m.ServiceID,
		StartAt:      m.StartAt,
		EndAt:        m.EndAt,
		TotalAmount:  m.TotalAmount,
		Cancelled:    m.Cancelled,
		CachedStatus: domain.Status(m.CachedStatus),
		PaymentID:    m.PaymentID,
	}
	s.Periods = make([]domain.Period, 0, len(m.Periods))
	for i := range m.Periods {
		s.Periods = append(s.Periods, toDomainPeriod(&m.Periods[i]))
	}
	s.Vehicles = make([]string, 0, len(m.Vehicles))
	for i := range m.Vehicles {
		s.Vehicles = append(s.Vehicles, m.Vehicles[i].Plate)
	}
	return s
}

func toDomainPeriod(m *PeriodModel) domain.Period {
	return domain.Period{
		ID:        m.ID,
		Number:    m.Number,
		StartAt:   m.StartAt,
		EndAt:     m.EndAt,
		Amount:    m.Amount,
		Paid:      m.Paid,
		PaidAt:    m.PaidAt,
		PaymentID: m.PaymentID,
	}
}

func fromDomainSubscription(s *domain.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{
		ID:           s.ID,
		FacilityID:   s.FacilityID,
		Spot:         s.Spot,
		SubscriberID: s.SubscriberID,
		ServiceID:    s.ServiceID,
		StartAt:      s.StartAt,
		EndAt:        s.EndAt,
		TotalAmount:  s.TotalAmount,
		Cancelled:    s.Cancelled,
		CachedStatus: string(s.CachedStatus),
		PaymentID:    s.PaymentID,
	}
	for i := range s.Periods {
		m.Periods = append(m.Periods, fromDomainPeriod(&s.Periods[i], s.ID))
	}
	for _, plate := range s.Vehicles {
		m.Vehicles = append(m.Vehicles, SubscriptionVehicleModel{
			SubscriptionID: s.ID,
			Plate:          plate,
		})
	}
	return m
}

func fromDomainPeriod(p *domain.Period, subscriptionID int64) PeriodModel {
	return PeriodModel{
		ID:             p.ID,
		SubscriptionID: subscriptionID,
		Number:         p.Number,
		StartAt:        p.StartAt,
		EndAt:          p.EndAt,
		Amount:         p.Amount,
		Paid:           p.Paid,
		PaidAt:         p.PaidAt,
		PaymentID:      p.PaymentID,
	}
}
