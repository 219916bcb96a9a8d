// internal/service/billing/domain/occupancy.go
package domain

import "time"

// Occupancy 是一次临时停车：车辆从入场到出场占用一个车位。
// 同一 (停车场, 车位) 任何时刻至多有一条 ExitAt 为空的记录，
// 这条不变式由仓储层的事务保证。
type Occupancy struct {
	ID         int64
	FacilityID int64
	Spot       string
	Plate      string
	EntryAt    time.Time
	// ExitAt 与 PaymentID 在出场结算时一起原子写入。
	ExitAt    *time.Time
	PaymentID *int64
}

// NewOccupancy 创建一条入场记录。
func NewOccupancy(facilityID int64, spot, plate string, entryAt time.Time) *Occupancy {
	return &Occupancy{
		FacilityID: facilityID,
		Spot:       spot,
		Plate:      plate,
		EntryAt:    entryAt,
	}
}

// Active 判断该停车是否仍在进行中。
func (o *Occupancy) Active() bool {
	return o.ExitAt == nil
}

// Close 校验并登记出场时间。出场不晚于入场的记录必须在上游拒绝。
func (o *Occupancy) Close(exitAt time.Time) error {
	if !exitAt.After(o.EntryAt) {
		return ErrInvalidInterval
	}
	o.ExitAt = &exitAt
	return nil
}
