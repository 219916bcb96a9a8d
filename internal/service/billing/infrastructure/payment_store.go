// internal/service/billing/infrastructure/payment_store.go
package infrastructure

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cochera/internal/service/billing/domain"
)

// PaymentStore 实现 PaymentRepository。
// 流水号分配和支付插入永远在同一个事务里：对每停车场一行的
// 计数器加排他锁取号，(facility_id, number) 唯一索引兜底，
// 撞号重试一次后仍失败才把 ErrSequenceConflict 抛给调用方。
type PaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// Record 在独立事务里登记一笔支付并分配流水号。
func (s *PaymentStore) Record(ctx context.Context, p *domain.Payment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.RecordTx(tx, p)
	})
}

// RecordTx 在调用方管理的事务里登记支付，
// 供出场结算、abono 结清这类复合事务复用。
func (s *PaymentStore) RecordTx(tx *gorm.DB, p *domain.Payment) error {
	for attempt := 0; attempt < 2; attempt++ {
		number, err := s.allocate(tx, p.FacilityID)
		if err != nil {
			return err
		}
		p.Number = number

		model := fromDomainPayment(p)
		err = tx.Create(model).Error
		if err == nil {
			p.ID = model.ID
			return nil
		}
		if !isDuplicateKey(err) {
			return err
		}
		// 撞上并发写者，取下一个号再试一次
	}
	return domain.ErrSequenceConflict
}

// NextNumber 预览下一个流水号，只读不占号。
// 真正的分配永远发生在 Record 的事务里。
func (s *PaymentStore) NextNumber(ctx context.Context, facilityID int64) (int64, error) {
	var seq PaymentSequenceModel
	err := s.db.WithContext(ctx).First(&seq, "facility_id = ?", facilityID).Error
	if err == nil {
		return seq.LastValue + 1, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	max, err := s.maxIssued(s.db.WithContext(ctx), facilityID)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// allocate 对计数器行加 FOR UPDATE 锁并加一。
// 计数器行不存在时用历史支付的最大流水号初始化（兼容存量数据）。
func (s *PaymentStore) allocate(tx *gorm.DB, facilityID int64) (int64, error) {
	var seq PaymentSequenceModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&seq, "facility_id = ?", facilityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		max, merr := s.maxIssued(tx, facilityID)
		if merr != nil {
			return 0, merr
		}
		seq = PaymentSequenceModel{FacilityID: facilityID, LastValue: max}
		if cerr := tx.Create(&seq).Error; cerr != nil {
			if !isDuplicateKey(cerr) {
				return 0, cerr
			}
			// 另一个事务刚建好计数器行，重新加锁读取
			if lerr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&seq, "facility_id = ?", facilityID).Error; lerr != nil {
				return 0, lerr
			}
		}
	} else if err != nil {
		return 0, err
	}

	next := seq.LastValue + 1
	err = tx.Model(&PaymentSequenceModel{}).
		Where("facility_id = ?", facilityID).
		Update("last_value", next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *PaymentStore) maxIssued(tx *gorm.DB, facilityID int64) (int64, error) {
	var max int64
	err := tx.Model(&PaymentModel{}).
		Where("facility_id = ?", facilityID).
		Select("COALESCE(MAX(number), 0)").
		Scan(&max).Error
	return max, err
}

// isDuplicateKey 判断是否 MySQL 唯一键冲突 (1062)。
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
