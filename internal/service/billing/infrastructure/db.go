// internal/service/billing/infrastructure/db.go
package infrastructure

import (
	"time"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// OpenDB 打开 MySQL 连接池。表结构由迁移脚本管理，这里不做 AutoMigrate。
func OpenDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
