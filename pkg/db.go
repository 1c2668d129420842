package pkg

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	DriverMySQL = "mysql"
	// cockroachdb 同样走 postgres 协议
	DriverPostgres = "postgres"
)

func NewDB(driver, dsn string, opts ...gorm.Option) (*gorm.DB, error) {
	switch driver {
	case DriverMySQL, "":
		return gorm.Open(mysql.Open(dsn), opts...)
	case DriverPostgres:
		return gorm.Open(postgres.Open(dsn), opts...)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Ping 用于健康检查
func Ping(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
