package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	applog "github.com/adstatus-next/internal/logger"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 进程级连接，由 InitDB 设置
var DB *gorm.DB

const slowQueryThreshold = 500 * time.Millisecond

// DBPoolConfig 数据库连接池配置，0 表示沿用驱动默认
type DBPoolConfig struct {
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeSeconds int
	ConnMaxIdleTimeSeconds int
}

// InitDB 打开连接并设置为全局 DB
func InitDB(driver, dsn string, pool DBPoolConfig, debug bool) error {
	db, err := Open(driver, dsn, pool, debug)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open sqlite 与 postgres 二选一；gorm 日志写入 zap，release 下只记录慢查询与错误
func Open(driver, dsn string, pool DBPoolConfig, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		dialector = sqlite.Open(withSQLitePragmas(dsn))
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(zapWriter{}, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
	}
	if pool.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeSeconds) * time.Second)
	}
	return db, nil
}

// zapWriter 把 gorm 的格式化输出转成一条 db_query 事件
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	applog.Infow("db_query", "detail", fmt.Sprintf(format, args...))
}

// 内存库与已显式指定 pragma 的 DSN 保持原样
func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// AutoMigrate 迁移全局连接
func AutoMigrate() error {
	return AutoMigrateWith(DB)
}

// AutoMigrateWith 测试使用独立内存库
func AutoMigrateWith(db *gorm.DB) error {
	if db == nil {
		return errors.New("database not initialized")
	}
	return db.AutoMigrate(
		&Account{},
		&Profile{},
		&CompanyInfo{},
		&OTPCode{},
		&Campaign{},
		&CampaignApplication{},
		&Proof{},
		&WalletAccount{},
		&WalletTransaction{},
		&Notification{},
		&Referral{},
	)
}
