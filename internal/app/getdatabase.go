package app

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/veriseal/veriseal/config"
)

// getDatabase opens the configured database. Postgres is the production
// target; sqlite serves development and tests.
func getDatabase(cfg *config.AppConfig) *gorm.DB {
	loglevel := logger.Silent
	if cfg.Database.Debug {
		loglevel = logger.Info
	}

	gormCfg := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(loglevel),
	}

	var db *gorm.DB
	var err error
	switch cfg.Database.Type {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.GetDatabaseDSN()), gormCfg)
	default:
		db, err = gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), gormCfg)
	}
	if err != nil {
		zap.S().Panicf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		zap.S().Panicf("failed to get database handle: %v", err)
	}
	if cfg.Database.MaxConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxConn)
	}
	if cfg.Database.IdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.IdleConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}
