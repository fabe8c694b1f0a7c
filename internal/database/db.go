package database

import (
	"fmt"
	"time"

	"elocation/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every table, in an order where referenced tables come first
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Permission{},
		&model.Role{},
		&model.Category{},
		&model.SubCategory{},
		&model.Ad{},
		&model.AdPhoto{},
		&model.Booking{},
		&model.Review{},
		&model.Report{},
		&model.Notification{},
		&model.EmailTemplate{},
		&model.AuditLog{},
	}
}

// NewConnection initializes a new connection pool using GORM. Driver errors are translated so
// unique violations surface as gorm.ErrDuplicatedKey.
func NewConnection(dsn string, log *zap.Logger) (*gorm.DB, error) {
	log = log.Named("db")
	gormLog := gormlogger.New(zap.NewStdLog(log), gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// gen_random_uuid() is built in from postgres 13, pgcrypto covers older servers
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		log.Warn("could not enable pgcrypto", zap.Error(err))
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	log.Info("database ready")

	return db, nil
}
