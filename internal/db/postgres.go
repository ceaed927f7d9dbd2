package db

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/wisetreee/safe-haven/internal/models"
)

// Connect opens the postgres database and runs schema migrations.
// TranslateError makes GORM surface driver errors as gorm.ErrDuplicatedKey /
// gorm.ErrRecordNotFound, which the store layer maps to its own sentinels.
func Connect(dsn string) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := gormDB.AutoMigrate(
		&models.User{},
		&models.Housing{},
		&models.Booking{},
		&models.Message{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Successfully connected to postgres.")
	return gormDB, nil
}

// Disconnect closes the underlying sql.DB connection pool.
func Disconnect(gormDB *gorm.DB) error {
	if gormDB == nil {
		return nil
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying connection: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close postgres connection: %w", err)
	}
	log.Println("Postgres connection closed.")
	return nil
}
