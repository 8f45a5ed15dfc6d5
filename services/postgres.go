package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/provisa-fr/provisa_api/model"
	"github.com/provisa-fr/provisa_api/shared"
)

type PostgresService struct {
	appContext.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *appContext.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		// Fallback to individual environment variables
		host := os.Getenv("DB_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("DB_NAME")
		if dbname == "" {
			dbname = "provisa"
		}
		sslmode := os.Getenv("DB_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			host, user, password, dbname, port, sslmode)
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Error),
			TranslateError: true,
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				if pingErr := sqlDB.Ping(); pingErr == nil {
					break
				} else {
					err = pingErr
				}
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.WithError(err).Errorf("Failed to connect to database after %d attempts", maxRetries)
			return err
		}

		log.WithError(err).Warnf("Database connection failed, retrying in %v", retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	err = ds.db.AutoMigrate(
		&model.Application{},
		&model.ApplicationRateLimit{},
	)
	if err != nil {
		log.WithError(err).Error("Failed to migrate database")
		return err
	}

	// Rate-limit rows are never deleted by the intake path; prune the long
	// dead ones here.
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for range ticker.C {
			if err := ds.CleanupExpiredRateLimits(); err != nil {
				log.WithError(err).Error("Rate limit cleanup failed")
			}
		}
	}()

	log.Info("Database connected and migrated")
	return nil
}

func (ds *PostgresService) Shutdown() {
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// SaveApplication persists one accepted candidature. A requestId collision
// means a client retried a submission that already went through; the
// sentinel lets the caller report that earlier success.
func (ds *PostgresService) SaveApplication(ctx context.Context, app *model.Application) error {
	err := ds.db.WithContext(ctx).Create(app).Error
	if err == nil {
		return nil
	}
	if app.RequestID != nil && isDuplicateKey(err) {
		return shared.ErrDuplicateSubmission
	}
	return err
}

// CleanupExpiredRateLimits drops rate-limit rows idle for over a day whose
// block, if any, has lapsed.
func (ds *PostgresService) CleanupExpiredRateLimits() error {
	cutoff := time.Now().Add(-24 * time.Hour)
	return ds.db.
		Where("last_submission_at < ?", cutoff).
		Where("blocked_until IS NULL OR blocked_until < ?", time.Now()).
		Delete(&model.ApplicationRateLimit{}).Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Fallbacks for drivers that gorm does not translate
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
