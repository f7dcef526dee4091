package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"garasiku/pkg/domain"
)

// GormVehicleStore implements VehicleStore using GORM + Postgres.
type GormVehicleStore struct {
	db *gorm.DB
}

// NewGormVehicleStore opens the DB and runs auto-migrations.
func NewGormVehicleStore(dsn string) (*GormVehicleStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&VehicleModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormVehicleStore{db: db}, nil
}

// FindHighestCode scans all codes under the prefix, regardless of status, and
// returns the one with the highest numeric suffix. Zero-padded suffixes roll
// past two digits, so lexicographic MAX() would be wrong after #X99.
func (s *GormVehicleStore) FindHighestCode(ctx context.Context, tenantID, prefix string) (string, bool, error) {
	var codes []string
	err := s.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("tenant_id = ? AND display_code LIKE ?", tenantID, "#"+prefix+"%").
		Pluck("display_code", &codes).Error
	if err != nil {
		return "", false, fmt.Errorf("list codes: %w", err)
	}
	best, bestNum := "", -1
	for _, code := range codes {
		suffix := strings.TrimPrefix(code, "#"+prefix)
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > bestNum {
			best, bestNum = code, n
		}
	}
	if bestNum < 0 {
		return "", false, nil
	}
	return best, true, nil
}

// CodeExists counts vehicles in any status, soft-deleted included.
func (s *GormVehicleStore) CodeExists(ctx context.Context, tenantID, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("tenant_id = ? AND display_code = ?", tenantID, code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count code: %w", err)
	}
	return count > 0, nil
}

// Create inserts the vehicle. A unique violation on (tenant_id, display_code)
// surfaces as ErrCodeTaken so the allocator can retry.
func (s *GormVehicleStore) Create(ctx context.Context, v domain.Vehicle) error {
	model := toVehicleModel(v)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCodeTaken
		}
		return fmt.Errorf("create vehicle: %w", err)
	}
	return nil
}

// GetBySlug looks up a vehicle for the public catalog.
func (s *GormVehicleStore) GetBySlug(ctx context.Context, tenantID, slug string) (domain.Vehicle, bool, error) {
	var model VehicleModel
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND slug = ?", tenantID, slug).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Vehicle{}, false, nil
	}
	if err != nil {
		return domain.Vehicle{}, false, fmt.Errorf("get vehicle: %w", err)
	}
	return fromVehicleModel(model), true, nil
}
