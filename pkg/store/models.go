package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"garasiku/pkg/domain"
)

// VehicleModel is the GORM row for a persisted vehicle.
type VehicleModel struct {
	ID           string `gorm:"primaryKey;size:32"`
	TenantID     string `gorm:"size:64;index;uniqueIndex:idx_tenant_code,priority:1"`
	DisplayCode  string `gorm:"size:8;uniqueIndex:idx_tenant_code,priority:2"`
	PublicName   string `gorm:"size:160"`
	Slug         string `gorm:"size:160;index"`
	Brand        string `gorm:"size:64"`
	Model        string `gorm:"size:64"`
	Year         int
	Color        string `gorm:"size:32"`
	Transmission string `gorm:"size:16"`
	Odometer     int
	Price        int64
	Plate        string `gorm:"size:16"`
	FuelType     string `gorm:"size:16"`
	Features     datatypes.JSON
	Description  string `gorm:"type:text"`
	Notes        string `gorm:"type:text"`
	Photos       datatypes.JSON
	Status       string `gorm:"size:16;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (VehicleModel) TableName() string { return "vehicles" }

func toVehicleModel(v domain.Vehicle) VehicleModel {
	features, _ := json.Marshal(v.Features)
	photos, _ := json.Marshal(v.Photos)
	return VehicleModel{
		ID:           v.ID,
		TenantID:     v.TenantID,
		DisplayCode:  v.DisplayCode,
		PublicName:   v.PublicName,
		Slug:         v.Slug,
		Brand:        v.Brand,
		Model:        v.Model,
		Year:         v.Year,
		Color:        v.Color,
		Transmission: string(v.Transmission),
		Odometer:     v.Odometer,
		Price:        v.Price,
		Plate:        v.Plate,
		FuelType:     v.FuelType,
		Features:     datatypes.JSON(features),
		Description:  v.Description,
		Notes:        v.Notes,
		Photos:       datatypes.JSON(photos),
		Status:       string(v.Status),
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func fromVehicleModel(m VehicleModel) domain.Vehicle {
	var features, photos []string
	_ = json.Unmarshal(m.Features, &features)
	_ = json.Unmarshal(m.Photos, &photos)
	return domain.Vehicle{
		ID:           m.ID,
		TenantID:     m.TenantID,
		DisplayCode:  m.DisplayCode,
		PublicName:   m.PublicName,
		Slug:         m.Slug,
		Brand:        m.Brand,
		Model:        m.Model,
		Year:         m.Year,
		Color:        m.Color,
		Transmission: domain.Transmission(m.Transmission),
		Odometer:     m.Odometer,
		Price:        m.Price,
		Plate:        m.Plate,
		FuelType:     m.FuelType,
		Features:     features,
		Description:  m.Description,
		Notes:        m.Notes,
		Photos:       photos,
		Status:       domain.VehicleStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
