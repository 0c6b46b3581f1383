package entities

import (
	"time"

	"equipment-tracker/internal/schedule"
	"equipment-tracker/pkg/types"
)

type Equipment struct {
	ID           uint64  `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Manufacturer *string `json:"manufacturer" db:"manufacturer"`
	Model        *string `json:"model" db:"model"`
	SerialNumber *string `json:"serial_number" db:"serial_number"`
	IDNumber     string  `json:"id_number" db:"id_number"`
	Description  *string `json:"description" db:"description"`
	Quantity     int     `json:"quantity" db:"quantity"`

	UnitID uint64 `json:"unit_id" db:"unit_id"`

	CalibrationFrequency schedule.Frequency `json:"calibration_frequency" db:"calibration_frequency"`
	CalibrationDate      *time.Time         `json:"calibration_date" db:"calibration_date"`
	// Производное поле: всегда функция от (CalibrationDate, CalibrationFrequency).
	NextCalibrationDate *time.Time `json:"next_calibration_date" db:"next_calibration_date"`

	MaintenanceFrequency schedule.Frequency `json:"maintenance_frequency" db:"maintenance_frequency"`
	MaintenanceDate      *time.Time         `json:"maintenance_date" db:"maintenance_date"`
	NextMaintenanceDate  *time.Time         `json:"next_maintenance_date" db:"next_maintenance_date"`

	types.BaseEntity

	// Поля для связанных данных (не колонки в таблице)
	Unit       *Unit                `db:"-" json:"unit,omitempty"`
	Parameters []EquipmentParameter `db:"-" json:"parameters,omitempty"`
}

// RecomputeNextDates пересчитывает обе производные даты из исходных полей.
// Вызывается сервисом перед каждой записью в БД.
func (e *Equipment) RecomputeNextDates() {
	e.NextCalibrationDate = schedule.NextDue(e.CalibrationDate, e.CalibrationFrequency)
	e.NextMaintenanceDate = schedule.NextDue(e.MaintenanceDate, e.MaintenanceFrequency)
}

// CalibrationStatus — статус поверки на дату today.
func (e *Equipment) CalibrationStatus(today time.Time) schedule.Status {
	return schedule.Classify(e.NextCalibrationDate, today)
}

// MaintenanceStatus — статус техобслуживания на дату today.
func (e *Equipment) MaintenanceStatus(today time.Time) schedule.Status {
	return schedule.Classify(e.NextMaintenanceDate, today)
}

// HeadEmail возвращает email ответственного за подразделение, если он назначен.
func (e *Equipment) HeadEmail() *string {
	if e.Unit == nil {
		return nil
	}
	return e.Unit.HeadEmail
}
