package dto

import "github.com/aarondl/null/v8"

type EquipmentParameterDTO struct {
	Name  string `json:"name" validate:"required,max=150"`
	Value string `json:"value" validate:"required,max=150"`
}

// EquipmentDTO — ответ API: исходные поля, производные даты и вычисленные статусы.
type EquipmentDTO struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	Manufacturer *string `json:"manufacturer"`
	Model        *string `json:"model"`
	SerialNumber *string `json:"serial_number"`
	IDNumber     string  `json:"id_number"`
	Description  *string `json:"description"`
	Quantity     int     `json:"quantity"`

	UnitID     uint64 `json:"unit_id"`
	UnitName   string `json:"unit_name,omitempty"`
	BranchID   uint64 `json:"branch_id,omitempty"`
	BranchName string `json:"branch_name,omitempty"`

	CalibrationFrequency string `json:"calibration_frequency"`
	CalibrationDate      string `json:"calibration_date,omitempty"`
	NextCalibrationDate  string `json:"next_calibration_date,omitempty"`
	CalibrationStatus    string `json:"calibration_status"`

	MaintenanceFrequency string `json:"maintenance_frequency"`
	MaintenanceDate      string `json:"maintenance_date,omitempty"`
	NextMaintenanceDate  string `json:"next_maintenance_date,omitempty"`
	MaintenanceStatus    string `json:"maintenance_status"`

	Parameters []EquipmentParameterDTO `json:"parameters"`

	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type CreateEquipmentDTO struct {
	Name         string  `json:"name" validate:"required,max=150"`
	Manufacturer *string `json:"manufacturer" validate:"omitempty,max=150"`
	Model        *string `json:"model" validate:"omitempty,max=150"`
	SerialNumber *string `json:"serial_number" validate:"omitempty,max=150"`
	IDNumber     string  `json:"id_number" validate:"required,max=150"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	Quantity     int     `json:"quantity" validate:"omitempty,min=1"`

	UnitID uint64 `json:"unit_id" validate:"required"`

	CalibrationFrequency string `json:"calibration_frequency" validate:"frequency"`
	CalibrationDate      string `json:"calibration_date" validate:"omitempty,datetime=2006-01-02"`

	MaintenanceFrequency string `json:"maintenance_frequency" validate:"frequency"`
	MaintenanceDate      string `json:"maintenance_date" validate:"omitempty,datetime=2006-01-02"`

	Parameters []EquipmentParameterDTO `json:"parameters" validate:"omitempty,dive"`
}

// ServiceDateDTO — отметка о проведённой поверке или техобслуживании.
// Пустая дата означает сегодняшний день.
type ServiceDateDTO struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateEquipmentDTO — частичное обновление; отсутствующие поля не трогаем.
// Набор параметров, если он передан, заменяется целиком.
type UpdateEquipmentDTO struct {
	Name         null.String `json:"name" validate:"omitempty,max=150"`
	Manufacturer null.String `json:"manufacturer" validate:"omitempty,max=150"`
	Model        null.String `json:"model" validate:"omitempty,max=150"`
	SerialNumber null.String `json:"serial_number" validate:"omitempty,max=150"`
	IDNumber     null.String `json:"id_number" validate:"omitempty,max=150"`
	Description  null.String `json:"description" validate:"omitempty,max=500"`
	Quantity     null.Int    `json:"quantity" validate:"omitempty"`

	UnitID null.Uint64 `json:"unit_id"`

	CalibrationFrequency null.String `json:"calibration_frequency" validate:"omitempty,frequency"`
	CalibrationDate      null.String `json:"calibration_date" validate:"omitempty,datetime=2006-01-02"`

	MaintenanceFrequency null.String `json:"maintenance_frequency" validate:"omitempty,frequency"`
	MaintenanceDate      null.String `json:"maintenance_date" validate:"omitempty,datetime=2006-01-02"`

	Parameters *[]EquipmentParameterDTO `json:"parameters" validate:"omitempty,dive"`
}
