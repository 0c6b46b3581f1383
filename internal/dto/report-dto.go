package dto

// ReportItemDTO — строка реестра оборудования со статусами на дату формирования.
type ReportItemDTO struct {
	EquipmentID         uint64 `json:"equipment_id"`
	Name                string `json:"name"`
	IDNumber            string `json:"id_number"`
	UnitName            string `json:"unit_name"`
	BranchName          string `json:"branch_name"`
	Quantity            int    `json:"quantity"`
	CalibrationDate     string `json:"calibration_date"`
	NextCalibrationDate string `json:"next_calibration_date"`
	CalibrationStatus   string `json:"calibration_status"`
	MaintenanceDate     string `json:"maintenance_date"`
	NextMaintenanceDate string `json:"next_maintenance_date"`
	MaintenanceStatus   string `json:"maintenance_status"`
}
