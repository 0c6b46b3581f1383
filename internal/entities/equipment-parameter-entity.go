package entities

// EquipmentParameter — произвольная характеристика оборудования (имя/значение).
// Полностью принадлежит оборудованию: при обновлении набор заменяется целиком.
type EquipmentParameter struct {
	ID          uint64 `json:"id" db:"id"`
	EquipmentID uint64 `json:"equipment_id" db:"equipment_id"`
	Name        string `json:"name" db:"parameter_name"`
	Value       string `json:"value" db:"parameter_value"`
}
