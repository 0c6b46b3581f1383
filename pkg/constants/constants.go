// pkg/constants/constants.go
package constants

//============== РОЛИ ПОЛЬЗОВАТЕЛЕЙ ==============

// Роли хранятся в БД строками и используются в бизнес-логике напрямую.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleHOU   = "hou" // ответственный за подразделение (head of unit)
)

// IsValidRole проверяет, что строка является известной ролью.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleHOU:
		return true
	}
	return false
}

//============== CACHE KEYS ==============

const (
	// Ключ окна подавления повторных уведомлений.
	// Формат: notify:last:<equipmentID>:<вид обслуживания>:<получатель>
	// -> дата последней успешной отправки
	CacheKeyLastNotified = "notify:last:%d:%s:%s"
)
