// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи и хэш пароля.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей системы.
const (
	RoleCommuter = "commuter" // Пассажир
	RolePAO      = "pao"      // Кондуктор (Passenger Assistant Officer)
	RoleManager  = "manager"  // Менеджер автопарка
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	FirstName    string    // Имя
	LastName     string    // Фамилия
	Username     string    // Имя пользователя (уникальное)
	PhoneNumber  string    // Номер телефона (уникальный)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя: commuter, pao или manager
	CreatedAt    time.Time // Дата создания учётной записи
}
