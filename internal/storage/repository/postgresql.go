// Package repository реализует хранилище данных на основе PostgreSQL
// для управления учётными записями пользователей. Предоставляет методы
// создания и поиска пользователей, уникальность username и номера телефона
// гарантируется ограничениями на уровне базы данных.
package repository

import (
	"context"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"database/sql"
)

// ErrUniqueViolation возвращается, когда вставка нарушает ограничение
// уникальности username или phone_number. Ограничение в базе — окончательный
// арбитр уникальности: предварительная проверка в сервисе не атомарна
// относительно конкурентных регистраций.
var ErrUniqueViolation = errors.New("unique constraint violation")

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}
