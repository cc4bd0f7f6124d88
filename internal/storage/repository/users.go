package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/transit-monitor/internal/models"
)

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
// Нарушение уникальности username или phone_number возвращается
// как ErrUniqueViolation.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (first_name, last_name, username, phone_number,
			      password_hash, role)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.FirstName, user.LastName, user.Username, user.PhoneNumber,
		user.PasswordHash, user.Role).Scan(&newUID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrUniqueViolation)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// FindUserByUsernameOrPhone возвращает пользователя, у которого совпадает
// username или phone_number. Один дизъюнктивный запрос, не два раздельных.
// Если такого пользователя нет, возвращает (nil, nil).
func (s *Storage) FindUserByUsernameOrPhone(ctx context.Context, username, phoneNumber string) (*models.User, error) {
	const op = "storage.FindUserByUsernameOrPhone"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, first_name, last_name, username, phone_number,
			      password_hash, role, created_at
			  FROM users
			  WHERE username = $1 OR phone_number = $2`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username, phoneNumber)
	if err := row.Scan(&u.UID, &u.FirstName, &u.LastName, &u.Username,
		&u.PhoneNumber, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, first_name, last_name, username, phone_number,
			      password_hash, role, created_at
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username)
	if err := row.Scan(&u.UID, &u.FirstName, &u.LastName, &u.Username,
		&u.PhoneNumber, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
