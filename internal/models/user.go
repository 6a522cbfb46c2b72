package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя магазина.
//
// Email — уникальный идентификатор для входа (хранится в нижнем регистре).
// PasswordHash — bcrypt-хэш; сам пароль нигде не хранится.
// IsAdmin — доступ к операциям управления каталогом.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
