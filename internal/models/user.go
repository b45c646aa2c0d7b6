package models

import "time"

// Role определяет роль пользователя
type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
)

// StartingBalance: баланс, который получает каждый новый пользователь
const StartingBalance = 1500

// User представляет пользователя в хранилище
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Balance   int       `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionUser: снимок пользователя текущей сессии, без пароля
type SessionUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	Phone   string `json:"phone,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	Balance int    `json:"balance"`
}

// Snapshot возвращает снимок пользователя для сессии
func (u User) Snapshot() SessionUser {
	return SessionUser{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Role:    u.Role,
		Phone:   u.Phone,
		Avatar:  u.Avatar,
		Balance: u.Balance,
	}
}
