package model

import "time"

type UserRole string

const (
	UserRoleTrainer UserRole = "trainer"
	UserRoleStudent UserRole = "student"
)

type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       UserRole  `json:"role"`
	Specialist string    `json:"specialist"` // специализация тренера, у студентов пусто
	CreatedAt  time.Time `json:"created_at"`
}

func (u *User) IsTrainer() bool {
	return u.Role == UserRoleTrainer
}
