package domain

import (
	"time"

	"github.com/google/uuid"
)

// User принадлежит внешнему auth-сервису, здесь только читается
type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	CompanyID   *uuid.UUID `json:"company_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

const (
	RoleEmployer  = "employer"
	RoleJobSeeker = "job_seeker"
)

func (u *User) IsEmployer() bool {
	return u.Role == RoleEmployer
}
