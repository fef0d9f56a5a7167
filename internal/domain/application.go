package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job и JobApplication ведутся сервисом вакансий, для мессенджера это read-only данные.
type Job struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Title     string    `json:"title"`
}

type JobApplication struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	ApplicantID uuid.UUID `json:"applicant_id"`
	CreatedAt   time.Time `json:"created_at"`

	// Денормализованные поля из job для проверки прав
	JobTitle     string    `json:"job_title"`
	JobCompanyID uuid.UUID `json:"job_company_id"`
}
