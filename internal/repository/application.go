package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job_messaging/internal/domain"
	apperrors "job_messaging/pkg/errors"
	"job_messaging/pkg/logger"
)

// ApplicationRepository — read-only шлюз к откликам и вакансиям,
// которыми владеет сервис вакансий. Мессенджер их никогда не пишет.
type ApplicationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JobApplication, error)
}

type applicationRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewApplicationRepository(db *pgxpool.Pool, log logger.Logger) ApplicationRepository {
	return &applicationRepository{db: db, log: log}
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobApplication, error) {
	query := `
		SELECT a.id, a.job_id, a.applicant_id, a.created_at, j.title, j.company_id
		FROM job_applications a
		JOIN jobs j ON j.id = a.job_id
		WHERE a.id = $1
	`

	app := &domain.JobApplication{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&app.ID, &app.JobID, &app.ApplicantID, &app.CreatedAt,
		&app.JobTitle, &app.JobCompanyID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApplicationNotFound
		}
		r.log.Error("Failed to get application", "error", err, "application_id", id)
		return nil, err
	}

	return app, nil
}
