package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"job_messaging/internal/domain"
	"job_messaging/internal/repository"
	"job_messaging/internal/ws"
	apperrors "job_messaging/pkg/errors"
	"job_messaging/pkg/logger"
)

type ConversationService interface {
	Create(ctx context.Context, employerID, applicationID uuid.UUID) (*domain.Conversation, error)
	GetByID(ctx context.Context, id, requesterID uuid.UUID) (*domain.Conversation, error)
	GetByApplication(ctx context.Context, applicationID, requesterID uuid.UUID) (*domain.Conversation, error)
	List(ctx context.Context, requesterID uuid.UUID, role string, limit, offset int) ([]*domain.ConversationPreview, error)
	Deactivate(ctx context.Context, id, requesterID uuid.UUID) error
}

type conversationService struct {
	convRepo    repository.ConversationRepository
	appRepo     repository.ApplicationRepository
	userRepo    repository.UserRepository
	notifier    NotificationService
	broadcaster Broadcaster
	log         logger.Logger
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	appRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	notifier NotificationService,
	broadcaster Broadcaster,
	log logger.Logger,
) ConversationService {
	return &conversationService{
		convRepo:    convRepo,
		appRepo:     appRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		broadcaster: broadcaster,
		log:         log,
	}
}

// Create — идемпотентный get-or-create: на один отклик максимум один диалог.
// Инициировать контакт может только работодатель, владеющий вакансией.
func (s *conversationService) Create(ctx context.Context, employerID, applicationID uuid.UUID) (*domain.Conversation, error) {
	employer, err := s.userRepo.GetByID(ctx, employerID)
	if err != nil {
		return nil, err
	}
	if !employer.IsEmployer() {
		return nil, apperrors.ErrPermissionDenied
	}

	app, err := s.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	// Вакансия должна принадлежать компании работодателя
	if employer.CompanyID == nil || *employer.CompanyID != app.JobCompanyID {
		return nil, apperrors.ErrPermissionDenied
	}

	if existing, err := s.convRepo.GetByApplicationID(ctx, applicationID); err == nil {
		return existing, nil
	} else if !errors.Is(err, apperrors.ErrConversationNotFound) {
		return nil, err
	}

	now := time.Now()
	conv := &domain.Conversation{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		EmployerID:    employerID,
		JobSeekerID:   app.ApplicantID,
		JobID:         app.JobID,
		IsActive:      true,
		LastMessageAt: now,
		CreatedAt:     now,
	}

	if err := s.convRepo.Create(ctx, conv); err != nil {
		// Гонка двух create: диалог уже появился, возвращаем его
		if errors.Is(err, repository.ErrDuplicateApplication) {
			return s.convRepo.GetByApplicationID(ctx, applicationID)
		}
		return nil, err
	}

	s.notifier.ConversationStarted(ctx, conv, app.JobTitle)

	return conv, nil
}

func (s *conversationService) GetByID(ctx context.Context, id, requesterID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !conv.IsParticipant(requesterID) {
		return nil, apperrors.ErrPermissionDenied
	}

	return conv, nil
}

// GetByApplication отличает "диалога ещё нет" (nil, nil) от "чужой диалог"
func (s *conversationService) GetByApplication(ctx context.Context, applicationID, requesterID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConversationNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !conv.IsParticipant(requesterID) {
		return nil, apperrors.ErrPermissionDenied
	}

	return conv, nil
}

func (s *conversationService) List(ctx context.Context, requesterID uuid.UUID, role string, limit, offset int) ([]*domain.ConversationPreview, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.convRepo.ListByParticipant(ctx, requesterID, role, limit, offset)
}

// Deactivate закрывает диалог для новых сообщений; история остаётся читаемой.
// Закрыть может только работодатель-участник, повторный вызов безвреден.
func (s *conversationService) Deactivate(ctx context.Context, id, requesterID uuid.UUID) error {
	conv, err := s.convRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if conv.EmployerID != requesterID {
		return apperrors.ErrPermissionDenied
	}

	if !conv.IsActive {
		return nil
	}

	if err := s.convRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	summary := ws.ConversationUpdatedPayload{ConversationID: id, IsActive: false}
	s.broadcaster.ToUser(conv.EmployerID, ws.EventConversationUpdated, summary)
	s.broadcaster.ToUser(conv.JobSeekerID, ws.EventConversationUpdated, summary)

	s.log.Info("Conversation deactivated", "conversation_id", id, "employer_id", requesterID)

	return nil
}
