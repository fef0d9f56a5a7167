package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"job_messaging/internal/domain"
	apperrors "job_messaging/pkg/errors"
	"job_messaging/pkg/logger"
)

type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Conversation, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, role string, limit, offset int) ([]*domain.ConversationPreview, error)
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ErrDuplicateApplication возвращается при гонке двух create на один отклик
var ErrDuplicateApplication = errors.New("conversation for application already exists")

type conversationRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewConversationRepository(db *pgxpool.Pool, log logger.Logger) ConversationRepository {
	return &conversationRepository{db: db, log: log}
}

func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, application_id, employer_id, job_seeker_id, job_id, is_active, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		conv.ID, conv.ApplicationID, conv.EmployerID, conv.JobSeekerID,
		conv.JobID, conv.IsActive, conv.LastMessageAt, conv.CreatedAt,
	).Scan(&conv.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 — уникальный индекс по application_id
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateApplication
		}
		r.log.Error("Failed to create conversation", "error", err)
		return err
	}

	return nil
}

const conversationColumns = `id, application_id, employer_id, job_seeker_id, job_id, is_active, last_message_at, created_at`

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	conv := &domain.Conversation{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.ApplicationID, &conv.EmployerID, &conv.JobSeekerID,
		&conv.JobID, &conv.IsActive, &conv.LastMessageAt, &conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		r.log.Error("Failed to get conversation", "error", err, "conversation_id", id)
		return nil, err
	}

	return conv, nil
}

func (r *conversationRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE application_id = $1`

	conv := &domain.Conversation{}
	err := r.db.QueryRow(ctx, query, applicationID).Scan(
		&conv.ID, &conv.ApplicationID, &conv.EmployerID, &conv.JobSeekerID,
		&conv.JobID, &conv.IsActive, &conv.LastMessageAt, &conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		r.log.Error("Failed to get conversation by application", "error", err, "application_id", applicationID)
		return nil, err
	}

	return conv, nil
}

func (r *conversationRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, role string, limit, offset int) ([]*domain.ConversationPreview, error) {
	// Работодатель видит диалоги по employer_id, соискатель — по job_seeker_id
	participantColumn := "job_seeker_id"
	if role == domain.RoleEmployer {
		participantColumn = "employer_id"
	}

	query := `
		SELECT c.id, c.application_id, c.employer_id, c.job_seeker_id, c.job_id, c.is_active, c.last_message_at, c.created_at,
		       m.id, m.conversation_id, m.sender_id, m.content, m.message_type,
		       m.attachment_url, m.attachment_name, m.attachment_size, m.attachment_mime,
		       m.is_read, m.read_at, m.is_edited, m.edited_at, m.created_at,
		       (SELECT count(*) FROM chat_messages u
		        WHERE u.conversation_id = c.id AND u.is_read = false AND u.is_deleted = false AND u.sender_id <> $1)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT * FROM chat_messages lm
			WHERE lm.conversation_id = c.id AND lm.is_deleted = false
			ORDER BY lm.id DESC
			LIMIT 1
		) m ON true
		WHERE c.` + participantColumn + ` = $1
		ORDER BY c.last_message_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list conversations", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	var previews []*domain.ConversationPreview
	for rows.Next() {
		conv := &domain.Conversation{}
		var (
			msgID       sql.NullInt64
			msgConvID   *uuid.UUID
			msgSenderID *uuid.UUID
			content     sql.NullString
			messageType sql.NullString
			attURL      sql.NullString
			attName     sql.NullString
			attSize     sql.NullInt64
			attMime     sql.NullString
			isRead      sql.NullBool
			readAt      sql.NullTime
			isEdited    sql.NullBool
			editedAt    sql.NullTime
			msgCreated  sql.NullTime
			unread      int
		)

		err := rows.Scan(
			&conv.ID, &conv.ApplicationID, &conv.EmployerID, &conv.JobSeekerID,
			&conv.JobID, &conv.IsActive, &conv.LastMessageAt, &conv.CreatedAt,
			&msgID, &msgConvID, &msgSenderID, &content, &messageType,
			&attURL, &attName, &attSize, &attMime,
			&isRead, &readAt, &isEdited, &editedAt, &msgCreated,
			&unread,
		)
		if err != nil {
			r.log.Error("Failed to scan conversation preview", "error", err)
			return nil, err
		}

		preview := &domain.ConversationPreview{Conversation: conv, UnreadCount: unread}
		if msgID.Valid {
			msg := &domain.ChatMessage{
				ID:             msgID.Int64,
				ConversationID: *msgConvID,
				SenderID:       *msgSenderID,
				MessageType:    messageType.String,
				IsRead:         isRead.Bool,
				IsEdited:       isEdited.Bool,
				CreatedAt:      msgCreated.Time,
			}
			if content.Valid {
				msg.Content = &content.String
			}
			if attURL.Valid {
				msg.Attachment = &domain.Attachment{
					URL:      attURL.String,
					Name:     attName.String,
					Size:     attSize.Int64,
					MimeType: attMime.String,
				}
			}
			if readAt.Valid {
				msg.ReadAt = &readAt.Time
			}
			if editedAt.Valid {
				msg.EditedAt = &editedAt.Time
			}
			preview.LastMessage = msg
		}

		previews = append(previews, preview)
	}

	return previews, rows.Err()
}

func (r *conversationRepository) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE conversations SET last_message_at = $2 WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to touch last_message_at", "error", err, "conversation_id", id)
		return err
	}

	return nil
}

func (r *conversationRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE conversations SET is_active = false WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to deactivate conversation", "error", err, "conversation_id", id)
		return err
	}

	return nil
}
