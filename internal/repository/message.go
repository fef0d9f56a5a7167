package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job_messaging/internal/domain"
	apperrors "job_messaging/pkg/errors"
	"job_messaging/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.ChatMessage) error
	GetByID(ctx context.Context, messageID int64) (*domain.ChatMessage, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*domain.ChatMessage, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
	Update(ctx context.Context, message *domain.ChatMessage) error
	SoftDelete(ctx context.Context, messageID int64) error
	UnreadCountForUser(ctx context.Context, userID uuid.UUID, role string) (int64, error)
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (conversation_id, sender_id, content, message_type,
			attachment_url, attachment_name, attachment_size, attachment_mime, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	var attURL, attName, attMime *string
	var attSize *int64
	if message.Attachment != nil {
		attURL = &message.Attachment.URL
		attName = &message.Attachment.Name
		attSize = &message.Attachment.Size
		attMime = &message.Attachment.MimeType
	}

	err := r.db.QueryRow(ctx, query,
		message.ConversationID, message.SenderID, message.Content, message.MessageType,
		attURL, attName, attSize, attMime, message.IsRead, message.CreatedAt,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create message", "error", err)
		return err
	}

	return nil
}

const messageColumns = `id, conversation_id, sender_id, content, message_type,
	attachment_url, attachment_name, attachment_size, attachment_mime,
	is_read, read_at, is_edited, edited_at, is_deleted, deleted_at, created_at`

func scanMessage(row pgx.Row) (*domain.ChatMessage, error) {
	message := &domain.ChatMessage{}
	var (
		content  sql.NullString
		attURL   sql.NullString
		attName  sql.NullString
		attSize  sql.NullInt64
		attMime  sql.NullString
		readAt   sql.NullTime
		editedAt sql.NullTime
		deleted  sql.NullTime
	)

	err := row.Scan(
		&message.ID, &message.ConversationID, &message.SenderID, &content, &message.MessageType,
		&attURL, &attName, &attSize, &attMime,
		&message.IsRead, &readAt, &message.IsEdited, &editedAt, &message.IsDeleted, &deleted, &message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if content.Valid {
		message.Content = &content.String
	}
	if attURL.Valid {
		message.Attachment = &domain.Attachment{
			URL:      attURL.String,
			Name:     attName.String,
			Size:     attSize.Int64,
			MimeType: attMime.String,
		}
	}
	if readAt.Valid {
		message.ReadAt = &readAt.Time
	}
	if editedAt.Valid {
		message.EditedAt = &editedAt.Time
	}
	if deleted.Valid {
		message.DeletedAt = &deleted.Time
	}

	return message, nil
}

func (r *messageRepository) GetByID(ctx context.Context, messageID int64) (*domain.ChatMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM chat_messages WHERE id = $1`

	message, err := scanMessage(r.db.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		r.log.Error("Failed to get message", "error", err, "message_id", messageID)
		return nil, err
	}

	return message, nil
}

// ListByConversation отдаёт страницу от новых к старым, без удалённых
func (r *messageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*domain.ChatMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE conversation_id = $1 AND is_deleted = false
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list messages", "error", err, "conversation_id", conversationID)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

// MarkRead массово помечает прочитанными чужие сообщения диалога, флаг только false→true
func (r *messageRepository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	query := `
		UPDATE chat_messages
		SET is_read = true, read_at = $3
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = false AND is_deleted = false
	`

	tag, err := r.db.Exec(ctx, query, conversationID, readerID, time.Now())
	if err != nil {
		r.log.Error("Failed to mark messages read", "error", err, "conversation_id", conversationID)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (r *messageRepository) Update(ctx context.Context, message *domain.ChatMessage) error {
	query := `
		UPDATE chat_messages
		SET content = $2, is_edited = true, edited_at = $3
		WHERE id = $1
		RETURNING edited_at
	`

	err := r.db.QueryRow(ctx, query, message.ID, message.Content, time.Now()).Scan(&message.EditedAt)
	if err != nil {
		r.log.Error("Failed to update message", "error", err, "message_id", message.ID)
		return err
	}
	message.IsEdited = true

	return nil
}

// SoftDelete сохраняет строку ради порядка, но зануляет содержимое и вложение
func (r *messageRepository) SoftDelete(ctx context.Context, messageID int64) error {
	query := `
		UPDATE chat_messages
		SET is_deleted = true, deleted_at = $2, content = NULL,
		    attachment_url = NULL, attachment_name = NULL, attachment_size = NULL, attachment_mime = NULL
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, messageID, time.Now())
	if err != nil {
		r.log.Error("Failed to delete message", "error", err, "message_id", messageID)
		return err
	}

	return nil
}

func (r *messageRepository) UnreadCountForUser(ctx context.Context, userID uuid.UUID, role string) (int64, error) {
	participantColumn := "job_seeker_id"
	if role == domain.RoleEmployer {
		participantColumn = "employer_id"
	}

	query := `
		SELECT count(*)
		FROM chat_messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.` + participantColumn + ` = $1
		  AND m.sender_id <> $1 AND m.is_read = false AND m.is_deleted = false
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count unread messages", "error", err, "user_id", userID)
		return 0, err
	}

	return count, nil
}
