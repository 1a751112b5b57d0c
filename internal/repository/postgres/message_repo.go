package postgres

import (
	"context"
	"errors"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageSelect = `
	SELECT m.id, m.conversation_id, m.sender_id, m.content, m.image_url,
		m.created_at, m.updated_at, u.username, u.avatar_url
	FROM messages m
	JOIN users u ON m.sender_id = u.id`

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.Image, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return err
	}

	// The sender has implicitly read their own message.
	_, err = tx.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id, read_at)
		VALUES ($1, $2, $3)`,
		msg.ID, msg.SenderID, msg.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var msg domain.Message
	err := r.pool.QueryRow(ctx, messageSelect+` WHERE m.id = $1`, id).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.Image,
		&msg.CreatedAt, &msg.UpdatedAt, &msg.SenderUsername, &msg.SenderAvatar,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := attachReads(ctx, r.pool, []*domain.Message{&msg}); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, messageSelect+`
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.Image,
			&msg.CreatedAt, &msg.UpdatedAt, &msg.SenderUsername, &msg.SenderAvatar,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*domain.Message, len(messages))
	for i := range messages {
		refs[i] = &messages[i]
	}
	if err := attachReads(ctx, r.pool, refs); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepo) MarkConversationRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO message_reads (message_id, user_id, read_at)
		SELECT m.id, $2, now()
		FROM messages m
		WHERE m.conversation_id = $1
			AND m.sender_id <> $2
			AND NOT EXISTS (
				SELECT 1 FROM message_reads r
				WHERE r.message_id = m.id AND r.user_id = $2
			)`, conversationID, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// message_reads rows go with the message; the conversation's
	// latest_message_id is set to NULL by the schema and recomputed by the
	// caller.
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *MessageRepo) LatestID(ctx context.Context, conversationID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, conversationID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// attachReads fills ReadBy for the given messages in one query.
func attachReads(ctx context.Context, pool *pgxpool.Pool, messages []*domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(messages))
	byID := make(map[uuid.UUID]*domain.Message, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
		byID[m.ID] = m
		m.ReadBy = []uuid.UUID{}
	}

	rows, err := pool.Query(ctx, `
		SELECT message_id, user_id FROM message_reads
		WHERE message_id = ANY($1)
		ORDER BY read_at ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var messageID, userID uuid.UUID
		if err := rows.Scan(&messageID, &userID); err != nil {
			return err
		}
		if m, ok := byID[messageID]; ok {
			m.ReadBy = append(m.ReadBy, userID)
		}
	}
	return rows.Err()
}
