package postgres

import (
	"context"
	"errors"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const conversationColumns = "id, is_group, name, group_image, admin_id, latest_message_id, created_at, updated_at"

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO conversations (id, is_group, name, group_image, admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		conv.ID, conv.IsGroup, conv.Name, conv.GroupImage, conv.AdminID, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, userID := range participantIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
			VALUES ($1, $2, $3)`,
			conv.ID, userID, conv.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	conv, latestID, err := r.scanConversation(ctx, "SELECT "+conversationColumns+" FROM conversations WHERE id = $1", id)
	if err != nil || conv == nil {
		return conv, err
	}
	if err := r.populate(ctx, []*domain.Conversation{conv}, map[uuid.UUID]*uuid.UUID{conv.ID: latestID}); err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *ConversationRepo) FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT c.id FROM conversations c
		WHERE c.is_group = false
			AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $1)
			AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $2)
			AND (SELECT count(*) FROM conversation_participants WHERE conversation_id = c.id) = 2
		LIMIT 1`, userA, userB).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.is_group, c.name, c.group_image, c.admin_id, c.latest_message_id, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
		ORDER BY c.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	latestIDs := make(map[uuid.UUID]*uuid.UUID)
	for rows.Next() {
		var conv domain.Conversation
		var latestID *uuid.UUID
		if err := rows.Scan(
			&conv.ID, &conv.IsGroup, &conv.Name, &conv.GroupImage,
			&conv.AdminID, &latestID, &conv.CreatedAt, &conv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		latestIDs[conv.ID] = latestID
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*domain.Conversation, len(convs))
	for i := range convs {
		refs[i] = &convs[i]
	}
	if err := r.populate(ctx, refs, latestIDs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *ConversationRepo) Update(ctx context.Context, conv *domain.Conversation) error {
	query := `
		UPDATE conversations SET name = $1, group_image = $2, admin_id = $3, updated_at = now()
		WHERE id = $4`
	_, err := r.pool.Exec(ctx, query, conv.Name, conv.GroupImage, conv.AdminID, conv.ID)
	return err
}

func (r *ConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Messages are deleted with the conversation; no orphans may remain.
	if _, err := tx.Exec(ctx, `UPDATE conversations SET latest_message_id = NULL WHERE id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE conversation_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM conversation_participants WHERE conversation_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ConversationRepo) AddParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
		VALUES ($1, $2, now())`, conversationID, userID)
	return err
}

func (r *ConversationRepo) RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2`, conversationID, userID)
	return err
}

func (r *ConversationRepo) SetLatestMessage(ctx context.Context, conversationID uuid.UUID, messageID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversations SET latest_message_id = $1, updated_at = now()
		WHERE id = $2`, messageID, conversationID)
	return err
}

func (r *ConversationRepo) scanConversation(ctx context.Context, query string, args ...any) (*domain.Conversation, *uuid.UUID, error) {
	var conv domain.Conversation
	var latestID *uuid.UUID
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&conv.ID, &conv.IsGroup, &conv.Name, &conv.GroupImage,
		&conv.AdminID, &latestID, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &conv, latestID, nil
}

// populate performs the read-side joins: participant summaries and the
// latest-message summary for each conversation.
func (r *ConversationRepo) populate(ctx context.Context, convs []*domain.Conversation, latestIDs map[uuid.UUID]*uuid.UUID) error {
	if len(convs) == 0 {
		return nil
	}

	convIDs := make([]uuid.UUID, len(convs))
	byID := make(map[uuid.UUID]*domain.Conversation, len(convs))
	for i, c := range convs {
		convIDs[i] = c.ID
		byID[c.ID] = c
		c.Participants = []domain.Participant{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT cp.conversation_id, u.id, u.username, u.avatar_url
		FROM conversation_participants cp
		JOIN users u ON cp.user_id = u.id
		WHERE cp.conversation_id = ANY($1)
		ORDER BY cp.joined_at ASC`, convIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var convID uuid.UUID
		var p domain.Participant
		if err := rows.Scan(&convID, &p.ID, &p.Username, &p.AvatarURL); err != nil {
			return err
		}
		if c, ok := byID[convID]; ok {
			c.Participants = append(c.Participants, p)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var messageIDs []uuid.UUID
	for _, latestID := range latestIDs {
		if latestID != nil {
			messageIDs = append(messageIDs, *latestID)
		}
	}
	if len(messageIDs) == 0 {
		return nil
	}

	msgRows, err := r.pool.Query(ctx, messageSelect+` WHERE m.id = ANY($1)`, messageIDs)
	if err != nil {
		return err
	}
	defer msgRows.Close()

	latest := make(map[uuid.UUID]*domain.Message)
	for msgRows.Next() {
		var msg domain.Message
		if err := msgRows.Scan(
			&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.Image,
			&msg.CreatedAt, &msg.UpdatedAt, &msg.SenderUsername, &msg.SenderAvatar,
		); err != nil {
			return err
		}
		latest[msg.ID] = &msg
	}
	if err := msgRows.Err(); err != nil {
		return err
	}

	msgs := make([]*domain.Message, 0, len(latest))
	for _, m := range latest {
		msgs = append(msgs, m)
	}
	if err := attachReads(ctx, r.pool, msgs); err != nil {
		return err
	}

	for convID, latestID := range latestIDs {
		if latestID == nil {
			continue
		}
		if m, ok := latest[*latestID]; ok {
			byID[convID].LatestMessage = m
		}
	}
	return nil
}
