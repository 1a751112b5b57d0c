package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/google/uuid"
)

// In-memory repository implementations backed by a shared store. They mirror
// the database behavior the services rely on, including the cascade delete of
// a conversation's messages and the latest-message pointer being cleared when
// the message it points at is deleted.

type memStore struct {
	users map[uuid.UUID]*domain.User
	convs map[uuid.UUID]*memConversation
	msgs  map[uuid.UUID]*memMessage
	seq   int
}

type memConversation struct {
	conv         domain.Conversation
	participants []uuid.UUID
	latest       *uuid.UUID
}

type memMessage struct {
	msg    domain.Message
	readBy map[uuid.UUID]struct{}
	seq    int
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[uuid.UUID]*domain.User),
		convs: make(map[uuid.UUID]*memConversation),
		msgs:  make(map[uuid.UUID]*memMessage),
	}
}

func (s *memStore) addUser(username string) *domain.User {
	user := &domain.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.users[user.ID] = user
	return user
}

func (s *memStore) messageView(id uuid.UUID) *domain.Message {
	row, ok := s.msgs[id]
	if !ok {
		return nil
	}
	msg := row.msg
	msg.ReadBy = make([]uuid.UUID, 0, len(row.readBy))
	for uid := range row.readBy {
		msg.ReadBy = append(msg.ReadBy, uid)
	}
	sort.Slice(msg.ReadBy, func(i, j int) bool {
		return msg.ReadBy[i].String() < msg.ReadBy[j].String()
	})
	if sender, ok := s.users[msg.SenderID]; ok {
		msg.SenderUsername = sender.Username
		msg.SenderAvatar = sender.AvatarURL
	}
	return &msg
}

func (s *memStore) conversationView(id uuid.UUID) *domain.Conversation {
	row, ok := s.convs[id]
	if !ok {
		return nil
	}
	conv := row.conv
	conv.Participants = make([]domain.Participant, 0, len(row.participants))
	for _, uid := range row.participants {
		if user, ok := s.users[uid]; ok {
			conv.Participants = append(conv.Participants, user.Summary())
		} else {
			conv.Participants = append(conv.Participants, domain.Participant{ID: uid})
		}
	}
	if row.latest != nil {
		conv.LatestMessage = s.messageView(*row.latest)
	}
	return &conv
}

type memUserRepo struct{ store *memStore }

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	u := *user
	r.store.users[user.ID] = &u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	u := *user
	return &u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.store.users {
		if user.Email == email {
			u := *user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.store.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	u := *user
	r.store.users[user.ID] = &u
	return nil
}

func (r *memUserRepo) Search(_ context.Context, query string, excludeID uuid.UUID) ([]domain.User, error) {
	q := strings.ToLower(query)
	var out []domain.User
	for _, user := range r.store.users {
		if user.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(user.Username), q) ||
			strings.Contains(strings.ToLower(user.Email), q) {
			out = append(out, *user)
		}
	}
	return out, nil
}

type memConvRepo struct{ store *memStore }

func (r *memConvRepo) Create(_ context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error {
	r.store.convs[conv.ID] = &memConversation{
		conv:         *conv,
		participants: append([]uuid.UUID(nil), participantIDs...),
	}
	return nil
}

func (r *memConvRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return r.store.conversationView(id), nil
}

func (r *memConvRepo) FindDirect(_ context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	for id, row := range r.store.convs {
		if row.conv.IsGroup || len(row.participants) != 2 {
			continue
		}
		pair := map[uuid.UUID]struct{}{row.participants[0]: {}, row.participants[1]: {}}
		if _, okA := pair[userA]; !okA {
			continue
		}
		if _, okB := pair[userB]; !okB {
			continue
		}
		return r.store.conversationView(id), nil
	}
	return nil, nil
}

func (r *memConvRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for id, row := range r.store.convs {
		for _, pid := range row.participants {
			if pid == userID {
				out = append(out, *r.store.conversationView(id))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *memConvRepo) Update(_ context.Context, conv *domain.Conversation) error {
	row, ok := r.store.convs[conv.ID]
	if !ok {
		return nil
	}
	row.conv.Name = conv.Name
	row.conv.GroupImage = conv.GroupImage
	row.conv.AdminID = conv.AdminID
	row.conv.UpdatedAt = time.Now()
	return nil
}

func (r *memConvRepo) Delete(_ context.Context, id uuid.UUID) error {
	for msgID, row := range r.store.msgs {
		if row.msg.ConversationID == id {
			delete(r.store.msgs, msgID)
		}
	}
	delete(r.store.convs, id)
	return nil
}

func (r *memConvRepo) AddParticipant(_ context.Context, conversationID, userID uuid.UUID) error {
	row, ok := r.store.convs[conversationID]
	if !ok {
		return nil
	}
	row.participants = append(row.participants, userID)
	return nil
}

func (r *memConvRepo) RemoveParticipant(_ context.Context, conversationID, userID uuid.UUID) error {
	row, ok := r.store.convs[conversationID]
	if !ok {
		return nil
	}
	kept := row.participants[:0]
	for _, pid := range row.participants {
		if pid != userID {
			kept = append(kept, pid)
		}
	}
	row.participants = kept
	return nil
}

func (r *memConvRepo) SetLatestMessage(_ context.Context, conversationID uuid.UUID, messageID *uuid.UUID) error {
	row, ok := r.store.convs[conversationID]
	if !ok {
		return nil
	}
	row.latest = messageID
	row.conv.UpdatedAt = time.Now()
	return nil
}

type memMessageRepo struct{ store *memStore }

func (r *memMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.store.seq++
	readBy := map[uuid.UUID]struct{}{msg.SenderID: {}}
	r.store.msgs[msg.ID] = &memMessage{msg: *msg, readBy: readBy, seq: r.store.seq}
	return nil
}

func (r *memMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	return r.store.messageView(id), nil
}

func (r *memMessageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	var rows []*memMessage
	for _, row := range r.store.msgs {
		if row.msg.ConversationID == conversationID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, *r.store.messageView(row.msg.ID))
	}
	return out, nil
}

func (r *memMessageRepo) MarkConversationRead(_ context.Context, conversationID, userID uuid.UUID) (int64, error) {
	var marked int64
	for _, row := range r.store.msgs {
		if row.msg.ConversationID != conversationID || row.msg.SenderID == userID {
			continue
		}
		if _, ok := row.readBy[userID]; ok {
			continue
		}
		row.readBy[userID] = struct{}{}
		marked++
	}
	return marked, nil
}

func (r *memMessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.msgs, id)
	// The latest-message foreign key is ON DELETE SET NULL.
	for _, row := range r.store.convs {
		if row.latest != nil && *row.latest == id {
			row.latest = nil
		}
	}
	return nil
}

func (r *memMessageRepo) LatestID(_ context.Context, conversationID uuid.UUID) (*uuid.UUID, error) {
	var best *memMessage
	for _, row := range r.store.msgs {
		if row.msg.ConversationID != conversationID {
			continue
		}
		if best == nil || row.seq > best.seq {
			best = row
		}
	}
	if best == nil {
		return nil, nil
	}
	id := best.msg.ID
	return &id, nil
}

// recordingNotifier captures broadcast calls for assertions.
type recordingNotifier struct {
	newMessages []uuid.UUID
	deleted     []uuid.UUID
	reads       []uuid.UUID
}

func (n *recordingNotifier) NotifyNewMessage(msg *domain.Message) {
	n.newMessages = append(n.newMessages, msg.ID)
}

func (n *recordingNotifier) NotifyMessageDeleted(_, messageID uuid.UUID) {
	n.deleted = append(n.deleted, messageID)
}

func (n *recordingNotifier) NotifyMessageRead(_, userID uuid.UUID) {
	n.reads = append(n.reads, userID)
}
