package chatclient

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/AvineetYadav/CHAT-APP/internal/transport/ws"
	"github.com/google/uuid"
)

// TypingTimeout bounds how long a typing indicator survives without a
// stopTyping event, so a dropped event can't leave it stuck.
const TypingTimeout = 2 * time.Second

// Store merges REST-fetched state with pushed events. The server stays the
// source of truth: events either patch the cached views directly or flag
// them stale so the owner refetches.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	conversations []domain.Conversation
	listStale     bool

	openID       uuid.UUID
	openMessages []domain.Message
	openStale    bool

	online map[string]struct{}
	typing map[uuid.UUID]map[uuid.UUID]time.Time
}

func NewStore() *Store {
	return &Store{
		now:    time.Now,
		online: make(map[string]struct{}),
		typing: make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

// SetConversations replaces the cached conversation list after a refetch.
func (s *Store) SetConversations(convs []domain.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = convs
	s.listStale = false
}

func (s *Store) Conversations() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// ListStale reports whether the conversation list needs a refetch.
func (s *Store) ListStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listStale
}

// Open sets the currently viewed conversation and its fetched messages.
func (s *Store) Open(conversationID uuid.UUID, messages []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openID = conversationID
	s.openMessages = messages
	s.openStale = false
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openID = uuid.Nil
	s.openMessages = nil
	s.openStale = false
}

func (s *Store) OpenID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openID
}

func (s *Store) OpenMessages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.openMessages))
	copy(out, s.openMessages)
	return out
}

// OpenStale reports whether the open conversation's messages need a refetch
// (e.g. read receipts changed).
func (s *Store) OpenStale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openStale
}

func (s *Store) OnlineUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.online))
	for id := range s.online {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Store) IsOnline(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.online[userID.String()]
	return ok
}

// TypingUsers returns who is currently typing in a conversation, dropping
// entries older than TypingTimeout.
func (s *Store) TypingUsers(conversationID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.typing[conversationID]
	cutoff := s.now().Add(-TypingTimeout)
	var out []uuid.UUID
	for id, at := range users {
		if at.Before(cutoff) {
			delete(users, id)
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Apply folds a pushed event into the cached state.
func (s *Store) Apply(event *ws.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case ws.EventOnlineUsers:
		var ids []string
		if err := json.Unmarshal(event.Payload, &ids); err != nil {
			return err
		}
		s.online = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			s.online[id] = struct{}{}
		}

	case ws.EventNewMessage:
		var msg domain.Message
		if err := json.Unmarshal(event.Payload, &msg); err != nil {
			return err
		}
		// The list is always invalidated: ordering, preview and unread
		// badges change no matter which conversation got the message.
		s.listStale = true
		if msg.ConversationID == s.openID {
			s.openMessages = append(s.openMessages, msg)
		}
		// A delivered message ends the sender's typing indicator.
		s.removeTyping(msg.ConversationID, msg.SenderID)

	case ws.EventMessageDeleted:
		var p ws.MessageDeletedPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		s.listStale = true
		if p.ConversationID == s.openID {
			for i, m := range s.openMessages {
				if m.ID == p.MessageID {
					s.openMessages = append(s.openMessages[:i], s.openMessages[i+1:]...)
					break
				}
			}
		}

	case ws.EventMessageRead:
		var p ws.MessageReadPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		if p.ConversationID == s.openID {
			s.openStale = true
		}

	case ws.EventUserStartedTyping:
		var p ws.TypingPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		users := s.typing[p.ConversationID]
		if users == nil {
			users = make(map[uuid.UUID]time.Time)
			s.typing[p.ConversationID] = users
		}
		users[p.UserID] = s.now()

	case ws.EventUserStoppedTyping:
		var p ws.TypingPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		s.removeTyping(p.ConversationID, p.UserID)
	}

	return nil
}

func (s *Store) removeTyping(conversationID, userID uuid.UUID) {
	if users := s.typing[conversationID]; users != nil {
		delete(users, userID)
	}
}
