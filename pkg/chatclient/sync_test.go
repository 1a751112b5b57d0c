package chatclient

import (
	"testing"
	"time"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/AvineetYadav/CHAT-APP/internal/transport/ws"
	"github.com/google/uuid"
)

func mustEvent(t *testing.T, eventType string, payload any) *ws.Event {
	t.Helper()
	evt, err := ws.NewEvent(eventType, payload)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	return evt
}

func apply(t *testing.T, store *Store, eventType string, payload any) {
	t.Helper()
	if err := store.Apply(mustEvent(t, eventType, payload)); err != nil {
		t.Fatalf("Apply %s: %v", eventType, err)
	}
}

func TestApplyOnlineUsers(t *testing.T) {
	store := NewStore()
	alice := uuid.New()
	bob := uuid.New()

	apply(t, store, ws.EventOnlineUsers, []string{alice.String(), bob.String()})
	if !store.IsOnline(alice) || !store.IsOnline(bob) {
		t.Error("both users should be online")
	}

	// The payload is a full replacement, not a delta.
	apply(t, store, ws.EventOnlineUsers, []string{bob.String()})
	if store.IsOnline(alice) {
		t.Error("alice should be offline after replacement")
	}
	if got := store.OnlineUsers(); len(got) != 1 || got[0] != bob.String() {
		t.Errorf("unexpected online list %v", got)
	}
}

func TestApplyNewMessage(t *testing.T) {
	store := NewStore()
	convID := uuid.New()
	store.Open(convID, nil)

	content := "hello"
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		SenderID:       uuid.New(),
		Content:        &content,
	}
	apply(t, store, ws.EventNewMessage, msg)

	if !store.ListStale() {
		t.Error("conversation list should be stale after a new message")
	}
	open := store.OpenMessages()
	if len(open) != 1 || open[0].ID != msg.ID {
		t.Errorf("open messages should contain the new message, got %v", open)
	}
}

func TestApplyNewMessageOtherConversation(t *testing.T) {
	store := NewStore()
	store.Open(uuid.New(), nil)

	content := "elsewhere"
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: uuid.New(),
		SenderID:       uuid.New(),
		Content:        &content,
	}
	apply(t, store, ws.EventNewMessage, msg)

	if !store.ListStale() {
		t.Error("list should be stale regardless of which conversation")
	}
	if len(store.OpenMessages()) != 0 {
		t.Error("open view should be untouched")
	}
}

func TestApplyMessageDeleted(t *testing.T) {
	store := NewStore()
	convID := uuid.New()
	content := "bye"
	msg := domain.Message{ID: uuid.New(), ConversationID: convID, Content: &content}
	store.Open(convID, []domain.Message{msg})

	apply(t, store, ws.EventMessageDeleted, ws.MessageDeletedPayload{
		MessageID:      msg.ID,
		ConversationID: convID,
	})

	if len(store.OpenMessages()) != 0 {
		t.Error("deleted message should be removed from the open view")
	}
	if !store.ListStale() {
		t.Error("list should be stale: the preview may have changed")
	}
}

func TestApplyMessageRead(t *testing.T) {
	store := NewStore()
	convID := uuid.New()
	store.Open(convID, nil)

	apply(t, store, ws.EventMessageRead, ws.MessageReadPayload{
		ConversationID: uuid.New(),
		UserID:         uuid.New(),
	})
	if store.OpenStale() {
		t.Error("read receipt for another conversation should not flag the open view")
	}

	apply(t, store, ws.EventMessageRead, ws.MessageReadPayload{
		ConversationID: convID,
		UserID:         uuid.New(),
	})
	if !store.OpenStale() {
		t.Error("read receipt for the open conversation should flag a refetch")
	}

	// Refetching clears the flag.
	store.Open(convID, nil)
	if store.OpenStale() {
		t.Error("Open should reset the stale flag")
	}
}

func TestTypingIndicator(t *testing.T) {
	store := NewStore()
	convID := uuid.New()
	typist := uuid.New()

	apply(t, store, ws.EventUserStartedTyping, ws.TypingPayload{
		ConversationID: convID,
		UserID:         typist,
	})
	got := store.TypingUsers(convID)
	if len(got) != 1 || got[0] != typist {
		t.Errorf("expected %s typing, got %v", typist, got)
	}

	apply(t, store, ws.EventUserStoppedTyping, ws.TypingPayload{
		ConversationID: convID,
		UserID:         typist,
	})
	if got := store.TypingUsers(convID); len(got) != 0 {
		t.Errorf("expected nobody typing, got %v", got)
	}
}

func TestTypingIndicatorExpires(t *testing.T) {
	store := NewStore()
	convID := uuid.New()
	typist := uuid.New()

	current := time.Now()
	store.now = func() time.Time { return current }

	apply(t, store, ws.EventUserStartedTyping, ws.TypingPayload{
		ConversationID: convID,
		UserID:         typist,
	})
	if got := store.TypingUsers(convID); len(got) != 1 {
		t.Fatalf("expected 1 typist, got %v", got)
	}

	// A lost stopTyping event must not leave the indicator stuck.
	current = current.Add(TypingTimeout + time.Millisecond)
	if got := store.TypingUsers(convID); len(got) != 0 {
		t.Errorf("indicator should expire after %v, got %v", TypingTimeout, got)
	}
}

func TestNewMessageClearsTyping(t *testing.T) {
	store := NewStore()
	convID := uuid.New()
	typist := uuid.New()
	store.Open(convID, nil)

	apply(t, store, ws.EventUserStartedTyping, ws.TypingPayload{
		ConversationID: convID,
		UserID:         typist,
	})

	content := "done typing"
	apply(t, store, ws.EventNewMessage, domain.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		SenderID:       typist,
		Content:        &content,
	})

	if got := store.TypingUsers(convID); len(got) != 0 {
		t.Errorf("sender's typing indicator should clear on delivery, got %v", got)
	}
}

func TestSetConversationsClearsStale(t *testing.T) {
	store := NewStore()
	convID := uuid.New()

	content := "hi"
	apply(t, store, ws.EventNewMessage, domain.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		SenderID:       uuid.New(),
		Content:        &content,
	})
	if !store.ListStale() {
		t.Fatal("list should be stale")
	}

	store.SetConversations([]domain.Conversation{{ID: convID}})
	if store.ListStale() {
		t.Error("SetConversations should reset the stale flag")
	}
	if got := store.Conversations(); len(got) != 1 || got[0].ID != convID {
		t.Errorf("unexpected conversations %v", got)
	}
}
