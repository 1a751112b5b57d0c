package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func newMessageFixture() (*memStore, *ConversationService, *MessageService, *recordingNotifier) {
	store := newMemStore()
	convSvc := NewConversationService(&memConvRepo{store}, &memUserRepo{store})
	msgSvc := NewMessageService(&memMessageRepo{store}, &memConvRepo{store})
	notifier := &recordingNotifier{}
	msgSvc.SetNotifier(notifier)
	return store, convSvc, msgSvc, notifier
}

func TestSendMessage(t *testing.T) {
	store, convSvc, msgSvc, notifier := newMessageFixture()
	alice := store.addUser("alice")
	bob := store.addUser("bob")

	conv, err := convSvc.Create(context.Background(), alice.ID, CreateConversationInput{
		UserIDs: []uuid.UUID{bob.ID},
	})
	if err != nil {
		t.Fatalf("Create conversation: %v", err)
	}

	msg, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{
		ConversationID: conv.ID,
		Content:        "hello",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Content == nil || *msg.Content != "hello" {
		t.Errorf("unexpected content %v", msg.Content)
	}
	if msg.SenderUsername != "alice" {
		t.Errorf("expected sender username alice, got %q", msg.SenderUsername)
	}
	// The sender has read their own message from the start.
	if !msg.ReadByUser(alice.ID) {
		t.Error("sender should be in readBy")
	}
	if msg.ReadByUser(bob.ID) {
		t.Error("recipient should not be in readBy yet")
	}
	if len(notifier.newMessages) != 1 || notifier.newMessages[0] != msg.ID {
		t.Errorf("expected one newMessage broadcast for %s, got %v", msg.ID, notifier.newMessages)
	}
}

func TestSendMessageUpdatesLatest(t *testing.T) {
	store, convSvc, msgSvc, _ := newMessageFixture()
	alice := store.addUser("alice")
	bob := store.addUser("bob")

	conv, err := convSvc.Create(context.Background(), alice.ID, CreateConversationInput{
		UserIDs: []uuid.UUID{bob.ID},
	})
	if err != nil {
		t.Fatalf("Create conversation: %v", err)
	}

	if _, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{ConversationID: conv.ID, Content: "one"}); err != nil {
		t.Fatalf("Send first: %v", err)
	}
	second, err := msgSvc.Send(context.Background(), bob.ID, SendMessageInput{ConversationID: conv.ID, Content: "two"})
	if err != nil {
		t.Fatalf("Send second: %v", err)
	}

	got, err := convSvc.Get(context.Background(), alice.ID, conv.ID)
	if err != nil {
		t.Fatalf("Get conversation: %v", err)
	}
	if got.LatestMessage == nil || got.LatestMessage.ID != second.ID {
		t.Errorf("latest message should be %s, got %+v", second.ID, got.LatestMessage)
	}
}

func TestSendMessageValidation(t *testing.T) {
	store, convSvc, msgSvc, _ := newMessageFixture()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	eve := store.addUser("eve")

	conv, err := convSvc.Create(context.Background(), alice.ID, CreateConversationInput{
		UserIDs: []uuid.UUID{bob.ID},
	})
	if err != nil {
		t.Fatalf("Create conversation: %v", err)
	}

	if _, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{ConversationID: conv.ID}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := msgSvc.Send(context.Background(), eve.ID, SendMessageInput{ConversationID: conv.ID, Content: "hi"}); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{ConversationID: uuid.New(), Content: "hi"}); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}

	// An image alone is a valid message.
	image := "/uploads/pic.png"
	msg, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{ConversationID: conv.ID, Image: image})
	if err != nil {
		t.Fatalf("Send image: %v", err)
	}
	if msg.Image == nil || *msg.Image != image {
		t.Errorf("unexpected image %v", msg.Image)
	}
	if msg.Content != nil {
		t.Errorf("content should be absent, got %v", msg.Content)
	}
}

func TestListMarksMessagesRead(t *testing.T) {
	store, convSvc, msgSvc, notifier := newMessageFixture()
	alice := store.addUser("alice")
	bob := store.addUser("bob")

	conv, err := convSvc.Create(context.Background(), alice.ID, CreateConversationInput{
		UserIDs: []uuid.UUID{bob.ID},
	})
	if err != nil {
		t.Fatalf("Create conversation: %v", err)
	}
	if _, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{ConversationID: conv.ID, Content: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs, err := msgSvc.List(context.Background(), bob.ID, conv.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	// Viewing marks read: the returned payload already reflects it.
	if !msgs[0].ReadByUser(alice.ID) || !msgs[0].ReadByUser(bob.ID) {
		t.Errorf("both participants should be in readBy, got %v", msgs[0].ReadBy)
	}
	if len(notifier.reads) == 0 || notifier.reads[len(notifier.reads)-1] != bob.ID {
		t.Errorf("expected messageRead broadcast for bob, got %v", notifier.reads)
	}

	// Listing again is idempotent.
	again, err := msgSvc.List(context.Background(), bob.ID, conv.ID)
	if err != nil {
		t.Fatalf("List again: %v", err)
	}
	if len(again[0].ReadBy) != 2 {
		t.Errorf("readBy should stay at 2 entries, got %v", again[0].ReadBy)
	}
}

func TestListRequiresMembership(t *testing.T) {
	store, convSvc, msgSvc, _ := newMessageFixture()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	eve := store.addUser("eve")

	conv, err := convSvc.Create(context.Background(), alice.ID, CreateConversationInput{
		UserIDs: []uuid.UUID{bob.ID},
	})
	if err != nil {
		t.Fatalf("Create conversation: %v", err)
	}

	if _, err := msgSvc.List(context.Background(), eve.ID, conv.ID); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	store, convSvc, msgSvc, notifier := newMessageFixture()
	alice := store.addUser("alice")
	bob := store.addUser("bob")

	conv, err := convSvc.Create(context.Background(), alice.ID, CreateConversationInput{
		UserIDs: []uuid.UUID{bob.ID},
	})
	if err != nil {
		t.Fatalf("Create conversation: %v", err)
	}
	msg, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{ConversationID: conv.ID, Content: "hello"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := msgSvc.Delete(context.Background(), bob.ID, msg.ID); !errors.Is(err, ErrNotMessageSender) {
		t.Errorf("expected ErrNotMessageSender, got %v", err)
	}
	if err := msgSvc.Delete(context.Background(), alice.ID, uuid.New()); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("expected ErrMessageNotFound, got %v", err)
	}

	if err := msgSvc.Delete(context.Background(), alice.ID, msg.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.msgs) != 0 {
		t.Errorf("message should be gone, %d remain", len(store.msgs))
	}
	if len(notifier.deleted) != 1 || notifier.deleted[0] != msg.ID {
		t.Errorf("expected one messageDeleted broadcast for %s, got %v", msg.ID, notifier.deleted)
	}
}

func TestDeleteMessageRepointsLatest(t *testing.T) {
	store, convSvc, msgSvc, _ := newMessageFixture()
	alice := store.addUser("alice")
	bob := store.addUser("bob")

	conv, err := convSvc.Create(context.Background(), alice.ID, CreateConversationInput{
		UserIDs: []uuid.UUID{bob.ID},
	})
	if err != nil {
		t.Fatalf("Create conversation: %v", err)
	}

	first, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{ConversationID: conv.ID, Content: "one"})
	if err != nil {
		t.Fatalf("Send first: %v", err)
	}
	second, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{ConversationID: conv.ID, Content: "two"})
	if err != nil {
		t.Fatalf("Send second: %v", err)
	}

	if err := msgSvc.Delete(context.Background(), alice.ID, second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := convSvc.Get(context.Background(), alice.ID, conv.ID)
	if err != nil {
		t.Fatalf("Get conversation: %v", err)
	}
	if got.LatestMessage == nil || got.LatestMessage.ID != first.ID {
		t.Errorf("latest should repoint to %s, got %+v", first.ID, got.LatestMessage)
	}

	// Deleting the only remaining message clears the pointer.
	if err := msgSvc.Delete(context.Background(), alice.ID, first.ID); err != nil {
		t.Fatalf("Delete last: %v", err)
	}
	got, err = convSvc.Get(context.Background(), alice.ID, conv.ID)
	if err != nil {
		t.Fatalf("Get conversation: %v", err)
	}
	if got.LatestMessage != nil {
		t.Errorf("latest should be cleared, got %+v", got.LatestMessage)
	}
}

// The full direct-message flow: start a chat, exchange messages, read them.
func TestDirectConversationFlow(t *testing.T) {
	store, convSvc, msgSvc, _ := newMessageFixture()
	alice := store.addUser("alice")
	bob := store.addUser("bob")

	conv, err := convSvc.Create(context.Background(), alice.ID, CreateConversationInput{
		UserIDs: []uuid.UUID{bob.ID},
	})
	if err != nil {
		t.Fatalf("Create conversation: %v", err)
	}

	sent, err := msgSvc.Send(context.Background(), alice.ID, SendMessageInput{ConversationID: conv.ID, Content: "hi bob"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Bob opens the conversation; everything is now read by both sides.
	msgs, err := msgSvc.List(context.Background(), bob.ID, conv.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != sent.ID {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if !msgs[0].ReadByUser(alice.ID) || !msgs[0].ReadByUser(bob.ID) {
		t.Errorf("expected readBy to contain both users, got %v", msgs[0].ReadBy)
	}

	// The conversation list shows the latest message for both users.
	for _, id := range []uuid.UUID{alice.ID, bob.ID} {
		convs, err := convSvc.List(context.Background(), id)
		if err != nil {
			t.Fatalf("List conversations: %v", err)
		}
		if len(convs) != 1 {
			t.Fatalf("expected 1 conversation, got %d", len(convs))
		}
		if convs[0].LatestMessage == nil || convs[0].LatestMessage.ID != sent.ID {
			t.Errorf("latest message missing for user %s", id)
		}
	}
}
