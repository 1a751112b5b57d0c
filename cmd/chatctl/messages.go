package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/AvineetYadav/CHAT-APP/internal/transport/ws"
	"github.com/AvineetYadav/CHAT-APP/pkg/chatclient"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(deleteMessageCmd)
	rootCmd.AddCommand(watchCmd)
}

func printMessage(msg *domain.Message) {
	body := "(image)"
	if msg.Content != nil {
		body = *msg.Content
	}
	fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Local().Format("15:04"), msg.SenderUsername, body)
}

var messagesCmd = &cobra.Command{
	Use:   "messages <conversationId>",
	Short: "Show a conversation's messages (marks them read)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAuth(cfg); err != nil {
			return err
		}
		convID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid conversation id %q", args[0])
		}

		client := newClient(cfg)
		msgs, err := client.Messages(cmd.Context(), convID)
		if err != nil {
			return err
		}
		for i := range msgs {
			printMessage(&msgs[i])
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <conversationId> <text>...",
	Short: "Send a message",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAuth(cfg); err != nil {
			return err
		}
		convID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid conversation id %q", args[0])
		}

		client := newClient(cfg)
		msg, err := client.SendMessage(cmd.Context(), convID, strings.Join(args[1:], " "), "")
		if err != nil {
			return err
		}
		fmt.Printf("Sent %s\n", msg.ID)
		return nil
	},
}

var deleteMessageCmd = &cobra.Command{
	Use:   "delete-message <messageId>",
	Short: "Delete one of your messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAuth(cfg); err != nil {
			return err
		}
		msgID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid message id %q", args[0])
		}

		client := newClient(cfg)
		if err := client.DeleteMessage(cmd.Context(), msgID); err != nil {
			return err
		}
		fmt.Println("Deleted")
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <conversationId>",
	Short: "Stream a conversation's events until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAuth(cfg); err != nil {
			return err
		}
		convID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid conversation id %q", args[0])
		}

		client := newClient(cfg)
		msgs, err := client.Messages(cmd.Context(), convID)
		if err != nil {
			return err
		}

		store := chatclient.NewStore()
		store.Open(convID, msgs)
		for i := range msgs {
			printMessage(&msgs[i])
		}

		rt := client.Realtime(store, chatclient.RealtimeConfig{
			OnEvent: func(event *ws.Event) {
				printWatchEvent(convID, event)
			},
		})

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		errc := make(chan error, 1)
		go func() { errc <- rt.Run(ctx) }()

		// Joining can only happen once the connection is up; retry briefly.
		for {
			if err := rt.JoinConversation(ctx, convID); err == nil {
				break
			}
			select {
			case err := <-errc:
				return err
			case <-time.After(200 * time.Millisecond):
			}
		}

		fmt.Println("Watching; press Ctrl-C to stop")
		err = <-errc
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func printWatchEvent(convID uuid.UUID, event *ws.Event) {
	switch event.Type {
	case ws.EventNewMessage:
		var msg domain.Message
		if err := json.Unmarshal(event.Payload, &msg); err != nil {
			return
		}
		if msg.ConversationID == convID {
			printMessage(&msg)
		}
	case ws.EventMessageDeleted:
		var payload ws.MessageDeletedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return
		}
		if payload.ConversationID == convID {
			fmt.Printf("(message %s deleted)\n", payload.MessageID)
		}
	case ws.EventUserStartedTyping:
		var payload ws.TypingPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return
		}
		if payload.ConversationID == convID {
			fmt.Printf("(%s is typing)\n", payload.UserID)
		}
	}
}
