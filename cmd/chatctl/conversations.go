package main

import (
	"fmt"
	"strings"

	"github.com/AvineetYadav/CHAT-APP/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupAddCmd)
	groupCmd.AddCommand(groupRemoveCmd)
	rootCmd.AddCommand(deleteConversationCmd)
	rootCmd.AddCommand(searchCmd)
}

// conversationLabel returns a human-readable name for a conversation: the
// group name, or the other participants for a direct chat.
func conversationLabel(conv *domain.Conversation, selfID uuid.UUID) string {
	if conv.IsGroup && conv.Name != nil {
		return *conv.Name
	}
	var names []string
	for _, p := range conv.Participants {
		if p.ID != selfID {
			names = append(names, p.Username)
		}
	}
	if len(names) == 0 {
		return "(empty)"
	}
	return strings.Join(names, ", ")
}

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"ls"},
	Short:   "List your conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAuth(cfg); err != nil {
			return err
		}

		client := newClient(cfg)
		convs, err := client.Conversations(cmd.Context())
		if err != nil {
			return err
		}
		if len(convs) == 0 {
			fmt.Println("No conversations yet")
			return nil
		}

		for _, conv := range convs {
			kind := "direct"
			if conv.IsGroup {
				kind = "group"
			}
			fmt.Printf("%s  %-6s %s\n", conv.ID, kind, conversationLabel(&conv, client.UserID()))
			if conv.LatestMessage != nil {
				preview := "(image)"
				if conv.LatestMessage.Content != nil {
					preview = *conv.LatestMessage.Content
				}
				fmt.Printf("%40s%s: %s\n", "", conv.LatestMessage.SenderUsername, preview)
			}
		}
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <userId>",
	Short: "Open (or create) a direct conversation with a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAuth(cfg); err != nil {
			return err
		}
		otherID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		client := newClient(cfg)
		conv, err := client.CreateDirect(cmd.Context(), otherID)
		if err != nil {
			return err
		}
		fmt.Printf("Conversation %s with %s\n", conv.ID, conversationLabel(conv, client.UserID()))
		return nil
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage group conversations",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <name> <userId>...",
	Short: "Create a group conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAuth(cfg); err != nil {
			return err
		}

		userIDs := make([]uuid.UUID, 0, len(args)-1)
		for _, arg := range args[1:] {
			id, err := uuid.Parse(arg)
			if err != nil {
				return fmt.Errorf("invalid user id %q", arg)
			}
			userIDs = append(userIDs, id)
		}

		client := newClient(cfg)
		conv, err := client.CreateGroup(cmd.Context(), args[0], userIDs)
		if err != nil {
			return err
		}
		fmt.Printf("Created group %s (%d participants)\n", conv.ID, len(conv.Participants))
		return nil
	},
}

var groupAddCmd = &cobra.Command{
	Use:   "add <conversationId> <userId>",
	Short: "Add a user to a group",
	Args:  cobra.ExactArgs(2),
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
		userID, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[1])
		}

		client := newClient(cfg)
		conv, err := client.AddUser(cmd.Context(), convID, userID)
		if err != nil {
			return err
		}
		fmt.Printf("Added; group now has %d participants\n", len(conv.Participants))
		return nil
	},
}

var groupRemoveCmd = &cobra.Command{
	Use:   "remove <conversationId> <userId>",
	Short: "Remove a user from a group (or leave it yourself)",
	Args:  cobra.ExactArgs(2),
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
		userID, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[1])
		}

		client := newClient(cfg)
		conv, err := client.RemoveUser(cmd.Context(), convID, userID)
		if err != nil {
			return err
		}
		if conv == nil {
			fmt.Println("Group deleted as no participants remain")
			return nil
		}
		fmt.Printf("Removed; group now has %d participants\n", len(conv.Participants))
		return nil
	},
}

var deleteConversationCmd = &cobra.Command{
	Use:   "delete-conversation <conversationId>",
	Short: "Delete a conversation and its messages",
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
		if err := client.DeleteConversation(cmd.Context(), convID); err != nil {
			return err
		}
		fmt.Println("Deleted")
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search users by username or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAuth(cfg); err != nil {
			return err
		}

		client := newClient(cfg)
		users, err := client.SearchUsers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users found")
			return nil
		}
		for _, u := range users {
			fmt.Printf("%s  %s <%s>\n", u.ID, u.Username, u.Email)
		}
		return nil
	},
}
