package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var registerUsername string

func init() {
	registerCmd.Flags().StringVar(&registerUsername, "username", "", "username for the new account")
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func readPassword() (string, error) {
	fmt.Print("Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account on the chat server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if registerUsername == "" {
			return fmt.Errorf("--username is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		password, err := readPassword()
		if err != nil {
			return err
		}

		client := newClient(cfg)
		resp, err := client.Register(cmd.Context(), registerUsername, args[0], password)
		if err != nil {
			return err
		}

		cfg.Auth = ConfigAuth{
			Token:    resp.Token,
			UserID:   resp.User.ID.String(),
			Username: resp.User.Username,
		}
		if err := saveConfig(cfg); err != nil {
			return err
		}

		fmt.Printf("Registered and logged in as %s\n", resp.User.Username)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		password, err := readPassword()
		if err != nil {
			return err
		}

		client := newClient(cfg)
		resp, err := client.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}

		cfg.Auth = ConfigAuth{
			Token:    resp.Token,
			UserID:   resp.User.ID.String(),
			Username: resp.User.Username,
		}
		if err := saveConfig(cfg); err != nil {
			return err
		}

		fmt.Printf("Logged in as %s\n", resp.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Auth = ConfigAuth{}
		if err := saveConfig(cfg); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireAuth(cfg); err != nil {
			return err
		}

		client := newClient(cfg)
		user, err := client.Me(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%s <%s> (%s)\n", user.Username, user.Email, user.ID)
		if user.Bio != nil && *user.Bio != "" {
			fmt.Println(*user.Bio)
		}
		return nil
	},
}
