package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-backend/internal/platform/auth"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
)

func newMigrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			conn, err := db.Connect(cfg.DB)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.Migrate(cmd.Context(), conn); err != nil {
				return err
			}
			log.Println("[INFO] migration completed")
			return nil
		},
	}
}

func newUserCmd(cfgPath *string) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage API accounts",
	}

	var role string
	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Create an account (librarian / admin accounts are created here)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !auth.ValidRole(role) {
				return fmt.Errorf("invalid role %q (user, librarian, admin)", role)
			}
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			conn, err := db.Connect(cfg.DB)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := auth.NewService(conn, cfg.Auth).Register(cmd.Context(), args[0], password, role); err != nil {
				return err
			}
			log.Printf("[INFO] account created: %s (%s)", args[0], role)
			return nil
		},
	}
	add.Flags().StringVar(&role, "role", auth.RoleUser, "user | librarian | admin")

	user.AddCommand(add)
	return user
}

// readPassword は端末ならエコーなしで読む。パイプ入力なら1行読む。
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
