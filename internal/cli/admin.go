package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/pong-realtime/internal/services/auth"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands (admin key required)",
	}

	cmd.AddCommand(newAdminRoomsCmd())
	cmd.AddCommand(newAdminRoomCmd())
	cmd.AddCommand(newAdminSweepCmd())
	cmd.AddCommand(newAdminHashKeyCmd())

	return cmd
}

func newAdminRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List live rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomList

			if err := client.Get("/api/v1/admin/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminRoomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "room <room-id>",
		Short: "Show one room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Get("/api/v1/admin/rooms/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove rooms that have been idle past their TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SweepResult

			if err := client.Post("/api/v1/admin/rooms/sweep", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAdminHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <key>",
		Short: "Print the bcrypt hash to configure as ADMIN_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashAdminKey(args[0])
			if err != nil {
				return fmt.Errorf("failed to hash key: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(KeyHash{Hash: hash})
			return nil
		},
	}
}
