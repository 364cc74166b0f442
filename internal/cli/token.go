package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/pong-realtime/internal/dependencies/clock"
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/services/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token commands",
	}

	cmd.AddCommand(newTokenIssueCmd())

	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		id         int64
		name       string
		secret     string
		secretFile string
		ttl        time.Duration
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a player token with the shared secret",
		Long: `Sign a token locally with the secret shared by the server and the
profile service. Useful for local testing; production tokens come from the
profile service.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id <= 0 {
				return fmt.Errorf("--id must be a positive player id")
			}

			key, err := loadSecret(secret, secretFile)
			if err != nil {
				return err
			}

			svc, err := auth.New(clock.New(), auth.Config{Secret: key, TokenTTL: ttl})
			if err != nil {
				return err
			}

			identity := model.Identity{ID: model.PlayerID(id), DisplayName: name}
			token, err := svc.Issue(identity, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			if save {
				if err := cfg.SaveToken(token); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
			}

			out := NewOutput(cfg.Output)
			out.Print(TokenResult{PlayerID: id, Name: name, Token: token, ExpiresIn: ttl.String()})
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "Player id (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name carried in the token")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret (env: JWT_SECRET)")
	cmd.Flags().StringVar(&secretFile, "secret-file", os.Getenv("JWT_SECRET_FILE"), "File holding the signing secret (env: JWT_SECRET_FILE)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().BoolVar(&save, "save", false, "Save the token to the token file")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

// loadSecret prefers the inline secret over the file
func loadSecret(secret, file string) (string, error) {
	if secret != "" {
		return secret, nil
	}
	if file == "" {
		return "", fmt.Errorf("--secret or --secret-file is required")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
