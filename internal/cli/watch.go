package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the realtime socket and print every message",
		Long: `Connect to /ws as the token's player and print each message the server sends.

Messages include:
  - welcome: Connection accepted
  - user:list: Lobby roster changed
  - invite:received: Another player invited you
  - matchmaking:searching: Waiting in the queue
  - room:start: A room was opened for you
  - friends:status:update: A friend came online or went offline

Use --lobby to appear in the lobby roster and --queue to search for a match.
Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("a token is required (use --token or 'pongctl token issue --save')")
			}
			return watch(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.lobby, "lobby", false, "Join the lobby after connecting")
	cmd.Flags().BoolVar(&opts.queue, "queue", false, "Join the matchmaking queue after connecting")
	cmd.Flags().StringVar(&opts.until, "until", "", "Exit after a message of this type arrives")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Give up after this long (0 waits forever)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output messages as JSON lines")

	return cmd
}

type watchOptions struct {
	lobby      bool
	queue      bool
	until      string
	timeout    time.Duration
	jsonOutput bool
}

// WatchEvent is one received socket message
type WatchEvent struct {
	Time time.Time `json:"time"`
	Type string    `json:"type"`
	Data string    `json:"data"`
}

// socketURL maps the server URL onto the ws endpoint
func socketURL(server, token string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(server, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

func watch(opts watchOptions) error {
	wsURL, err := socketURL(cfg.ServerURL, cfg.Token)
	if err != nil {
		return err
	}

	// Set up cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if opts.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Closing the socket unblocks the reader once ctx is done
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	if !opts.jsonOutput {
		fmt.Printf("Connected to %s\n", cfg.ServerURL)
	}

	for _, want := range []struct {
		enabled bool
		msgType string
	}{
		{opts.lobby, "lobby:join"},
		{opts.queue, "matchmaking:join"},
	} {
		if !want.enabled {
			continue
		}
		if err := conn.WriteJSON(map[string]string{"type": want.msgType}); err != nil {
			return fmt.Errorf("failed to send %s: %w", want.msgType, err)
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return fmt.Errorf("timed out after %s", opts.timeout)
				}
				if !opts.jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				if !opts.jsonOutput {
					fmt.Printf("Closed by server: %d %s\n", closeErr.Code, closeErr.Text)
				}
				if closeErr.Code == websocket.ClosePolicyViolation {
					return fmt.Errorf("server rejected the token")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		msgType := messageType(data)
		printMessage(msgType, string(data), opts.jsonOutput)
		if opts.until != "" && msgType == opts.until {
			return nil
		}
	}
}

// messageType pulls the type field out of a frame, or "unknown"
func messageType(data []byte) string {
	if t := json.Get(data, "type").ToString(); t != "" {
		return t
	}
	return "unknown"
}

func printMessage(msgType, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		jsonData, _ := json.Marshal(WatchEvent{Time: now, Type: msgType, Data: data})
		fmt.Println(string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := data
	if len(displayData) > 120 {
		displayData = displayData[:120] + "..."
	}
	fmt.Printf("[%s] %s: %s\n", timestamp, msgType, displayData)
}
