package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/mcoot/pong-realtime/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Errors
var (
	ErrNoBaseURL = errors.New("profile service url is not configured")
)

// StatusError is returned for any non-2xx response from the profile service
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("profile service returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Config holds profile service client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:3000",
		Timeout: 10 * time.Second,
	}
}

// PublicProfile is the public view of a user returned by GET /users/public/{id}
type PublicProfile struct {
	AuthUserID     model.PlayerID `json:"authUserId"`
	Name           string         `json:"name"`
	ProfileID      int64          `json:"profileId"`
	ProfilePicture *string        `json:"profilePicture"`
}

// MatchData is the payload of a create_match action
type MatchData struct {
	Type         model.MatchType `json:"type"`
	Date         string          `json:"date"`
	Player1ID    model.PlayerID  `json:"player1Id"`
	Player2ID    model.PlayerID  `json:"player2Id"`
	Player1Score int             `json:"player1Score"`
	Player2Score int             `json:"player2Score"`
}

// NewMatchData builds the wire form of a finished match
func NewMatchData(rec model.MatchRecord) MatchData {
	return MatchData{
		Type:         rec.Type,
		Date:         rec.Date.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Player1ID:    rec.Player1ID,
		Player2ID:    rec.Player2ID,
		Player1Score: rec.Player1Score,
		Player2Score: rec.Player2Score,
	}
}

type createMatchRequest struct {
	Action    string    `json:"action"`
	MatchData MatchData `json:"matchData"`
}

type meResponse struct {
	User struct {
		Friends []struct {
			ID model.PlayerID `json:"id"`
		} `json:"friends"`
	} `json:"user"`
}

// Service is the subset of the profile service the realtime server calls
type Service interface {
	PublicProfile(ctx context.Context, id model.PlayerID) (*PublicProfile, error)
	Friends(ctx context.Context, token string) ([]model.PlayerID, error)
	CreateMatch(ctx context.Context, token string, data MatchData) error
}

// Client is an HTTP client for the profile service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Ensure Client implements Service
var _ Service = (*Client)(nil)

// NewClient creates a new profile service client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// PublicProfile fetches the public profile of a user
func (c *Client) PublicProfile(ctx context.Context, id model.PlayerID) (*PublicProfile, error) {
	var result PublicProfile
	if err := c.do(ctx, http.MethodGet, "/users/public/"+id.String(), "", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Friends returns the friend ids of the user the token belongs to
func (c *Client) Friends(ctx context.Context, token string) ([]model.PlayerID, error) {
	var result meResponse
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, &result); err != nil {
		return nil, err
	}

	ids := make([]model.PlayerID, 0, len(result.User.Friends))
	for _, f := range result.User.Friends {
		ids = append(ids, f.ID)
	}
	return ids, nil
}

// CreateMatch records a finished match on behalf of the token's user
func (c *Client) CreateMatch(ctx context.Context, token string, data MatchData) error {
	body := createMatchRequest{
		Action:    "create_match",
		MatchData: data,
	}
	return c.do(ctx, http.MethodPost, "/users/me", token, body, nil)
}

// do performs a request and decodes a 2xx body into result
func (c *Client) do(ctx context.Context, method, path, token string, body, result any) error {
	if c.baseURL == "" {
		return ErrNoBaseURL
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
