package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/store"
)

// signInResponse is the body of a successful POST /chat/signin/.
type signInResponse struct {
	User   store.User      `json:"user"`
	Tokens store.TokenPair `json:"tokens"`
}

type apiError struct {
	Error string `json:"error"`
}

type signInClient struct {
	cfg        *config.Config
	httpClient *http.Client
}

func newSignInClient(cfg *config.Config) *signInClient {
	return &signInClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// signIn posts credentials to the sign-in endpoint. Any non-200 status is
// an authentication failure.
func (c *signInClient) signIn(ctx context.Context, creds *store.Credentials) (*signInResponse, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SignInURL(), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return nil, fmt.Errorf("server: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var body signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &body, nil
}
