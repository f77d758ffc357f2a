package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// UserServiceClient resolves seller display names over HTTP, the same
// plain net/http call shape StitchMl-saga-demo's gateway uses to reach
// its upstream services — no third-party HTTP client is warranted for a
// single GET-and-decode call.
type UserServiceClient struct {
	baseURL string
	client  *http.Client
}

func NewUserServiceClient(baseURL string) *UserServiceClient {
	return &UserServiceClient{baseURL: baseURL, client: &http.Client{}}
}

func (c *UserServiceClient) Name(ctx context.Context, sellerID string) (string, error) {
	url := fmt.Sprintf("%s/users/%s", c.baseURL, sellerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("backfill: user service returned %d for seller %s", resp.StatusCode, sellerID)
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Name, nil
}
