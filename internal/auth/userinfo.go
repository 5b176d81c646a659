package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	strutil "aichat/pkg/strings"

	"golang.org/x/oauth2"
)

// maxUserInfoBytes caps the userinfo response body.
const maxUserInfoBytes = 1 << 20

// UserInfoClient fetches the identity behind an access token.
type UserInfoClient struct {
	url        string
	httpClient *http.Client
}

// NewUserInfoClient creates a client for the userinfo endpoint at url.
func NewUserInfoClient(url string, httpClient *http.Client) *UserInfoClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &UserInfoClient{url: url, httpClient: httpClient}
}

// Fetch calls the userinfo endpoint with accessToken as a bearer token.
// Any failure matches ErrUserInfo.
func (c *UserInfoClient) Fetch(ctx context.Context, accessToken string) (*UserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUserInfo, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUserInfo, resp.StatusCode, strutil.Snippet(string(body)))
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", ErrUserInfo, err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("%w: response has no email", ErrUserInfo)
	}
	return &info, nil
}
