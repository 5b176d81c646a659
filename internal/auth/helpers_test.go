package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"golang.org/x/oauth2"
)

func oauth2Endpoint(authURL, tokenURL string) oauth2.Endpoint {
	return oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider is an httptest token and userinfo endpoint.
type fakeProvider struct {
	server *httptest.Server

	mu             sync.Mutex
	tokenRequests  []url.Values
	userInfoAuth   []string
	tokenStatus    int
	tokenResponse  map[string]any
	refreshStatus  int
	refreshResp    map[string]any
	userInfoStatus int
	userInfoBody   string
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{
		tokenStatus: http.StatusOK,
		tokenResponse: map[string]any{
			"access_token":  "access-token-T1",
			"refresh_token": "refresh-token-R1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		},
		refreshStatus: http.StatusOK,
		refreshResp: map[string]any{
			"access_token": "access-token-T2",
			"token_type":   "Bearer",
			"expires_in":   3600,
		},
		userInfoStatus: http.StatusOK,
		userInfoBody:   `{"email":"user@example.com","name":"Test User","verified_email":true}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", p.handleToken)
	mux.HandleFunc("/userinfo", p.handleUserInfo)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.tokenRequests = append(p.tokenRequests, r.PostForm)
	status, body := p.tokenStatus, p.tokenResponse
	if r.PostForm.Get("grant_type") == "refresh_token" {
		status, body = p.refreshStatus, p.refreshResp
	}
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (p *fakeProvider) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.userInfoAuth = append(p.userInfoAuth, r.Header.Get("Authorization"))
	status, body := p.userInfoStatus, p.userInfoBody
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (p *fakeProvider) requests() []url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]url.Values(nil), p.tokenRequests...)
}

func (p *fakeProvider) requestsWithGrant(grant string) []url.Values {
	var out []url.Values
	for _, r := range p.requests() {
		if r.Get("grant_type") == grant {
			out = append(out, r)
		}
	}
	return out
}

func (p *fakeProvider) config() OAuthConfig {
	return OAuthConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURI:  "http://127.0.0.1/oauth2callback",
		Scopes:       []string{"openid", "email"},
		Endpoint: oauth2Endpoint(
			p.server.URL+"/authorize",
			p.server.URL+"/token",
		),
		UserInfoURL: p.server.URL + "/userinfo",
	}
}

// redirectingBrowser plays the user's browser: it reads the authorization
// URL and calls the redirect URI with a code and the same state. mutate can
// alter the redirect parameters.
type redirectingBrowser struct {
	mu       sync.Mutex
	authURLs []string
	mutate   func(q url.Values)
}

func (b *redirectingBrowser) open(authURL string) error {
	b.mu.Lock()
	b.authURLs = append(b.authURLs, authURL)
	mutate := b.mutate
	b.mu.Unlock()

	u, err := url.Parse(authURL)
	if err != nil {
		return err
	}
	q := u.Query()
	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		return err
	}

	cb := url.Values{
		"code":  {"auth-code-123"},
		"state": {q.Get("state")},
	}
	if mutate != nil {
		mutate(cb)
	}
	redirect.RawQuery = cb.Encode()

	resp, err := http.Get(redirect.String())
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

func (b *redirectingBrowser) calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authURLs...)
}
