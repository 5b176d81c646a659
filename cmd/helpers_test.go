package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"aichat/internal/config"

	"github.com/stretchr/testify/require"
)

// testProvider serves /token and /userinfo.
type testProvider struct {
	server *httptest.Server

	mu            sync.Mutex
	grants        []string
	refreshStatus int
}

func newTestProvider(t *testing.T) *testProvider {
	t.Helper()
	p := &testProvider{refreshStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		grant := r.PostForm.Get("grant_type")

		p.mu.Lock()
		p.grants = append(p.grants, grant)
		refreshStatus := p.refreshStatus
		p.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch grant {
		case "authorization_code":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-token-T1", "refresh_token": "refresh-token-R1",
				"token_type": "Bearer", "expires_in": 3600,
			})
		case "refresh_token":
			w.WriteHeader(refreshStatus)
			if refreshStatus != http.StatusOK {
				_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "access-token-T2", "token_type": "Bearer", "expires_in": 3600,
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"email":"user@example.com","name":"Test User"}`)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *testProvider) grantCount(grant string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, g := range p.grants {
		if g == grant {
			n++
		}
	}
	return n
}

func (p *testProvider) clientSecretJSON() string {
	return fmt.Sprintf(`{"installed":{
  "client_id":"cli-client-id",
  "client_secret":"cli-client-secret",
  "auth_uri":"%s/authorize",
  "token_uri":"%s/token",
  "redirect_uris":["http://localhost"]
}}`, p.server.URL, p.server.URL)
}

// setupConfigDir writes config.yaml and the client secret for p into a temp dir.
func setupConfigDir(t *testing.T, p *testProvider) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf("oauth:\n  redirect_uri: http://127.0.0.1/oauth2callback\n  userinfo_url: %s/userinfo\n  callback_timeout: 5s\n", p.server.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0600))

	secretPath := config.ClientSecretPath(dir, config.DefaultOAuthClient)
	require.NoError(t, os.MkdirAll(filepath.Dir(secretPath), 0700))
	require.NoError(t, os.WriteFile(secretPath, []byte(p.clientSecretJSON()), 0600))
	return dir
}

// redirectBrowser follows the authorization URL the way a consenting user
// would. mutate can alter the redirect parameters.
func redirectBrowser(mutate func(url.Values)) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		redirect, err := url.Parse(q.Get("redirect_uri"))
		if err != nil {
			return err
		}
		cb := url.Values{"code": {"auth-code"}, "state": {q.Get("state")}}
		if mutate != nil {
			mutate(cb)
		}
		redirect.RawQuery = cb.Encode()
		resp, err := http.Get(redirect.String())
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}
}

// resetFlags restores every package-level flag variable to its default.
func resetFlags() {
	configDirFlag = ""
	debugFlag = false
	logFormatFlag = "text"
	quietFlag = false
	loginForce = false
	loginNoBrowser = false
	loginTimeout = 0
	logoutYes = false
	importFile = ""
	importClient = ""
}

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, stdin string, args ...string) cmdResult {
	t.Helper()
	t.Setenv(config.EnvAPIKey, "")

	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func stubBrowser(t *testing.T, opener func(string) error) {
	t.Helper()
	orig := browserOpener
	browserOpener = opener
	t.Cleanup(func() { browserOpener = orig })
}

func stubClock(t *testing.T, now time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })
}
