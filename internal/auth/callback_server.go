package auth

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// DefaultCallbackTimeout is how long to wait for the browser redirect.
const DefaultCallbackTimeout = 5 * time.Minute

//go:embed templates/*.html
var templateFS embed.FS

var callbackTemplates = template.Must(
	template.New("callback").Funcs(sprig.FuncMap()).ParseFS(templateFS, "templates/*.html"),
)

// CallbackResult represents the query parameters of the terminal redirect.
type CallbackResult struct {
	// Code is the authorization code from the OAuth provider.
	Code string

	// State is the state parameter to verify against the original request.
	State string

	// Error is the error code if the authorization failed.
	Error string

	// ErrorDescription is a human-readable error description.
	ErrorDescription string
}

// IsError returns true if the callback result represents an error.
func (r *CallbackResult) IsError() bool {
	return r.Error != ""
}

type callbackOutcome struct {
	result *CallbackResult
	err    error
}

// CallbackServer is a short-lived loopback HTTP server that receives the
// authorization redirect. It binds once, serves until one terminal request
// to the redirect path has been handled, and is then stopped.
//
// A terminal request is any request to the redirect path. Other paths, such
// as /favicon.ico, get a 404 and are otherwise ignored.
type CallbackServer struct {
	redirectURL  *url.URL
	callbackPath string
	logger       *slog.Logger

	server      *http.Server
	listener    net.Listener
	redirectURI string
	outcomeCh   chan callbackOutcome
	errorCh     chan error
	done        chan struct{}
	once        sync.Once
	stopOnce    sync.Once
}

// NewCallbackServer validates redirectURI and prepares a server for it. The
// URI must use http on a loopback host. A URI without a port makes Start
// pick a free one.
func NewCallbackServer(redirectURI string, logger *slog.Logger) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect URI must use http, got %q", u.Scheme)
	}
	if !isLoopbackHost(u.Hostname()) {
		return nil, fmt.Errorf("redirect URI host must be a loopback address, got %q", u.Hostname())
	}
	if logger == nil {
		logger = slog.Default()
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	return &CallbackServer{
		redirectURL:  u,
		callbackPath: path,
		logger:       logger,
		outcomeCh:    make(chan callbackOutcome, 1),
		errorCh:      make(chan error, 1),
		done:         make(chan struct{}),
	}, nil
}

// Start binds the listener and begins serving. It returns the redirect URI
// to send in the authorization request: the configured URI, with the bound
// port substituted when the configured URI had none. The server stops when
// ctx is done.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	port := s.redirectURL.Port()
	if port == "" {
		port = "0"
	}
	bindHost := "127.0.0.1"
	if s.redirectURL.Hostname() == "::1" {
		bindHost = "::1"
	}
	addr := net.JoinHostPort(bindHost, port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPortBind, addr, err)
	}
	s.listener = listener

	s.redirectURI = s.redirectURL.String()
	if s.redirectURL.Port() == "" {
		resolved := *s.redirectURL
		boundPort := listener.Addr().(*net.TCPAddr).Port
		resolved.Host = net.JoinHostPort(s.redirectURL.Hostname(), fmt.Sprint(boundPort))
		s.redirectURI = resolved.String()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errorCh <- err:
			default:
			}
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	s.logger.Debug("Callback server listening", "addr", listener.Addr().String(), "path", s.callbackPath)
	return s.redirectURI, nil
}

// RedirectURI returns the resolved redirect URI. It is empty before Start.
func (s *CallbackServer) RedirectURI() string {
	return s.redirectURI
}

// WaitForCallback blocks until the terminal redirect arrives, the timeout
// elapses or ctx is done. A redirect carrying an error parameter yields an
// *AuthorizationDeniedError. A redirect missing code or state yields
// ErrMissingCodeOrState.
func (s *CallbackServer) WaitForCallback(ctx context.Context, timeout time.Duration) (*CallbackResult, error) {
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case outcome := <-s.outcomeCh:
		return outcome.result, outcome.err
	case err := <-s.errorCh:
		return nil, fmt.Errorf("callback server failed: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrAuthorizationTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *CallbackServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != s.callbackPath {
		http.NotFound(w, r)
		return
	}

	var handled bool
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})

	if !handled {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

// processCallback handles the single terminal request.
func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	query := r.URL.Query()
	result := &CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	var outcome callbackOutcome
	switch {
	case result.IsError():
		outcome.err = &AuthorizationDeniedError{ErrorCode: result.Error, Description: result.ErrorDescription}
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, "callback_error.html", map[string]string{
			"Error":       result.Error,
			"Description": result.ErrorDescription,
		})
	case result.Code == "" || result.State == "":
		outcome.err = ErrMissingCodeOrState
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, "callback_error.html", map[string]string{
			"Error":       "invalid_request",
			"Description": "The redirect did not include both an authorization code and a state parameter.",
		})
	default:
		outcome.result = result
		s.render(w, "callback_success.html", nil)
	}

	s.logger.Debug("Received authorization redirect",
		"has_code", result.Code != "",
		"has_state", result.State != "",
		"error", result.Error,
	)

	select {
	case s.outcomeCh <- outcome:
	default:
	}
}

func (s *CallbackServer) render(w http.ResponseWriter, name string, data any) {
	if err := callbackTemplates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Warn("Failed to render callback page", "template", name, "error", err)
	}
}

// Stop shuts the server down and closes the listener. Safe to call more than once.
func (s *CallbackServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(ctx)
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
