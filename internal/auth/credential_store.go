package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"aichat/internal/fileutil"
)

// JSON keys of the fields CredentialRecord knows about.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyTokenType    = "token_type"
	keyExpiryDate   = "expiry_date"
	keyUserInfo     = "user_info"
)

// UserInfo is the identity returned by the provider's userinfo endpoint.
type UserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email,omitempty"`
	Name          string `json:"name,omitempty"`
	GivenName     string `json:"given_name,omitempty"`
	FamilyName    string `json:"family_name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	Locale        string `json:"locale,omitempty"`
	ID            string `json:"id,omitempty"`
}

// CredentialRecord is the persisted result of a successful authorization.
//
// ExpiryDate is in epoch seconds; zero means the token never expires.
// Top-level fields this type does not know about are kept and written back
// unchanged.
type CredentialRecord struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiryDate   int64
	UserInfo     *UserInfo

	extra map[string]json.RawMessage
}

// HasExpiry reports whether the record carries an expiry.
func (r *CredentialRecord) HasExpiry() bool {
	return r.ExpiryDate != 0
}

// ExpiresAt returns the expiry as a time, or the zero time when absent.
func (r *CredentialRecord) ExpiresAt() time.Time {
	if !r.HasExpiry() {
		return time.Time{}
	}
	return time.Unix(r.ExpiryDate, 0)
}

// IsExpired reports whether the access token is expired at now.
// Records without expiry never expire.
func (r *CredentialRecord) IsExpired(now time.Time) bool {
	return r.HasExpiry() && now.Unix() >= r.ExpiryDate
}

// CanRefresh reports whether a refresh token is available.
func (r *CredentialRecord) CanRefresh() bool {
	return r.RefreshToken != ""
}

// Clone returns a deep copy of the record.
func (r *CredentialRecord) Clone() *CredentialRecord {
	c := *r
	if r.UserInfo != nil {
		u := *r.UserInfo
		c.UserInfo = &u
	}
	if r.extra != nil {
		c.extra = make(map[string]json.RawMessage, len(r.extra))
		for k, v := range r.extra {
			c.extra[k] = v
		}
	}
	return &c
}

// MarshalJSON implements json.Marshaler. Keys are emitted in sorted order.
func (r CredentialRecord) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.extra)+5)
	for k, v := range r.extra {
		fields[k] = v
	}

	set := func(key string, value any) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		fields[key] = data
		return nil
	}

	if err := set(keyAccessToken, r.AccessToken); err != nil {
		return nil, err
	}
	if r.RefreshToken != "" {
		if err := set(keyRefreshToken, r.RefreshToken); err != nil {
			return nil, err
		}
	}
	if r.TokenType != "" {
		if err := set(keyTokenType, r.TokenType); err != nil {
			return nil, err
		}
	}
	if r.ExpiryDate != 0 {
		if err := set(keyExpiryDate, r.ExpiryDate); err != nil {
			return nil, err
		}
	}
	if r.UserInfo != nil {
		if err := set(keyUserInfo, r.UserInfo); err != nil {
			return nil, err
		}
	}

	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *CredentialRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("credential record must be a JSON object")
	}

	var rec CredentialRecord
	take := func(key string, dst any) error {
		raw, ok := fields[key]
		if !ok {
			return nil
		}
		delete(fields, key)
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		return nil
	}

	// Some writers emit expiry_date as a float.
	var expiry float64
	for key, dst := range map[string]any{
		keyAccessToken:  &rec.AccessToken,
		keyRefreshToken: &rec.RefreshToken,
		keyTokenType:    &rec.TokenType,
		keyExpiryDate:   &expiry,
		keyUserInfo:     &rec.UserInfo,
	} {
		if err := take(key, dst); err != nil {
			return err
		}
	}
	if math.IsInf(expiry, 0) || math.IsNaN(expiry) || expiry != math.Trunc(expiry) ||
		expiry < math.MinInt64 || expiry >= math.MaxInt64 {
		return fmt.Errorf("invalid %s: %v is not an epoch second", keyExpiryDate, expiry)
	}
	rec.ExpiryDate = int64(expiry)

	if len(fields) > 0 {
		rec.extra = fields
	}
	*r = rec
	return nil
}

// CredentialStore persists a single CredentialRecord as a JSON file.
//
// SECURITY: the file is written with 0600 permissions inside a 0700
// directory and token values are never logged.
type CredentialStore struct {
	path   string
	logger *slog.Logger

	// mu serializes writers inside this process. Across processes the
	// rename in Write gives last-writer-wins with a parseable file.
	mu sync.Mutex
}

// NewCredentialStore creates a store for the credential file at path.
// A nil logger falls back to slog.Default.
func NewCredentialStore(path string, logger *slog.Logger) *CredentialStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialStore{path: path, logger: logger}
}

// Path returns the credential file location.
func (s *CredentialStore) Path() string {
	return s.path
}

// Read loads the cached record.
func (s *CredentialStore) Read() (*CredentialRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("%w: reading %s: %w", ErrCredentialsIO, s.path, err)
	}

	var rec CredentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptCredentials, s.path, err)
	}
	if rec.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s: missing access_token", ErrCorruptCredentials, s.path)
	}
	return &rec, nil
}

// Write atomically replaces the credential file with rec.
func (s *CredentialStore) Write(rec *CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(rec)
}

// Update applies fn to the current record and writes the result back. The
// read-modify-write is serialized with other writers in this process.
func (s *CredentialStore) Update(fn func(rec *CredentialRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Read()
	if err != nil {
		return err
	}
	if err := fn(rec); err != nil {
		return err
	}
	return s.writeLocked(rec)
}

// Clear removes the credential file. A missing file is not an error.
func (s *CredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %w", ErrCredentialsIO, s.path, err)
	}

	// SECURITY AUDIT: credentials removed
	s.logger.Info("SECURITY_AUDIT: OAuth credentials cleared",
		"event", "credentials_cleared",
		"path", s.path,
	)
	return nil
}

func (s *CredentialStore) writeLocked(rec *CredentialRecord) error {
	if rec == nil || rec.AccessToken == "" {
		return fmt.Errorf("%w: refusing to write a record without access_token", ErrCredentialsIO)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding record: %w", ErrCredentialsIO, err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteFileAtomic(s.path, data, fileutil.PrivateFilePerm); err != nil {
		s.logger.Warn("SECURITY_AUDIT: OAuth credential storage failed",
			"event", "credentials_store_failed",
			"path", s.path,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %w", ErrCredentialsIO, err)
	}

	s.logger.Info("SECURITY_AUDIT: OAuth credentials stored",
		"event", "credentials_stored",
		"path", s.path,
		"has_refresh_token", rec.RefreshToken != "",
		"has_expiry", rec.HasExpiry(),
	)
	return nil
}
