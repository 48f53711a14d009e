package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/asyncfetch/go-fetcher/internal/testutil"
)

// memoryStore is an in-memory TokenStore for tests.
type memoryStore struct {
	mu      sync.Mutex
	token   string
	loadErr error
	saves   int
}

func (s *memoryStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return "", s.loadErr
	}
	return s.token, nil
}

func (s *memoryStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.saves++
	return nil
}

func TestNewPasswordProvider_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing auth url",
			cfg:     Config{Username: "alice"},
			wantErr: "auth url",
		},
		{
			name:    "missing username",
			cfg:     Config{AuthURL: "http://auth.local/login"},
			wantErr: "username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPasswordProvider(tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPasswordProvider_RefreshSetsBearerHeader(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()

	mock.SetLoginHandler("/login", "access_token", "tok-123")

	provider, err := NewPasswordProvider(Config{
		AuthURL:  mock.URL("/login"),
		Username: "alice",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	if len(provider.Headers()) != 0 {
		t.Error("Headers should be empty before first Refresh")
	}

	if err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	headers := provider.Headers()
	if got := headers["Authorization"]; got != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer tok-123")
	}
	if got := headers["Content-Type"]; got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}
	if mock.RequestCount("/login") != 1 {
		t.Errorf("login count = %d, want 1", mock.RequestCount("/login"))
	}
}

func TestPasswordProvider_CustomTokenField(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()

	mock.SetLoginHandler("/login", "jwt", "custom-tok")

	provider, err := NewPasswordProvider(Config{
		AuthURL:    mock.URL("/login"),
		Username:   "alice",
		TokenField: "jwt",
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	if err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := provider.Headers()["Authorization"]; got != "Bearer custom-tok" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer custom-tok")
	}
}

func TestPasswordProvider_MissingTokenField(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()

	mock.SetLoginHandler("/login", "session_id", "tok")

	provider, err := NewPasswordProvider(Config{
		AuthURL:  mock.URL("/login"),
		Username: "alice",
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	err = provider.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error for missing token field")
	}
	if !strings.Contains(err.Error(), "access_token") {
		t.Errorf("error = %q, want it to name the missing field", err.Error())
	}
}

func TestPasswordProvider_LoginRejected(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()

	mock.SetResponse("/login", testutil.MockResponse{StatusCode: 403})

	provider, err := NewPasswordProvider(Config{
		AuthURL:  mock.URL("/login"),
		Username: "alice",
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	err = provider.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected login")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error = %q, want it to carry the status", err.Error())
	}
	if len(provider.Headers()) != 0 {
		t.Error("Headers should stay empty after failed Refresh")
	}
}

func TestPasswordProvider_StoredTokenSkipsLogin(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()

	mock.SetLoginHandler("/login", "access_token", "fresh-tok")

	store := &memoryStore{token: "shared-tok"}
	provider, err := NewPasswordProvider(Config{
		AuthURL:  mock.URL("/login"),
		Username: "alice",
		Store:    store,
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	if err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if got := provider.Headers()["Authorization"]; got != "Bearer shared-tok" {
		t.Errorf("Authorization = %q, want shared token", got)
	}
	if mock.RequestCount("/login") != 0 {
		t.Errorf("login count = %d, want 0 when the store supplies a token", mock.RequestCount("/login"))
	}
}

func TestPasswordProvider_StaleStoredTokenForcesLogin(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()

	mock.SetLoginHandler("/login", "access_token", "fresh-tok")

	store := &memoryStore{token: "stale-tok"}
	provider, err := NewPasswordProvider(Config{
		AuthURL:  mock.URL("/login"),
		Username: "alice",
		Store:    store,
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	// First refresh adopts the stored token.
	if err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}

	// The server rejected it; a second refresh must not re-adopt the same
	// stored token but go to the login endpoint.
	if err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}

	if got := provider.Headers()["Authorization"]; got != "Bearer fresh-tok" {
		t.Errorf("Authorization = %q, want freshly fetched token", got)
	}
	if mock.RequestCount("/login") != 1 {
		t.Errorf("login count = %d, want 1", mock.RequestCount("/login"))
	}
}

func TestPasswordProvider_SavesTokenAfterLogin(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()

	mock.SetLoginHandler("/login", "access_token", "tok-xyz")

	store := &memoryStore{}
	provider, err := NewPasswordProvider(Config{
		AuthURL:  mock.URL("/login"),
		Username: "alice",
		Store:    store,
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	if err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.token != "tok-xyz" {
		t.Errorf("stored token = %q, want %q", store.token, "tok-xyz")
	}
	if store.saves != 1 {
		t.Errorf("save count = %d, want 1", store.saves)
	}
}

func TestPasswordProvider_StoreLoadErrorFallsBackToLogin(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()

	mock.SetLoginHandler("/login", "access_token", "tok-fallback")

	store := &memoryStore{loadErr: context.DeadlineExceeded}
	provider, err := NewPasswordProvider(Config{
		AuthURL:  mock.URL("/login"),
		Username: "alice",
		Store:    store,
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}

	if err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := provider.Headers()["Authorization"]; got != "Bearer tok-fallback" {
		t.Errorf("Authorization = %q, want login-fetched token", got)
	}
}

func TestPasswordProvider_HeadersReturnsCopy(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()

	mock.SetLoginHandler("/login", "access_token", "tok")

	provider, err := NewPasswordProvider(Config{
		AuthURL:  mock.URL("/login"),
		Username: "alice",
	})
	if err != nil {
		t.Fatalf("NewPasswordProvider failed: %v", err)
	}
	if err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	headers := provider.Headers()
	headers["Authorization"] = "tampered"

	if got := provider.Headers()["Authorization"]; got != "Bearer tok" {
		t.Errorf("Authorization = %q, caller mutation leaked into provider state", got)
	}
}
