package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueGuestAndValidate(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-123")
	pair, err := mgr.IssueGuest("  Ana ")
	if err != nil {
		t.Fatalf("issue guest: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.AccessToken == pair.RefreshToken {
		t.Fatal("expected two distinct non-empty tokens")
	}
	if !strings.HasPrefix(pair.UserID, "guest-") || pair.Name != "Ana" {
		t.Errorf("unexpected identity %s/%s", pair.UserID, pair.Name)
	}
	if pair.ExpiresIn != int((12 * time.Hour).Seconds()) {
		t.Errorf("unexpected expires_in %d", pair.ExpiresIn)
	}

	id, err := mgr.ValidateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id.UserID != pair.UserID || id.Name != "Ana" || !id.Guest {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestIssueGuestRejectsBadNames(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	for _, name := range []string{"", "   ", strings.Repeat("x", 33)} {
		if _, err := mgr.IssueGuest(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestRefresh(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	pair, err := mgr.Issue(Identity{UserID: "google-1", Name: "Bea"})
	if err != nil {
		t.Fatal(err)
	}
	next, err := mgr.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.UserID != "google-1" || next.Name != "Bea" {
		t.Errorf("identity not carried over: %+v", next)
	}
	if _, err := mgr.Refresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Error("access token must not work as a refresh token")
	}
	if _, err := mgr.ValidateToken(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Error("refresh token must not work as an access token")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	pair, err := NewJWTManager("secret-one").IssueGuest("ana")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewJWTManager("secret-two").ValidateToken(pair.AccessToken); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	if _, err := mgr.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := mgr.ValidateToken(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	mgr := &JWTManager{
		secret:        []byte("test-secret"),
		accessExpiry:  -1 * time.Second,
		refreshExpiry: 7 * 24 * time.Hour,
	}
	pair, err := mgr.IssueGuest("ana")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.ValidateToken(pair.AccessToken); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestGoogleIdentity(t *testing.T) {
	id := (&GoogleUserInfo{ID: "42", Email: "cara@example.com"}).Identity()
	if id.UserID != "google-42" || id.Name != "cara" {
		t.Errorf("unexpected identity %+v", id)
	}
	id = (&GoogleUserInfo{ID: "7", Name: "Dee"}).Identity()
	if id.Name != "Dee" {
		t.Errorf("expected profile name, got %q", id.Name)
	}
}
