package service

import (
	"context"
	"testing"
	"time"

	"github.com/yizhiakuya/MemeStore/internal/domain"
)

func newTestAuthService(users *fakeUserStore, c *fakeCache) *AuthService {
	return NewAuthService(users, c, newTestLogger(), AuthConfig{
		Secret:     "test-secret",
		Issuer:     "memestore-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeUserStore()
	svc := newTestAuthService(users, newFakeCache())
	ctx := context.Background()

	result, err := svc.Register(ctx, &RegisterInput{Username: "alice", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("register must issue both tokens")
	}
	if result.User.Role != domain.RoleUser {
		t.Errorf("role = %q, want %q", result.User.Role, domain.RoleUser)
	}
	if result.User.Password == "hunter22" {
		t.Error("password stored in plaintext")
	}

	login, err := svc.Login(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.AccessToken == "" {
		t.Error("login must issue an access token")
	}

	claims, err := svc.VerifyAccess(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Username != "alice" || claims.Subject != result.User.ID {
		t.Errorf("claims = %+v, want alice / %s", claims, result.User.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	users := newFakeUserStore()
	svc := newTestAuthService(users, newFakeCache())
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterInput{Username: "bob", Password: "takentest"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name string
		in   RegisterInput
		kind domain.ErrorKind
	}{
		{"missing username", RegisterInput{Password: "validpass"}, domain.KindValidation},
		{"missing password", RegisterInput{Username: "carol"}, domain.KindValidation},
		{"short password", RegisterInput{Username: "carol", Password: "abc"}, domain.KindValidation},
		{"duplicate username", RegisterInput{Username: "bob", Password: "validpass"}, domain.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tt.in)
			if !domain.IsKind(err, tt.kind) {
				t.Errorf("error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := newFakeUserStore()
	svc := newTestAuthService(users, newFakeCache())
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterInput{Username: "dave", Password: "correcthorse"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "dave", "wrongpass"); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Errorf("wrong password: error = %v, want unauthorized", err)
	}
	if _, err := svc.Login(ctx, "nobody", "correcthorse"); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Errorf("unknown user: error = %v, want unauthorized", err)
	}
}

func TestRefresh(t *testing.T) {
	users := newFakeUserStore()
	svc := newTestAuthService(users, newFakeCache())
	ctx := context.Background()

	result, err := svc.Register(ctx, &RegisterInput{Username: "erin", Password: "longenough"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	pair, err := svc.Refresh(ctx, result.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	claims, err := svc.VerifyAccess(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess on refreshed token: %v", err)
	}
	if claims.Subject != result.User.ID {
		t.Errorf("refreshed token subject = %q, want %q", claims.Subject, result.User.ID)
	}

	if _, err := svc.Refresh(ctx, "not-a-token"); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Errorf("garbage refresh token: error = %v, want unauthorized", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	users := newFakeUserStore()
	c := newFakeCache()
	svc := newTestAuthService(users, c)
	ctx := context.Background()

	result, err := svc.Register(ctx, &RegisterInput{Username: "frank", Password: "logmeout1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.VerifyAccess(ctx, result.AccessToken); err != nil {
		t.Fatalf("VerifyAccess before logout: %v", err)
	}

	if err := svc.Logout(ctx, result.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := svc.VerifyAccess(ctx, result.AccessToken); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Errorf("error after logout = %v, want unauthorized", err)
	}

	// Logging out with no token is a no-op, not an error.
	if err := svc.Logout(ctx, ""); err != nil {
		t.Errorf("empty-token logout: %v", err)
	}
}

func TestVerifyAccessRejectsForgedToken(t *testing.T) {
	users := newFakeUserStore()
	svc := newTestAuthService(users, newFakeCache())
	other := NewAuthService(users, newFakeCache(), newTestLogger(), AuthConfig{Secret: "other-secret"})
	ctx := context.Background()

	result, err := other.Register(ctx, &RegisterInput{Username: "mallory", Password: "sneakysneak"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.VerifyAccess(ctx, result.AccessToken); !domain.IsKind(err, domain.KindUnauthorized) {
		t.Errorf("token signed with a different secret: error = %v, want unauthorized", err)
	}
}
