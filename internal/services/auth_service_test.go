package services_test

import (
	"errors"
	"testing"

	"maplecart/internal/repos"
	"maplecart/internal/services"
)

func newAuthSvc(t *testing.T) *services.AuthService {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	return &services.AuthService{Users: repos.NewUserRepo(db)}
}

func TestLoginBindsSession(t *testing.T) {
	auth := newAuthSvc(t)

	u, err := auth.Login("sess-login", "alice@maplecart.test", "Passw0rd!")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u-alice" || u.IsAdmin() {
		t.Fatalf("unexpected user: %+v", u)
	}

	cur, err := auth.CurrentUser("sess-login")
	if err != nil || cur.ID != "u-alice" {
		t.Fatalf("session should resolve to alice: %v %v", cur, err)
	}

	if err := auth.Logout("sess-login"); err != nil {
		t.Fatal(err)
	}
	if _, err := auth.CurrentUser("sess-login"); err == nil {
		t.Fatal("logout must unbind the session")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newAuthSvc(t)

	// Wrong password, unknown email, and a password that fails the
	// complexity window all yield the same error.
	for _, tc := range []struct{ email, password string }{
		{"alice@maplecart.test", "Wr0ng-pass!"},
		{"nobody@maplecart.test", "Passw0rd!"},
		{"alice@maplecart.test", "short"},
	} {
		_, err := auth.Login("sess-x", tc.email, tc.password)
		if !errors.Is(err, services.ErrBadCreds) {
			t.Fatalf("%s/%s: want ErrBadCreds, got %v", tc.email, tc.password, err)
		}
	}
	if _, err := auth.CurrentUser("sess-x"); err == nil {
		t.Fatal("failed logins must not bind the session")
	}
}
