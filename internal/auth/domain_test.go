package auth_test

import (
	"errors"
	"testing"

	"github.com/inkwell-app/inkwell/internal/auth"
	_ "github.com/inkwell-app/inkwell/testing"
)

func TestNewLocalUser(t *testing.T) {
	user := auth.NewLocalUser("  John@Example.COM ", "$2a$10$digest", "John", "Doe")
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Method != auth.MethodLocal {
		t.Fatalf("expected local method, got %q", user.Method)
	}
	if user.Google != nil {
		t.Fatalf("expected no federated identity on local account")
	}
	if user.Email() != "john@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email())
	}
	if user.DisplayName != "John Doe" {
		t.Fatalf("expected display name, got %q", user.DisplayName)
	}
}

func TestNewGoogleUser(t *testing.T) {
	user := auth.NewGoogleUser(auth.GoogleProfile{
		Subject:     "subj-1",
		DisplayName: "Jane Doe",
		GivenName:   "Jane",
		FamilyName:  "Doe",
		Picture:     "https://lh3.googleusercontent.com/a/photo",
	})
	if user.Method != auth.MethodGoogle {
		t.Fatalf("expected google method, got %q", user.Method)
	}
	if user.Local != nil {
		t.Fatalf("expected no local identity on federated account")
	}
	if user.Google == nil || user.Google.Subject != "subj-1" {
		t.Fatalf("expected subject carried over")
	}
	if user.Email() != "" {
		t.Fatalf("expected empty email for federated account")
	}
}

func TestUserValidateRejectsMixedIdentities(t *testing.T) {
	user := auth.NewLocalUser("a@b.com", "$2a$10$digest", "A", "B")
	user.Google = &auth.GoogleIdentity{Subject: "subj"}
	if err := user.Validate(); !errors.Is(err, auth.ErrMalformedUser) {
		t.Fatalf("expected ErrMalformedUser, got %v", err)
	}

	user = auth.NewGoogleUser(auth.GoogleProfile{Subject: "subj"})
	user.Google = nil
	if err := user.Validate(); !errors.Is(err, auth.ErrMalformedUser) {
		t.Fatalf("expected ErrMalformedUser for missing identity, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  user@example.com ": "user@example.com",
		"USER@EXAMPLE.COM":    "user@example.com",
		"MiXeD@Example.Com":   "mixed@example.com",
	}
	for in, want := range cases {
		if got := auth.NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
