package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Method identifies which identity source an account was created from.
// It is fixed at creation and never changes.
type Method string

const (
	MethodLocal  Method = "local"
	MethodGoogle Method = "google"
)

// MinPasswordLength is enforced on the plaintext before hashing.
const MinPasswordLength = 6

var (
	// ErrPasswordTooShort indicates the plaintext fails the length policy.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrMalformedUser indicates a user record violating the identity union.
	ErrMalformedUser = errors.New("user must carry exactly one identity")
)

// LocalIdentity carries the credential fields of a locally registered account.
type LocalIdentity struct {
	Email        string
	PasswordHash string
}

// GoogleIdentity carries the provider subject of a federated account.
type GoogleIdentity struct {
	Subject string
}

// User is the sole persisted identity entity. Exactly one of Local or Google
// is non-nil, matching Method; the constructors below are the only creation
// paths.
type User struct {
	ID           string
	Method       Method
	DisplayName  string
	FirstName    string
	LastName     string
	ProfileImage string
	CreatedAt    time.Time

	Local  *LocalIdentity
	Google *GoogleIdentity
}

// NewLocalUser builds a local account draft. The password hash must already
// be produced by the Hasher; plaintext never reaches this constructor.
func NewLocalUser(email, passwordHash, firstName, lastName string) *User {
	return &User{
		ID:          uuid.NewString(),
		Method:      MethodLocal,
		DisplayName: strings.TrimSpace(firstName + " " + lastName),
		FirstName:   firstName,
		LastName:    lastName,
		CreatedAt:   time.Now().UTC(),
		Local:       &LocalIdentity{Email: NormalizeEmail(email), PasswordHash: passwordHash},
	}
}

// NewGoogleUser builds an account draft from a federated profile.
func NewGoogleUser(profile GoogleProfile) *User {
	return &User{
		ID:           uuid.NewString(),
		Method:       MethodGoogle,
		DisplayName:  profile.DisplayName,
		FirstName:    profile.GivenName,
		LastName:     profile.FamilyName,
		ProfileImage: profile.Picture,
		CreatedAt:    time.Now().UTC(),
		Google:       &GoogleIdentity{Subject: profile.Subject},
	}
}

// Validate checks the identity union invariant.
func (u *User) Validate() error {
	switch u.Method {
	case MethodLocal:
		if u.Local == nil || u.Google != nil || u.Local.Email == "" || u.Local.PasswordHash == "" {
			return ErrMalformedUser
		}
	case MethodGoogle:
		if u.Google == nil || u.Local != nil || u.Google.Subject == "" {
			return ErrMalformedUser
		}
	default:
		return ErrMalformedUser
	}
	return nil
}

// Email returns the account email, empty for federated accounts.
func (u *User) Email() string {
	if u.Local == nil {
		return ""
	}
	return u.Local.Email
}

var emailFolder = cases.Fold()

// NormalizeEmail trims surrounding whitespace and case-folds the address so
// lookups and the unique index agree on one canonical form.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}
