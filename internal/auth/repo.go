package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkwell-app/inkwell/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByGoogleID(ctx context.Context, subject string) (*User, error)
	// FindByIdentifier matches either an email or a Google subject. The
	// registration duplicate pre-check uses it so a local email colliding
	// with a federated subject surfaces the same duplicate condition.
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	Create(ctx context.Context, user *User) error
	CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

const uniqueViolation = "23505"

const userColumns = `id, auth_method, google_id, email, password_hash, display_name, first_name, last_name, profile_image, created_at`

// PGRepository implements Repository using PostgreSQL. Identity uniqueness
// is enforced by partial unique indexes on email and google_id, so racing
// creates fail here rather than producing duplicate accounts.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByID fetches a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a local user by email. Federated accounts never match.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND auth_method = 'local'`,
		NormalizeEmail(email))
	return scanUser(row)
}

// FindByGoogleID fetches a federated user by provider subject.
func (r *PGRepository) FindByGoogleID(ctx context.Context, subject string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`, subject)
	return scanUser(row)
}

// FindByIdentifier fetches a user whose email or Google subject equals the
// given identifier.
func (r *PGRepository) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR google_id = $1`,
		NormalizeEmail(identifier))
	return scanUser(row)
}

// Create inserts a new user record. A unique-index violation maps to
// shared.ErrDuplicateIdentity.
func (r *PGRepository) Create(ctx context.Context, user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	var googleID, email, passwordHash pgtype.Text
	if user.Google != nil {
		googleID = pgtype.Text{String: user.Google.Subject, Valid: true}
	}
	if user.Local != nil {
		email = pgtype.Text{String: user.Local.Email, Valid: true}
		passwordHash = pgtype.Text{String: user.Local.PasswordHash, Valid: true}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, auth_method, google_id, email, password_hash, display_name, first_name, last_name, profile_image, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, string(user.Method), googleID, email, passwordHash,
		user.DisplayName, user.FirstName, user.LastName, user.ProfileImage,
		pgtype.Timestamptz{Time: user.CreatedAt, Valid: true})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shared.ErrDuplicateIdentity
		}
		return fmt.Errorf("auth: create user: %w", err)
	}
	return nil
}

// CreateSession records a login session for operators.
func (r *PGRepository) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at, ip, ua)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`,
		id, userID,
		pgtype.Timestamptz{Time: now, Valid: true},
		pgtype.Timestamptz{Time: expiresAt.UTC(), Valid: true},
		pgtype.Text{String: ip, Valid: ip != ""},
		pgtype.Text{String: ua, Valid: ua != ""})
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE id = $1`, id)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		user         User
		method       string
		googleID     pgtype.Text
		email        pgtype.Text
		passwordHash pgtype.Text
		profileImage pgtype.Text
		firstName    pgtype.Text
		lastName     pgtype.Text
		createdAt    pgtype.Timestamptz
	)
	err := row.Scan(&user.ID, &method, &googleID, &email, &passwordHash,
		&user.DisplayName, &firstName, &lastName, &profileImage, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	user.Method = Method(method)
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.ProfileImage = profileImage.String
	user.CreatedAt = createdAt.Time
	switch user.Method {
	case MethodLocal:
		user.Local = &LocalIdentity{Email: email.String, PasswordHash: passwordHash.String}
	case MethodGoogle:
		user.Google = &GoogleIdentity{Subject: googleID.String}
	}
	return &user, nil
}

var _ Repository = (*PGRepository)(nil)
