package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"axs-learn/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByIdentity(ctx context.Context, provider, subject string) (domain.User, error)
	GetByResetToken(ctx context.Context, token string) (domain.User, error)
	LinkIdentity(ctx context.Context, userID, provider, subject string) error
	UpdateName(ctx context.Context, id, name string) error
	SetProfilePictureIfAbsent(ctx context.Context, id, url string) error
	MarkVerified(ctx context.Context, id string) error
	UpdateOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id string) error
	UpdateResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `
	u.id, u.name, u.email, u.password_hash, u.auth_provider, u.profile_picture,
	u.is_verified, u.otp_code_hash, u.otp_expires_at, u.reset_token,
	u.reset_expires_at, u.created_at, u.updated_at
`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO users (
			id, name, email, password_hash, auth_provider, profile_picture,
			is_verified, otp_code_hash, otp_expires_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`
	_, err = tx.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.AuthProvider,
		user.ProfilePicture,
		user.IsVerified,
		user.OtpCodeHash,
		user.OtpExpiresAt,
		user.CreatedAt,
	)
	if err != nil {
		return err
	}

	for provider, subject := range user.Identities {
		const identityQuery = `
			INSERT INTO user_identities (provider, subject, user_id)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.Exec(ctx, identityQuery, provider, subject, user.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return r.fetchOne(ctx, query, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users u WHERE lower(u.email) = lower($1)`
	return r.fetchOne(ctx, query, email)
}

func (r *PgUserRepository) GetByIdentity(ctx context.Context, provider, subject string) (domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users u
		JOIN user_identities i ON i.user_id = u.id
		WHERE i.provider = $1 AND i.subject = $2
	`
	return r.fetchOne(ctx, query, provider, subject)
}

func (r *PgUserRepository) GetByResetToken(ctx context.Context, token string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users u WHERE u.reset_token = $1 AND u.reset_token <> ''`
	return r.fetchOne(ctx, query, token)
}

func (r *PgUserRepository) LinkIdentity(ctx context.Context, userID, provider, subject string) error {
	// ON CONFLICT DO NOTHING hace la vinculacion idempotente para el mismo par.
	const query = `
		INSERT INTO user_identities (provider, subject, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, subject) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, provider, subject, userID)
	return err
}

func (r *PgUserRepository) UpdateName(ctx context.Context, id, name string) error {
	const query = `UPDATE users SET name = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, name)
}

func (r *PgUserRepository) SetProfilePictureIfAbsent(ctx context.Context, id, url string) error {
	const query = `
		UPDATE users SET profile_picture = $2, updated_at = now()
		WHERE id = $1 AND profile_picture = ''
	`
	_, err := r.pool.Exec(ctx, query, id, url)
	return err
}

func (r *PgUserRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET is_verified = TRUE, otp_code_hash = '', otp_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id)
}

func (r *PgUserRepository) UpdateOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET otp_code_hash = $2, otp_expires_at = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, otpHash, expiresAt)
}

func (r *PgUserRepository) ClearOTP(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET otp_code_hash = '', otp_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id)
}

func (r *PgUserRepository) UpdateResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET reset_token = $2, reset_expires_at = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, token, expiresAt)
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2, reset_token = '', reset_expires_at = NULL, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PgUserRepository) fetchOne(ctx context.Context, query string, args ...any) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.AuthProvider,
		&u.ProfilePicture,
		&u.IsVerified,
		&u.OtpCodeHash,
		&u.OtpExpiresAt,
		&u.ResetToken,
		&u.ResetExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Identities, err = r.identities(ctx, u.ID)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *PgUserRepository) identities(ctx context.Context, userID string) (map[string]string, error) {
	const query = `SELECT provider, subject FROM user_identities WHERE user_id = $1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	identities := make(map[string]string)
	for rows.Next() {
		var provider, subject string
		if err := rows.Scan(&provider, &subject); err != nil {
			return nil, err
		}
		identities[provider] = subject
	}
	return identities, rows.Err()
}

func (r *PgUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
