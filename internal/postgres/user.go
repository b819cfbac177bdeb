package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/epharmacy/internal/domain"
)

// =============================================================================
// USERS
// =============================================================================

const userColumns = "id, name, email, phone, password_hash, role, created_at, updated_at"

type userStore struct{ db querier }

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (us userStore) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = domain.RoleCustomer
	}
	err := us.db.QueryRow(ctx, `
		INSERT INTO users (name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.Phone, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return classify(err, "postgres.users.create")
}

func (us userStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(us.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, classify(err, "postgres.users.get")
	}
	return u, nil
}

func (us userStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(us.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", strings.TrimSpace(email)))
	if err != nil {
		return nil, classify(err, "postgres.users.get_by_email")
	}
	return u, nil
}

func (us userStore) Update(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := us.db.QueryRow(ctx, `
		UPDATE users SET name = $2, email = $3, phone = $4, role = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		u.ID, u.Name, u.Email, u.Phone, u.Role,
	).Scan(&u.UpdatedAt)
	return classify(err, "postgres.users.update")
}

func (us userStore) List(ctx context.Context, page domain.PageRequest) ([]domain.User, int, error) {
	const op = "postgres.users.list"

	var total int
	if err := us.db.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&total); err != nil {
		return nil, 0, classify(err, op)
	}

	rows, err := us.db.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM users ORDER BY created_at DESC, id LIMIT %d OFFSET %d",
		userColumns, page.Limit, page.Offset()))
	if err != nil {
		return nil, 0, classify(err, op)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, classify(err, op)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify(err, op)
	}
	return out, total, nil
}

// =============================================================================
// REVOKED TOKENS
// =============================================================================

type tokenStore struct{ db querier }

func (ts tokenStore) Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := ts.db.Exec(ctx, `
		INSERT INTO revoked_tokens (token_hash, expires_at) VALUES ($1, $2)
		ON CONFLICT (token_hash) DO NOTHING`,
		tokenHash, expiresAt,
	)
	return classify(err, "postgres.tokens.revoke")
}

func (ts tokenStore) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	var revoked bool
	err := ts.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_hash = $1 AND expires_at > now())",
		tokenHash,
	).Scan(&revoked)
	if err != nil {
		return false, classify(err, "postgres.tokens.is_revoked")
	}
	return revoked, nil
}

func (ts tokenStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := ts.db.Exec(ctx, "DELETE FROM revoked_tokens WHERE expires_at < $1", cutoff)
	if err != nil {
		return 0, classify(err, "postgres.tokens.purge_expired")
	}
	return tag.RowsAffected(), nil
}
