// Package repo contains the PostgreSQL implementations of the domain
// repository interfaces.
package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

// DB is the subset of pgxpool.Pool the repositories depend on.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepositoryPG implements domain.AccountRepository over PostgreSQL.
type AccountRepositoryPG struct {
	db DB
}

// NewAccountRepository creates a new AccountRepositoryPG.
func NewAccountRepository(db DB) *AccountRepositoryPG {
	return &AccountRepositoryPG{db: db}
}

const accountColumns = `id, email, password_hash, display_name, locale, plan, subscription_status, billing_ref, created_at, updated_at`

// Create inserts a new free-tier account. A duplicate email maps to
// domain.ErrEmailTaken.
func (r *AccountRepositoryPG) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
INSERT INTO accounts (email, password_hash, display_name, locale)
VALUES ($1, $2, $3, $4)
RETURNING `+accountColumns+`;`,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.Locale,
	)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

// GetByID fetches an account by UUID.
func (r *AccountRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByEmail fetches an account by email.
func (r *AccountRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// Activate flips the subscription to active. The statement is a plain UPDATE
// to the target state, so replaying a payment event is a harmless no-op.
func (r *AccountRepositoryPG) Activate(ctx context.Context, id, plan, billingRef string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
UPDATE accounts
SET subscription_status = 'active',
    plan = $2,
    billing_ref = CASE WHEN $3 <> '' THEN $3 ELSE billing_ref END,
    updated_at = now()
WHERE id = $1
RETURNING `+accountColumns+`;`, id, plan, billingRef)
	return scanAccount(row)
}

// Deactivate reverts the account owning the billing reference to free.
func (r *AccountRepositoryPG) Deactivate(ctx context.Context, billingRef string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
UPDATE accounts
SET subscription_status = 'free',
    plan = 'free',
    updated_at = now()
WHERE billing_ref = $1 AND billing_ref <> ''
RETURNING `+accountColumns+`;`, billingRef)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var status string
	if err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.DisplayName,
		&a.Locale,
		&a.Subscription.Plan,
		&status,
		&a.Subscription.BillingRef,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.Subscription.Status = domain.SubscriptionStatus(status)
	return &a, nil
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)
