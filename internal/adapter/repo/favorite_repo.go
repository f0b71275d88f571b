package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

// FavoriteRepositoryPG implements domain.FavoriteRepository over PostgreSQL.
type FavoriteRepositoryPG struct {
	db DB
}

// NewFavoriteRepository creates a new FavoriteRepositoryPG.
func NewFavoriteRepository(db DB) *FavoriteRepositoryPG {
	return &FavoriteRepositoryPG{db: db}
}

// Create saves a generation result for later.
func (r *FavoriteRepositoryPG) Create(ctx context.Context, fav *domain.Favorite) (*domain.Favorite, error) {
	row := r.db.QueryRow(ctx, `
INSERT INTO favorites (account_id, feature, product, content)
VALUES ($1, $2, $3, $4)
RETURNING id, account_id, feature, product, content, created_at;`,
		fav.AccountID,
		string(fav.Feature),
		fav.Product,
		fav.Content,
	)
	return scanFavorite(row)
}

// ListByAccount returns the account's favorites, newest first.
func (r *FavoriteRepositoryPG) ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.Favorite, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
SELECT id, account_id, feature, product, content, created_at
FROM favorites
WHERE account_id = $1
ORDER BY created_at DESC
LIMIT $2;`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		var feature string
		if err := rows.Scan(&f.ID, &f.AccountID, &feature, &f.Product, &f.Content, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Feature = domain.Feature(feature)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Delete removes a favorite owned by the account.
func (r *FavoriteRepositoryPG) Delete(ctx context.Context, accountID, favoriteID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE id = $1 AND account_id = $2`, favoriteID, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanFavorite(row pgx.Row) (*domain.Favorite, error) {
	var f domain.Favorite
	var feature string
	if err := row.Scan(&f.ID, &f.AccountID, &feature, &f.Product, &f.Content, &f.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	f.Feature = domain.Feature(feature)
	return &f, nil
}

var _ domain.FavoriteRepository = (*FavoriteRepositoryPG)(nil)
