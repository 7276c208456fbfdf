package postgres

import (
	"context"
	"fmt"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// UserRepo implements ports.UserRepository with pgx.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts a user or refreshes name and picture. The contribution
// counter and favourites are never overwritten here.
func (r *UserRepo) Upsert(ctx context.Context, u *domain.UserProfile) error {
	favorites := u.FavoriteSpecies
	if favorites == nil {
		favorites = []string{}
	}
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, picture, favorite_species, contribution_number)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, picture = EXCLUDED.picture, updated_at = now()
		RETURNING favorite_species, contribution_number
	`, u.Email, u.Name, u.Picture, favorites).Scan(&u.FavoriteSpecies, &u.ContributionNumber)
}

// GetByEmail returns a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	err := r.db.Pool.QueryRow(ctx, `
		SELECT email, name, picture, favorite_species, contribution_number
		FROM users WHERE email = $1
	`, email).Scan(&u.Email, &u.Name, &u.Picture, &u.FavoriteSpecies, &u.ContributionNumber)
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	if u.FavoriteSpecies == nil {
		u.FavoriteSpecies = []string{}
	}
	return &u, nil
}

// IncrementContributions bumps the user's contribution counter. Unknown
// reporters get a bare profile so the count is not lost.
func (r *UserRepo) IncrementContributions(ctx context.Context, email string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO users (email, name, picture, favorite_species, contribution_number)
		VALUES ($1, $1, '', '{}', 1)
		ON CONFLICT (email) DO UPDATE
		SET contribution_number = users.contribution_number + 1, updated_at = now()
	`, email)
	return err
}

// SetFavorites replaces the user's favourite species.
func (r *UserRepo) SetFavorites(ctx context.Context, email string, favorites []string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE users SET favorite_species = $2, updated_at = now() WHERE email = $1
	`, email, favorites)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, email)
	}
	return nil
}

// ListByFavorite returns users whose favourites contain species exactly.
func (r *UserRepo) ListByFavorite(ctx context.Context, species string) ([]domain.UserProfile, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT email, name, picture, favorite_species, contribution_number
		FROM users WHERE $1 = ANY(favorite_species)
	`, species)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserProfile
	for rows.Next() {
		var u domain.UserProfile
		if err := rows.Scan(&u.Email, &u.Name, &u.Picture, &u.FavoriteSpecies, &u.ContributionNumber); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
