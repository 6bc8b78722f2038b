package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeshare/internal/utils"
	"lifeshare/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userTableName = "lifeshare.users"

var userColumns = utils.StructTagValues(types.DonorProfile{})

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, userID string) (*types.DonorProfile, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.DonorProfile
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, unavailable(err, "failed to fetch user")
	}

	return &user, nil
}

// ListDonors returns every profile with the donor role that matches the
// non-empty fields of criteria, oldest first.
func (r *UserRepository) ListDonors(ctx context.Context, criteria types.FilterCriteria) ([]*types.DonorProfile, error) {
	where := sq.Eq{"role": types.RoleDonor}
	if criteria.District != "" {
		where["district"] = criteria.District
	}
	if criteria.City != "" {
		where["city"] = criteria.City
	}
	if criteria.BloodGroup != "" {
		where["blood_group"] = criteria.BloodGroup
	}

	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(where).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donors query: %w", err)
	}

	donors := make([]*types.DonorProfile, 0)
	err = pgxscan.Select(ctx, r.pool, &donors, query, args...)
	if err != nil {
		return nil, unavailable(err, "failed to fetch donors")
	}

	return donors, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	query, args, err := psql().
		Select("count(*)").
		From(userTableName).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate user count query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, unavailable(err, "failed to count users")
	}

	return count, nil
}

// Create inserts user, assigning an id when none is set and defaulting the
// role to donor.
func (r *UserRepository) Create(ctx context.Context, user *types.DonorProfile) error {
	if user.ID == "" {
		user.ID = utils.NanoID()
	}
	if user.Role == "" {
		user.Role = types.RoleDonor
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query, args, err := psql().
		Insert(userTableName).
		SetMap(utils.StructToMap(user)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create user query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return types.ErrUserExists
		}
		return unavailable(err, "failed to create user")
	}

	return nil
}

// Update writes the set fields of update. It returns ErrUserNotFound when no
// row has the given id.
func (r *UserRepository) Update(ctx context.Context, userID string, update types.ProfileUpdate) error {
	columns := update.Columns()
	columns["updated_at"] = time.Now()

	query, args, err := psql().
		Update(userTableName).
		SetMap(columns).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update user query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return unavailable(err, "failed to update user")
	}

	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	query, args, err := psql().
		Delete(userTableName).
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete user query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return unavailable(err, "failed to delete user")
	}

	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}

	return nil
}
