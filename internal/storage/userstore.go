package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/sortspec"
)

// UserStore owns the users table of the user service.
type UserStore struct {
	db *sqlx.DB
	// softDelete flips is_active instead of removing the row. Which mode
	// a deployment runs is a local decision; the Delete contract is the
	// same either way.
	softDelete bool
}

// NewUserStore connects to PostgreSQL via the pgx stdlib driver and
// prepares the users table.
func NewUserStore(connectionString string, softDelete bool) (*UserStore, error) {
	db, err := sqlx.Connect("pgx", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &UserStore{db: db, softDelete: softDelete}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("Connected to PostgreSQL successfully")
	return s, nil
}

func (s *UserStore) createTables() error {
	query := `
    CREATE TABLE IF NOT EXISTS users (
        user_id VARCHAR(36) PRIMARY KEY,
        username VARCHAR(32) NOT NULL UNIQUE,
        email VARCHAR(255) NOT NULL UNIQUE,
        hashed_password VARCHAR(255) NOT NULL,
        role VARCHAR(32) NOT NULL DEFAULT 'VIEWER',
        storage_allowance BIGINT NOT NULL DEFAULT 500000000,
        is_active BOOLEAN NOT NULL DEFAULT true,
        joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    `
	_, err := s.db.Exec(query)
	return err
}

const userColumns = `user_id, username, email, hashed_password, role, storage_allowance, is_active, joined_at`

// Create inserts a new account. Duplicate username or email surfaces as
// ErrConflict via the unique constraints rather than a prior read.
func (s *UserStore) Create(ctx context.Context, user models.User) (models.User, error) {
	query := `
    INSERT INTO users (user_id, username, email, hashed_password, role, storage_allowance, is_active)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING joined_at
    `
	err := s.db.QueryRowxContext(ctx, query,
		user.UserID, user.Username, user.Email, user.HashedPassword,
		user.Role, user.StorageAllowance, user.IsActive,
	).Scan(&user.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *UserStore) getBy(ctx context.Context, column, value string) (models.User, error) {
	var user models.User
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	err := s.db.GetContext(ctx, &user, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return user, nil
}

func (s *UserStore) ByID(ctx context.Context, userID string) (models.User, error) {
	return s.getBy(ctx, "user_id", userID)
}

func (s *UserStore) ByUsername(ctx context.Context, username string) (models.User, error) {
	return s.getBy(ctx, "username", username)
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getBy(ctx, "email", email)
}

// ListByFilter returns one page of accounts matching the filter plus the
// total match count before pagination, so callers can compute page counts.
func (s *UserStore) ListByFilter(ctx context.Context, filter models.UserFilter, offset, limit int, sortField string, desc bool) ([]models.User, int64, error) {
	where, args := buildUserFilter(filter)
	offset, limit = sortspec.ClampPage(offset, limit)

	countQuery := `SELECT COUNT(*) FROM users` + where
	var total int64
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY %s %s, user_id ASC OFFSET $%d LIMIT $%d`,
		userColumns, where,
		sortspec.ResolveUserSort(sortField), sortspec.Direction(desc),
		len(args)+1, len(args)+2,
	)
	args = append(args, offset, limit)

	users := []models.User{}
	if err := s.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// buildUserFilter renders the WHERE clause for ListByFilter. Username and
// email filter by substring, user_id and role by exact match.
func buildUserFilter(filter models.UserFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Username != "" {
		add("username ILIKE '%%' || $%d || '%%'", filter.Username)
	}
	if filter.Email != "" {
		add("email ILIKE '%%' || $%d || '%%'", filter.Email)
	}
	if filter.Role != "" {
		add("role = $%d", string(filter.Role))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Update applies a partial update; nil fields keep their stored value.
// Returns ErrNotFound for an unknown id.
func (s *UserStore) Update(ctx context.Context, userID string, update models.UserUpdate) (models.User, error) {
	var sets []string
	var args []interface{}

	set := func(expr string, arg interface{}) {
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if update.Role != nil {
		set("role = $%d", string(*update.Role))
	}
	if update.StorageAllowance != nil {
		set("storage_allowance = $%d", *update.StorageAllowance)
	}
	if update.IsActive != nil {
		set("is_active = $%d", *update.IsActive)
	}

	if len(sets) == 0 {
		// nothing to change; behave like a read
		return s.ByID(ctx, userID)
	}

	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete removes an account, softly or physically depending on the
// configured mode. Idempotent on a missing id: reports found=false,
// never an error.
func (s *UserStore) Delete(ctx context.Context, userID string) (bool, error) {
	var query string
	if s.softDelete {
		query = `UPDATE users SET is_active = false WHERE user_id = $1`
	} else {
		query = `DELETE FROM users WHERE user_id = $1`
	}

	res, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// Close releases the connection pool.
func (s *UserStore) Close() error {
	return s.db.Close()
}
