package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
)

// UserRepository stores accounts in the users table.
type UserRepository struct {
	DB  *sql.DB
	log zerolog.Logger
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) *UserRepository {
	logger = logger.With().Str("component", "UserRepository").Logger()
	return &UserRepository{DB: db, log: logger}
}

// Create inserts a new user and returns its id, or ErrUserExists on a duplicate username or email.
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string) (int64, error) {
	start := time.Now()
	r.log.Debug().Ctx(ctx).
		Str("username", username).
		Msg("checking existing accounts")

	var cnt int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`,
		username, email,
	).Scan(&cnt)
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to query account count")
		return 0, err
	}
	if cnt > 0 {
		r.log.Warn().Ctx(ctx).
			Str("username", username).
			Msg("account already exists, abort create")
		return 0, models.ErrUserExists
	}

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password, created_at) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, models.ErrUserExists
		}
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to insert user")
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to read inserted id")
		return 0, err
	}

	r.log.Info().Ctx(ctx).
		Str("username", username).
		Int64("user_id", id).
		Dur("duration", time.Since(start)).
		Msg("user created")
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, username, email, password, created_at FROM users WHERE username = ?`, username)
	return r.scanUser(ctx, row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, username, email, password, created_at FROM users WHERE id = ?`, id)
	return r.scanUser(ctx, row)
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var cnt int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&cnt); err != nil {
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to count users")
		return 0, err
	}
	return cnt, nil
}

func (r *UserRepository) scanUser(ctx context.Context, row *sql.Row) (models.User, error) {
	var (
		u         models.User
		createdAt sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.ErrUserNotFound
		}
		r.log.Error().Err(err).Ctx(ctx).Msg("failed to scan user row")
		return models.User{}, err
	}
	if createdAt.Valid {
		u.CreatedAt = createdAt.Time
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
