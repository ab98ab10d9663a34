package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
)

const (
	eventRegister = "register"
	eventLogin    = "login"
	eventLogout   = "logout"
)

var (
	ErrUserExists         = errors.New("Username or email already exists!")
	ErrInvalidCredentials = errors.New("Invalid username or password!")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrPasswordTooLong    = errors.New("Password must be at most 72 bytes!")
)

type userRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (int64, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
}

type sessionStore interface {
	Save(ctx context.Context, sess models.Session) error
	Get(ctx context.Context, token string) (models.Session, error)
	Delete(ctx context.Context, token string) error
}

type eventRecorder interface {
	RecordAuth(event string, err error)
}

type Service struct {
	users    userRepository
	sessions sessionStore
	metrics  eventRecorder
	ttl      time.Duration
	cost     int
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(
	users userRepository,
	sessions sessionStore,
	m eventRecorder,
	ttl time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		metrics:  m,
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		logger:   logger.With().Str("component", "AuthService").Logger(),
		now:      time.Now,
	}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) Register(ctx context.Context, form models.RegisterForm) (err error) {
	defer func() { s.metrics.RecordAuth(eventRegister, err) }()

	username := strings.TrimSpace(form.Username)
	email := strings.TrimSpace(form.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return ErrPasswordTooLong
		}
		return err
	}

	id, err := s.users.Create(ctx, username, email, string(hash))
	if err != nil {
		if errors.Is(err, models.ErrUserExists) {
			return ErrUserExists
		}
		return err
	}

	s.logger.Info().Ctx(ctx).Int64("user_id", id).Str("username", username).Msg("user registered")
	return nil
}

// Login checks the credentials and opens a new session.
func (s *Service) Login(ctx context.Context, form models.LoginForm) (sess models.Session, err error) {
	defer func() { s.metrics.RecordAuth(eventLogin, err) }()

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(form.Username))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.Session{}, ErrInvalidCredentials
		}
		return models.Session{}, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		s.logger.Info().Ctx(ctx).Str("username", user.Username).Msg("wrong password")
		return models.Session{}, ErrInvalidCredentials
	}

	sess = models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err = s.sessions.Save(ctx, sess); err != nil {
		return models.Session{}, err
	}

	s.logger.Info().Ctx(ctx).Int64("user_id", user.ID).Msg("user logged in")
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) (err error) {
	defer func() { s.metrics.RecordAuth(eventLogout, err) }()

	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// Identify resolves a session token to the logged-in user. A session whose user
// no longer exists is dropped.
func (s *Service) Identify(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, ErrSessionNotFound
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return models.Identity{}, ErrSessionNotFound
		}
		return models.Identity{}, err
	}
	if !sess.ExpiresAt.IsZero() && s.now().After(sess.ExpiresAt) {
		return models.Identity{}, ErrSessionNotFound
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			if delErr := s.sessions.Delete(ctx, token); delErr != nil {
				s.logger.Warn().Ctx(ctx).Err(delErr).Msg("failed to drop orphaned session")
			}
			return models.Identity{}, ErrSessionNotFound
		}
		return models.Identity{}, err
	}

	return models.Identity{UserID: user.ID, Username: user.Username}, nil
}
