package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
	repo "github.com/oksasatya/go-library-management/internal/domain/repository"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

var ErrInvalidCredentials = errs.Unauthenticated("invalid credentials")

// AuthService issues and rotates login sessions. A session is a Redis hash
// at user:session:<id> holding the current sid and the session CSRF token.
type AuthService struct {
	Users  repo.UserRepository
	JWT    *helpers.JWTManager
	Hasher PasswordHasher
	Redis  *redis.Client
	Logger *logrus.Logger
	// SessionTTL bounds the lifetime of the Redis session hash.
	SessionTTL time.Duration
}

func NewAuthService(users repo.UserRepository, jwt *helpers.JWTManager, hasher PasswordHasher, rdb *redis.Client,
	logger *logrus.Logger, sessionTTL time.Duration) *AuthService {
	return &AuthService{Users: users, JWT: jwt, Hasher: hasher, Redis: rdb, Logger: logger, SessionTTL: sessionTTL}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// Session is what a successful login or refresh hands back to the transport.
type Session struct {
	User      *entity.User
	Tokens    TokenPair
	CSRFToken string
}

func sessionKey(userID int64) string {
	return helpers.SessionKey(strconv.FormatInt(userID, 10))
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errs.Internal("load user", err)
	}
	if !s.Hasher.Compare(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.IssueTokens(ctx, u)
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, u *entity.User) (*Session, error) {
	sid := uuid.NewString()
	pair, err := s.tokens(u, sid)
	if err != nil {
		return nil, err
	}
	csrf, err := helpers.RandomToken(32)
	if err != nil {
		return nil, errs.Internal("generate csrf token", err)
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"role":       string(u.Role),
			"sid":        sid,
			"csrf":       csrf,
			"created_at": helpers.NowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, s.ttl())
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			return nil, errs.Internal("store session", rErr)
		}
	}
	return &Session{User: u, Tokens: pair, CSRFToken: csrf}, nil
}

// Refresh validates a refresh token against the live session and rotates
// both the session id and the tokens. The CSRF token is kept.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errs.Internal("load user", err)
	}

	var csrf string
	key := sessionKey(u.ID)
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return nil, ErrInvalidCredentials
		}
		csrf = data["csrf"]
	}

	sid := uuid.NewString()
	pair, err := s.tokens(u, sid)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"role":       string(u.Role),
			"updated_at": helpers.NowRFC3339(),
		})
		pipe.Expire(ctx, key, s.ttl())
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return &Session{User: u, Tokens: pair, CSRFToken: csrf}, nil
}

// Logout drops the session so outstanding tokens stop working.
func (s *AuthService) Logout(ctx context.Context, p entity.Principal) error {
	if !p.Authenticated {
		return nil
	}
	return s.Revoke(ctx, p.UserID)
}

func (s *AuthService) Revoke(ctx context.Context, userID int64) error {
	if s.Redis == nil {
		return nil
	}
	return helpers.RedisDel(ctx, s.Redis, sessionKey(userID))
}

func (s *AuthService) tokens(u *entity.User, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid, string(u.Role), u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, errs.Internal("generate access token", err)
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid, string(u.Role), u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, errs.Internal("generate refresh token", err)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *AuthService) ttl() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

var _ SessionRevoker = (*AuthService)(nil)
