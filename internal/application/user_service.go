package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
	"github.com/oksasatya/go-library-management/internal/domain/policy"
	repo "github.com/oksasatya/go-library-management/internal/domain/repository"
	"github.com/oksasatya/go-library-management/pkg/helpers"
)

const msgEmailTaken = "email already exists"

type UserService struct {
	Users    repo.UserRepository
	Loans    repo.LoanRepository
	Tx       repo.TxManager
	Hasher   PasswordHasher
	Notifier *Notifier
	Sessions SessionRevoker
	Logger   *logrus.Logger
	Now      Clock
}

func NewUserService(users repo.UserRepository, loans repo.LoanRepository, tx repo.TxManager, hasher PasswordHasher,
	notifier *Notifier, sessions SessionRevoker, logger *logrus.Logger) *UserService {
	return &UserService{
		Users:    users,
		Loans:    loans,
		Tx:       tx,
		Hasher:   hasher,
		Notifier: notifier,
		Sessions: sessions,
		Logger:   logger,
		Now:      helpers.NowUTC,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// Register creates an account. USER accounts are open to anyone; ADMIN
// accounts need an ADMIN caller.
func (s *UserService) Register(ctx context.Context, p entity.Principal, in RegisterInput) (*entity.User, error) {
	role, ok := entity.ParseRole(in.Role)
	if !ok {
		return nil, errs.Validation("invalid payload", map[string]string{"role": "must be USER or ADMIN"})
	}
	if err := policy.CanRegister(p, role); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, errs.Conflict(msgEmailTaken)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, errs.Internal("check email", err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, errs.Internal("hash password", err)
	}
	now := helpers.NowUTC()
	if s.Now != nil {
		now = s.Now().UTC().Truncate(time.Microsecond)
	}
	u := &entity.User{
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		Email:            email,
		Password:         hash,
		Role:             role,
		RegistrationDate: now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, errs.Conflict(msgEmailTaken)
		}
		return nil, errs.Internal("create user", err)
	}

	_ = s.Notifier.Welcome(ctx, u)
	return u, nil
}

func (s *UserService) Get(ctx context.Context, p entity.Principal, id int64) (*entity.User, error) {
	if err := policy.CanReadUser(p, id); err != nil {
		return nil, err
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "load user")
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, p entity.Principal, email string) (*entity.User, error) {
	if err := policy.CanReadUserByEmail(p, email); err != nil {
		return nil, err
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, notFoundOr(err, msgUserNotFound, "load user")
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, p entity.Principal) ([]entity.User, error) {
	if err := policy.CanListUsers(p); err != nil {
		return nil, err
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, errs.Internal("list users", err)
	}
	return users, nil
}

// Delete removes a user and their returned loans. A user with an active
// loan cannot be deleted.
func (s *UserService) Delete(ctx context.Context, p entity.Principal, id int64) error {
	if err := policy.CanDeleteUser(p); err != nil {
		return err
	}
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		// the row lock holds back loans that would reference the user
		// until this transaction ends
		if err := s.Users.LockByID(ctx, id); err != nil {
			return notFoundOr(err, msgUserNotFound, "lock user")
		}
		active, err := s.Loans.CountActiveByUser(ctx, id)
		if err != nil {
			return errs.Internal("count active loans", err)
		}
		if active > 0 {
			return errs.Conflict("cannot delete user with active loans")
		}
		if err := s.Loans.DeleteByUser(ctx, id); err != nil {
			return errs.Internal("delete user loans", err)
		}
		if err := s.Users.Delete(ctx, id); err != nil {
			if errors.Is(err, repo.ErrReferenced) {
				return errs.Conflict("cannot delete user with active loans")
			}
			return notFoundOr(err, msgUserNotFound, "delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.Sessions != nil {
		if err := s.Sessions.Revoke(ctx, id); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("revoke session failed")
		}
	}
	return nil
}
