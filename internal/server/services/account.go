// Package services contains server-side business logic. This file implements
// AccountService: registration, login, password change and account deletion,
// keeping the users table and the session table consistent with each other.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/deferscky/stringeditor/internal/common"
	"github.com/deferscky/stringeditor/internal/cryptox"
	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/deferscky/stringeditor/internal/server/metrics"
	"github.com/deferscky/stringeditor/internal/server/models"
	"github.com/deferscky/stringeditor/internal/server/repositories/repomanager"
	"github.com/deferscky/stringeditor/internal/server/sessions"
)

type AccountService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	sessions          *sessions.Table
	hasher            *cryptox.Hasher
	minPasswordLength int
	metrics           *metrics.Metrics
	logger            logging.Logger
	now               func() time.Time
}

func NewAccountService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	table *sessions.Table,
	hasher *cryptox.Hasher,
	minPasswordLength int,
	mx *metrics.Metrics,
	logger logging.Logger,
) *AccountService {
	return &AccountService{
		db:                db,
		repomanager:       m,
		sessions:          table,
		hasher:            hasher,
		minPasswordLength: minPasswordLength,
		metrics:           mx,
		logger:            logger.With("module", "account_service"),
		now:               time.Now,
	}
}

// Register creates a user. It does not log the user in.
func (s *AccountService) Register(ctx context.Context, login, password string) (*models.User, error) {
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: login and password are required", common.ErrorBadInput)
	}
	if err := s.checkPasswordLength(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "error hashing password", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := dbx.RetryOnceResult(ctx, s.db, func(ctx context.Context) (*models.User, error) {
		u := &models.User{Login: login, PasswordHash: hash, CreatedAt: s.now()}
		return s.repomanager.Users(s.db).Create(ctx, u)
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "error creating user", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues a session token. Unknown logins and
// wrong passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, login, password string) (string, error) {
	if login == "" || password == "" {
		return "", fmt.Errorf("%w: login and password are required", common.ErrorBadInput)
	}

	token, err := s.tryLogin(ctx, login, password)
	if errors.Is(err, common.ErrorStaleSession) {
		// the user was revoked mid-login; the second attempt sees the new hash
		token, err = s.tryLogin(ctx, login, password)
	}
	if err != nil {
		if errors.Is(err, common.ErrorStaleSession) || errors.Is(err, common.ErrorUnauthorized) {
			s.metrics.LoginFailed()
			return "", common.ErrorUnauthorized
		}
		return "", err
	}

	s.metrics.SessionIssued()
	return token, nil
}

func (s *AccountService) tryLogin(ctx context.Context, login, password string) (string, error) {
	// taken before the hash is read so a concurrent revocation is detected by Issue
	since := s.sessions.BeginLogin()
	defer s.sessions.EndLogin(since)

	user, err := s.userByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Burn(password)
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "error loading user", "error", err)
		return "", common.ErrorInternal
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		s.logger.Error(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return "", common.ErrorInternal
	}
	if !ok {
		return "", common.ErrorUnauthorized
	}

	token, err := s.sessions.Issue(user.ID, since)
	if err != nil {
		if errors.Is(err, common.ErrorStaleSession) {
			return "", err
		}
		s.logger.Error(ctx, "error issuing session", "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

// Authenticate maps a bearer token to its user id.
func (s *AccountService) Authenticate(token string) (int64, error) {
	if token == "" {
		return 0, common.ErrorUnauthorized
	}
	userID, err := s.sessions.Resolve(token)
	if err != nil {
		return 0, common.ErrorUnauthorized
	}
	return userID, nil
}

// ChangePassword replaces the password of userID and revokes all of its
// sessions, including the caller's. Nothing changes unless oldPassword is
// correct and the new hash is stored.
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old and new password are required", common.ErrorBadInput)
	}
	if err := s.checkPasswordLength(newPassword); err != nil {
		return err
	}

	user, err := s.verifiedUser(ctx, userID, oldPassword)
	if err != nil {
		return err
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error(ctx, "error hashing password", "error", err)
		return common.ErrorInternal
	}

	revoked, err := s.sessions.RevokeAllAfter(userID, func() error {
		return dbx.RetryOnce(ctx, s.db, func(ctx context.Context) error {
			return s.repomanager.Users(s.db).UpdatePasswordHash(ctx, userID, user.PasswordHash, newHash)
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.compareMissError(ctx, userID)
		}
		s.logger.Error(ctx, "error updating password", "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	s.metrics.SessionsRevoked(revoked)
	s.logger.Info(ctx, "password changed", "user_id", userID, "sessions_revoked", revoked)
	return nil
}

// DeleteAccount removes the user with all of its lines, audit records and
// sessions as one unit.
func (s *AccountService) DeleteAccount(ctx context.Context, userID int64, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorBadInput)
	}

	user, err := s.verifiedUser(ctx, userID, password)
	if err != nil {
		return err
	}

	revoked, err := s.sessions.RevokeAllAfter(userID, func() error {
		return dbx.RetryOnce(ctx, s.db, func(ctx context.Context) error {
			return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
				if _, err := s.repomanager.Contents(tx).DeleteAll(ctx, userID); err != nil {
					return fmt.Errorf("error deleting strings: %w", err)
				}
				if _, err := s.repomanager.Operations(tx).DeleteAll(ctx, userID); err != nil {
					return fmt.Errorf("error deleting operations: %w", err)
				}
				return s.repomanager.Users(tx).Delete(ctx, userID, user.PasswordHash)
			})
		})
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.compareMissError(ctx, userID)
		}
		s.logger.Error(ctx, "error deleting account", "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	s.metrics.SessionsRevoked(revoked)
	s.logger.Info(ctx, "account deleted", "user_id", userID, "sessions_revoked", revoked)
	return nil
}

// ListUsers returns all users, newest first, without password hashes.
func (s *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	list, err := dbx.RetryOnceResult(ctx, s.db, func(ctx context.Context) ([]models.User, error) {
		return s.repomanager.Users(s.db).List(ctx)
	})
	if err != nil {
		s.logger.Error(ctx, "error listing users", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// FindUser looks a user up by login.
func (s *AccountService) FindUser(ctx context.Context, login string) (*models.User, error) {
	user, err := s.userByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "error loading user", "error", err)
		return nil, common.ErrorInternal
	}
	user.PasswordHash = ""
	return user, nil
}

// --- helpers below ---

func (s *AccountService) checkPasswordLength(password string) error {
	if utf8.RuneCountInString(password) < s.minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorBadInput, s.minPasswordLength)
	}
	return nil
}

func (s *AccountService) userByLogin(ctx context.Context, login string) (*models.User, error) {
	return dbx.RetryOnceResult(ctx, s.db, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.db).GetUserByLogin(ctx, login)
	})
}

// verifiedUser loads userID and checks password against it. A vanished user
// is Unauthorized, a mismatch is WrongPassword.
func (s *AccountService) verifiedUser(ctx context.Context, userID int64, password string) (*models.User, error) {
	user, err := dbx.RetryOnceResult(ctx, s.db, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "error loading user", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		s.logger.Error(ctx, "stored password hash unreadable", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorWrongPassword
	}

	return user, nil
}

// compareMissError explains a password-guarded write that matched no row: a
// user that is gone is Unauthorized, one whose hash changed is WrongPassword.
func (s *AccountService) compareMissError(ctx context.Context, userID int64) error {
	_, err := dbx.RetryOnceResult(ctx, s.db, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	})
	switch {
	case err == nil:
		return common.ErrorWrongPassword
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorUnauthorized
	default:
		s.logger.Error(ctx, "error loading user", "user_id", userID, "error", err)
		return common.ErrorInternal
	}
}
