package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/notekeeper/notekeeper/internal/common"
	"github.com/notekeeper/notekeeper/internal/dbx"
	"github.com/notekeeper/notekeeper/internal/logging"
	"github.com/notekeeper/notekeeper/internal/server/auth"
	"github.com/notekeeper/notekeeper/internal/server/models"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repomanager"
	"github.com/notekeeper/notekeeper/internal/server/repositories/users"
)

// Field error messages shown next to signup and password inputs.
const (
	MsgEmailTaken       = "An account with this email already exists"
	MsgUsernameTaken    = "An account with this username already exists"
	MsgIncorrectCurrent = "Incorrect password."
	MsgPasswordTooLong  = "Password is too long"
)

// PasswordHasher is implemented by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) bool
	DummyVerify(ctx context.Context, plaintext string)
}

type LoginInput struct {
	Username string
	Password string
}

type SignupInput struct {
	Username string
	Email    string
	Name     string
	Password string
}

// OnboardingInput completes a signup whose email came from a verify token.
type OnboardingInput struct {
	Username string
	Name     string
	Password string
}

// AuthService handles credential checks and account lifecycle:
// login, signup (direct or through onboarding), password change and
// account deletion.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	verify      *auth.VerifyTokens
	sessions    *SessionManager
	log         logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher,
	verify *auth.VerifyTokens, sessions *SessionManager, log logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		verify:      verify,
		sessions:    sessions,
		log:         log.With("module", "auth"),
	}
}

// Login returns the user whose credentials match. Unknown usernames, users
// without a password and wrong passwords all yield common.ErrCredentialInvalid.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	username := models.NormalizeUsername(in.Username)
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.DummyVerify(ctx, in.Password)
			s.log.Info(ctx, "login failed", "username", username)
			return nil, common.ErrCredentialInvalid
		}
		return nil, err
	}

	digest, err := repo.GetPasswordHash(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.DummyVerify(ctx, in.Password)
			s.log.Info(ctx, "login failed", "username", username)
			return nil, common.ErrCredentialInvalid
		}
		return nil, err
	}

	if !s.hasher.Verify(ctx, in.Password, digest) {
		s.log.Info(ctx, "login failed", "username", username)
		return nil, common.ErrCredentialInvalid
	}

	return user, nil
}

// Signup creates a user with a hashed password and the default role in one
// transaction. Taken usernames or emails come back as a *common.ValidationError.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	return s.signup(ctx, in, common.RoleUser)
}

// CreateAdmin signs up a user holding both the default and the admin role.
// Nothing is stored unless both grants succeed.
func (s *AuthService) CreateAdmin(ctx context.Context, in SignupInput) (*models.User, error) {
	user, err := s.signup(ctx, in, common.RoleUser, common.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "admin created", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) signup(ctx context.Context, in SignupInput, roles ...string) (*models.User, error) {
	user := &models.User{
		Username: models.NormalizeUsername(in.Username),
		Email:    models.NormalizeEmail(in.Email),
		Name:     in.Name,
	}

	existing, err := s.repomanager.Users(s.db).FindByUsernameOrEmail(ctx, user.Username, user.Email)
	if err != nil {
		return nil, err
	}
	verr := common.NewValidationError()
	for _, u := range existing {
		if u.Email == user.Email {
			verr.Add("email", MsgEmailTaken)
		}
		if u.Username == user.Username {
			verr.Add("username", MsgUsernameTaken)
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	digest, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			verr.Add("password", MsgPasswordTooLong)
			return nil, verr
		}
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if _, err := repo.Create(ctx, user); err != nil {
			return err
		}
		if err := repo.SetPassword(ctx, user.ID, digest); err != nil {
			return err
		}
		for _, role := range roles {
			if err := repo.AssignRole(ctx, user.ID, role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// lost a race with a concurrent signup
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			verr.Add("email", MsgEmailTaken)
			return nil, verr
		case errors.Is(err, users.ErrUsernameTaken):
			verr.Add("username", MsgUsernameTaken)
			return nil, verr
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// StartSignup checks that email is free and returns a verify token for it.
func (s *AuthService) StartSignup(ctx context.Context, email string) (string, error) {
	email = models.NormalizeEmail(email)

	_, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	switch {
	case err == nil:
		verr := common.NewValidationError()
		verr.Add("email", MsgEmailTaken)
		return "", verr
	case !errors.Is(err, common.ErrNotFound):
		return "", err
	}

	return s.verify.Issue(email)
}

// Onboard finishes a signup started with StartSignup.
func (s *AuthService) Onboard(ctx context.Context, verifyToken string, in OnboardingInput) (*models.User, error) {
	email, err := s.verify.Email(verifyToken)
	if err != nil {
		return nil, err
	}
	return s.Signup(ctx, SignupInput{
		Username: in.Username,
		Email:    email,
		Name:     in.Name,
		Password: in.Password,
	})
}

// VerifiedEmail returns the address a verify token was issued for.
func (s *AuthService) VerifiedEmail(verifyToken string) (string, error) {
	return s.verify.Email(verifyToken)
}

// VerifyTTL is how long a StartSignup token stays usable.
func (s *AuthService) VerifyTTL() time.Duration { return s.verify.TTL() }

// ChangePassword replaces the password after checking the current one and
// signs out every other session of the user.
func (s *AuthService) ChangePassword(ctx context.Context, userID, keepSessionID, current, next string) error {
	repo := s.repomanager.Users(s.db)

	digest, err := repo.GetPasswordHash(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	if err != nil || !s.hasher.Verify(ctx, current, digest) {
		verr := common.NewValidationError()
		verr.Add("currentPassword", MsgIncorrectCurrent)
		return verr
	}

	newDigest, err := s.hasher.Hash(ctx, next)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			verr := common.NewValidationError()
			verr.Add("newPassword", MsgPasswordTooLong)
			return verr
		}
		return err
	}
	if err := repo.SetPassword(ctx, userID, newDigest); err != nil {
		return err
	}

	revoked, err := s.sessions.RevokeAllExcept(ctx, userID, keepSessionID)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "password changed", "user_id", userID, "revoked_sessions", revoked)
	return nil
}

// DeleteAccount removes the user together with password, sessions, roles
// and notes.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info(ctx, "account deleted", "user_id", userID)
	return nil
}
