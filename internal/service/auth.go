package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmarulanda/muninet/internal/hash"
	"github.com/dmarulanda/muninet/internal/logging"
	"github.com/dmarulanda/muninet/internal/models"
	"github.com/dmarulanda/muninet/internal/repository"
	"github.com/dmarulanda/muninet/internal/tokens"
)

// DefaultRoleName is assigned when registration does not name a role.
const DefaultRoleName = "user"

var (
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrInvalidCredentials covers both unknown identifier and wrong
	// password; callers must not be able to tell which.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthService struct {
	Users  *repository.UserRepository
	Roles  *repository.RoleRepository
	Hasher *hash.Hasher
	Codec  *tokens.Codec
}

type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	RoleID         *uint
	MunicipalityID *uint
}

// AuthResult is what register and login hand back: the sanitized user
// plus both tokens and their expiries.
type AuthResult struct {
	User         models.PublicUser
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if taken, err := s.Users.EmailExists(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("email lookup: %w", err)
	} else if taken {
		return nil, ErrDuplicateEmail
	}
	if taken, err := s.Users.UsernameExists(ctx, in.Username); err != nil {
		return nil, fmt.Errorf("username lookup: %w", err)
	} else if taken {
		return nil, ErrDuplicateUsername
	}

	digest, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	roleID := in.RoleID
	if roleID == nil {
		role, err := s.Roles.FindByName(ctx, DefaultRoleName)
		if err != nil {
			return nil, fmt.Errorf("default role lookup: %w", err)
		}
		if role == nil {
			return nil, fmt.Errorf("default role %q not seeded", DefaultRoleName)
		}
		roleID = &role.ID
	}

	user := models.User{
		Username:       in.Username,
		Email:          in.Email,
		PasswordHash:   digest,
		RoleID:         *roleID,
		MunicipalityID: in.MunicipalityID,
		Active:         true,
	}
	if err := s.Users.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Create does not return the joined role, so re-read the full record.
	created, err := s.Users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	if created == nil {
		return nil, ErrUserNotFound
	}

	res, err := s.issuePair(*created)
	if err != nil {
		return nil, err
	}
	l.Info("user_registered", "user_id", created.ID, "role", created.Role.Name)
	return res, nil
}

// Login resolves the identifier as an email first, then as a username,
// so one input field serves both login styles.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Users.FindByEmail(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("email lookup: %w", err)
	}
	if user == nil {
		user, err = s.Users.FindByUsername(ctx, identifier)
		if err != nil {
			return nil, fmt.Errorf("username lookup: %w", err)
		}
	}
	if user == nil {
		l.Warn("login_failed", "reason", "unknown identifier")
		return nil, ErrInvalidCredentials
	}

	// Inactive accounts are rejected before the password check.
	if !user.Active {
		l.Warn("login_failed", "reason", "inactive", "user_id", user.ID)
		return nil, ErrAccountInactive
	}

	if !s.Hasher.Verify(password, user.PasswordHash) {
		l.Warn("login_failed", "reason", "bad password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if err := s.Users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}

	res, err := s.issuePair(*user)
	if err != nil {
		return nil, err
	}
	l.Info("login_success", "user_id", user.ID)
	return res, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// user is re-read from the directory so role and active-state are
// always current; embedded claims are never trusted. The refresh token
// itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.Codec.VerifyRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return "", time.Time{}, err
	}

	user, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		return "", time.Time{}, ErrUserNotFound
	}
	if !user.Active {
		return "", time.Time{}, ErrAccountInactive
	}

	return s.Codec.IssueAccess(*user)
}

// Me returns the sanitized profile for an authenticated user id.
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.PublicUser, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	pub := user.Sanitize()
	return &pub, nil
}

func (s *AuthService) issuePair(user models.User) (*AuthResult, error) {
	access, accessExp, err := s.Codec.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := s.Codec.IssueRefresh(user)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &AuthResult{
		User:         user.Sanitize(),
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}
