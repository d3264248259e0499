package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/lgu-records/recordkeeper/internal/access"
	"github.com/lgu-records/recordkeeper/internal/store"
	"github.com/lgu-records/recordkeeper/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context) []types.User
	Count() int
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// DefaultAccount is created when the user table is empty.
type DefaultAccount struct {
	Username string
	Password string
	Role     string
}

// DefaultAccounts are seeded on first start.
var DefaultAccounts = []DefaultAccount{
	{Username: "admin", Password: "admin123", Role: types.RoleAdmin},
	{Username: "user", Password: "user123", Role: types.RoleUser},
}

var legacyDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	logger *logrus.Logger
	cost   int
}

func NewUserService(repo UserRepository, logger *logrus.Logger) *UserService {
	return &UserService{repo: repo, logger: logger, cost: bcrypt.DefaultCost}
}

// EnsureDefaults seeds DefaultAccounts when no user exists and reports
// whether it did.
func (s *UserService) EnsureDefaults(ctx context.Context) (bool, error) {
	if s.repo.Count() > 0 {
		return false, nil
	}
	for _, acct := range DefaultAccounts {
		hash, err := s.hash(acct.Password)
		if err != nil {
			return false, err
		}
		if _, err := s.repo.Create(ctx, types.User{
			Username:     acct.Username,
			Role:         acct.Role,
			PasswordHash: hash,
		}); err != nil && !errors.Is(err, store.ErrConflict) {
			return false, err
		}
	}
	s.logger.Warn("default users created; change their passwords after first login")
	return true, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Authenticate verifies username and password. A legacy SHA-256 digest is
// replaced by a bcrypt one on success.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.User{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if legacyDigest.MatchString(user.PasswordHash) {
		if !matchLegacy(user.PasswordHash, password) {
			return types.User{}, ErrInvalidCredentials
		}
		if upgraded, err := s.setHash(ctx, user, password); err != nil {
			s.logger.WithError(err).WithField("user", username).Warn("upgrade legacy password digest")
		} else {
			user = upgraded
		}
		return user, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword changes the actor's own password after checking the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, actor types.User, current, next string) error {
	if err := access.Check(actor.Role, access.OpChangePassword); err != nil {
		return err
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	user, err := s.Authenticate(ctx, actor.Username, current)
	if err != nil {
		return err
	}
	if _, err := s.setHash(ctx, user, next); err != nil {
		return err
	}
	s.logger.WithField("user", actor.Username).Info("password changed")
	return nil
}

// SetPassword lets an admin replace any user's password.
func (s *UserService) SetPassword(ctx context.Context, actor types.User, username, password string) error {
	if err := access.Check(actor.Role, access.OpManageUsers); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if _, err := s.setHash(ctx, user, password); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"user": user.Username, "by": actor.Username}).Info("password reset")
	return nil
}

// AddUser creates an account. A duplicate username yields store.ErrConflict.
func (s *UserService) AddUser(ctx context.Context, actor types.User, username, password, role string) (types.User, error) {
	if err := access.Check(actor.Role, access.OpManageUsers); err != nil {
		return types.User{}, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, validationError("username required")
	}
	if role == "" {
		role = types.RoleUser
	}
	if role != types.RoleAdmin && role != types.RoleUser {
		return types.User{}, validationError("role must be admin or user")
	}
	if err := validatePassword(password); err != nil {
		return types.User{}, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return types.User{}, err
	}
	user, err := s.repo.Create(ctx, types.User{Username: username, Role: role, PasswordHash: hash})
	if err != nil {
		return types.User{}, err
	}
	s.logger.WithFields(logrus.Fields{"user": username, "role": role, "by": actor.Username}).Info("user added")
	return user, nil
}

// List returns every account; admins only.
func (s *UserService) List(ctx context.Context, actor types.User) ([]types.User, error) {
	if err := access.Check(actor.Role, access.OpManageUsers); err != nil {
		return nil, err
	}
	return s.repo.List(ctx), nil
}

func (s *UserService) setHash(ctx context.Context, user types.User, password string) (types.User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return types.User{}, err
	}
	user.PasswordHash = hash
	return s.repo.Update(ctx, user)
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func matchLegacy(digest, password string) bool {
	sum := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare([]byte(digest), []byte(hex.EncodeToString(sum[:]))) == 1
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return validationError("password required")
	}
	if len(password) > 72 {
		return validationError("password longer than 72 bytes")
	}
	return nil
}
