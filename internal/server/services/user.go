// Package services contains server-side business logic: login, submission
// upsert, asset storage, and grading.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"time"

	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/cryptox"
	"github.com/dkrivenko/marksync/internal/server/auth"
	"github.com/dkrivenko/marksync/internal/server/config"
	"github.com/dkrivenko/marksync/internal/server/models"
	"github.com/dkrivenko/marksync/internal/server/repositories/users"
)

// LoginResult is what a successful login hands back: a bearer token, the
// user's role, and the salt the client needs to build its offline credential
// cache.
type LoginResult struct {
	Token string
	Role  string
	Salt  []byte
}

// UserService verifies credentials and mints JWTs.
type UserService struct {
	users                 users.Repository
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, cfg *config.Config) *UserService {
	return &UserService{
		users:                 users.NewPostgresRepository(db),
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Login verifies the password against the stored salt/verifier and, on
// success, returns a fresh token. Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, userName, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}

	key := cryptox.DeriveKey([]byte(password), user.Salt)
	candidate := cryptox.MakeVerifier(key)
	common.WipeByteArray(key)

	if subtle.ConstantTimeCompare(user.Verifier, candidate) == 0 {
		return nil, common.ErrUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}

	return &LoginResult{Token: token, Role: user.Role, Salt: user.Salt}, nil
}

// Register creates a user from a username and password, deriving the stored
// salt and verifier. Used by provisioning, not exposed over the public API.
func (s *UserService) Register(ctx context.Context, userName, password, role string) (*models.User, error) {
	salt := common.GenerateRandByteArray(32)
	key := cryptox.DeriveKey([]byte(password), salt)
	verifier := cryptox.MakeVerifier(key)
	common.WipeByteArray(key)

	user := &models.User{UserName: userName, Role: role, Salt: salt, Verifier: verifier}
	return s.users.Create(ctx, user)
}

// ParseToken validates a bearer token from a request.
func (s *UserService) ParseToken(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret)
}
