// Package services contains the client's application services: login and the
// offline credential cache, the form-completion flow that creates offline
// submissions, and the grading flow that records pending mark edits.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dkrivenko/marksync/internal/client/api"
	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/client/repositories/session"
	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/cryptox"
	"github.com/dkrivenko/marksync/internal/dbx"
)

// AuthService authenticates the user online when possible and against the
// locally cached credential otherwise.
//
// Contract:
//   - OnlineLogin: authenticate against the server and refresh the cache.
//   - OfflineLogin: verify the password against the cached salt/verifier;
//     common.ErrLocalDataNotAvailable means "unknown on this device",
//     common.ErrUnauthorized means "wrong credential".
//   - Logout: destroy the session and the cached credential.
type AuthService interface {
	OnlineLogin(ctx context.Context, username string, password []byte) (*models.Session, error)
	OfflineLogin(ctx context.Context, username string, password []byte) (*models.Session, error)
	CurrentSession(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
}

type authService struct {
	client  api.Client
	db      *sql.DB
	session session.Repository
	clock   func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and
// local database. The *sql.DB is needed so the multi-key credential-cache
// update can run in a single transaction.
func NewAuthService(client api.Client, db *sql.DB, clock func() time.Time) AuthService {
	if clock == nil {
		clock = time.Now
	}
	return &authService{client: client, db: db, session: session.NewSQLiteRepository(db), clock: clock}
}

// OnlineLogin authenticates against the server, then replaces the cached
// session and credential verifier in a single transaction. The password
// itself is never stored — only an argon2id verifier derived with the
// server-issued salt.
func (a *authService) OnlineLogin(ctx context.Context, username string, password []byte) (*models.Session, error) {
	result, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	key := cryptox.DeriveKey(password, result.Salt)
	verifier := cryptox.MakeVerifier(key)
	common.WipeByteArray(key)

	now := a.clock().UTC()
	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := session.NewSQLiteRepository(tx)
		pairs := []struct {
			key   string
			value []byte
		}{
			{session.KeyUsername, []byte(username)},
			{session.KeySalt, result.Salt},
			{session.KeyVerifier, verifier},
			{session.KeyRole, []byte(result.Role)},
			{session.KeyToken, []byte(result.Token)},
			{session.KeyIssuedAt, []byte(strconv.FormatInt(now.Unix(), 10))},
		}
		for _, p := range pairs {
			if err := repo.Set(ctx, p.key, p.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("offline data saving error: %w", err)
	}

	a.client.SetToken(result.Token)
	return &models.Session{Username: username, Role: result.Role, Token: result.Token, IssuedAt: now}, nil
}

// OfflineLogin verifies the supplied password against the cached
// salt/verifier without any network I/O.
func (a *authService) OfflineLogin(ctx context.Context, username string, password []byte) (*models.Session, error) {
	savedUsername, err := a.session.Get(ctx, session.KeyUsername)
	if err != nil {
		return nil, err
	}
	if len(savedUsername) == 0 {
		return nil, common.ErrLocalDataNotAvailable
	}
	if string(savedUsername) != username {
		return nil, common.ErrLocalDataNotAvailable
	}

	salt, err := a.session.Get(ctx, session.KeySalt)
	if err != nil {
		return nil, err
	}
	verifier, err := a.session.Get(ctx, session.KeyVerifier)
	if err != nil {
		return nil, err
	}
	if len(salt) == 0 || len(verifier) == 0 {
		return nil, common.ErrLocalDataNotAvailable
	}

	key := cryptox.DeriveKey(password, salt)
	candidate := cryptox.MakeVerifier(key)
	common.WipeByteArray(key)

	if subtle.ConstantTimeCompare(verifier, candidate) == 0 {
		return nil, common.ErrUnauthorized
	}

	return a.loadSession(ctx, username)
}

// CurrentSession returns the cached session, or common.ErrLocalDataNotAvailable
// when no login has happened on this device.
func (a *authService) CurrentSession(ctx context.Context) (*models.Session, error) {
	username, err := a.session.Get(ctx, session.KeyUsername)
	if err != nil {
		return nil, err
	}
	if len(username) == 0 {
		return nil, common.ErrLocalDataNotAvailable
	}
	return a.loadSession(ctx, string(username))
}

func (a *authService) loadSession(ctx context.Context, username string) (*models.Session, error) {
	role, err := a.session.Get(ctx, session.KeyRole)
	if err != nil {
		return nil, err
	}
	token, err := a.session.Get(ctx, session.KeyToken)
	if err != nil {
		return nil, err
	}
	issuedAt, err := a.session.Get(ctx, session.KeyIssuedAt)
	if err != nil {
		return nil, err
	}

	s := &models.Session{Username: username, Role: string(role), Token: string(token)}
	if len(issuedAt) > 0 {
		if ts, err := strconv.ParseInt(string(issuedAt), 10, 64); err == nil {
			s.IssuedAt = time.Unix(ts, 0).UTC()
		}
	}
	if s.Token != "" {
		a.client.SetToken(s.Token)
	}
	return s, nil
}

// Logout wipes the cached session and credential.
func (a *authService) Logout(ctx context.Context) error {
	a.client.SetToken("")
	return a.session.Clear(ctx)
}
