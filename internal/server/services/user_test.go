package services

import (
	"context"
	"testing"
	"time"

	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/cryptox"
	"github.com/dkrivenko/marksync/internal/server/models"
)

type fakeUsersRepo struct {
	created   *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = u
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func newUserServiceWithRepo(repo *fakeUsersRepo) *UserService {
	return &UserService{
		users:                 repo,
		jwtSecret:             []byte("k"),
		tokenValidityDuration: time.Hour,
	}
}

func storedUser(password string) *models.User {
	salt := []byte("per-user-salt-32-bytes-long.....")
	key := cryptox.DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(key)
	return &models.User{
		ID:       "u-1",
		UserName: "alice",
		Role:     "teacher",
		Salt:     salt,
		Verifier: cryptox.MakeVerifier(key),
	}
}

func TestLogin_Success(t *testing.T) {
	repo := &fakeUsersRepo{getOut: storedUser("pw")}
	s := newUserServiceWithRepo(repo)

	result, err := s.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected a token")
	}
	if result.Role != "teacher" {
		t.Fatalf("unexpected role: %q", result.Role)
	}
	if string(result.Salt) != string(repo.getOut.Salt) {
		t.Fatalf("salt must be returned for the offline credential cache")
	}

	claims, err := s.ParseToken(result.Token)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != "teacher" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := &fakeUsersRepo{getOut: storedUser("pw")}
	s := newUserServiceWithRepo(repo)

	_, err := s.Login(context.Background(), "alice", "not-the-password")
	if err != common.ErrUnauthorized {
		t.Fatalf("want common.ErrUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := &fakeUsersRepo{getErr: common.ErrNotFound}
	s := newUserServiceWithRepo(repo)

	_, err := s.Login(context.Background(), "ghost", "pw")
	if err != common.ErrUnauthorized {
		t.Fatalf("unknown user must be indistinguishable from a wrong password, got %v", err)
	}
}

func TestLogin_RepoError(t *testing.T) {
	repo := &fakeUsersRepo{getErr: common.ErrInternal}
	s := newUserServiceWithRepo(repo)

	_, err := s.Login(context.Background(), "alice", "pw")
	if err != common.ErrInternal {
		t.Fatalf("want common.ErrInternal, got %v", err)
	}
}

func TestRegister_DerivesVerifier(t *testing.T) {
	repo := &fakeUsersRepo{}
	s := newUserServiceWithRepo(repo)

	user, err := s.Register(context.Background(), "bob", "pw", "teacher")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if len(user.Salt) != 32 {
		t.Fatalf("unexpected salt length: %d", len(user.Salt))
	}

	key := cryptox.DeriveKey([]byte("pw"), user.Salt)
	defer common.WipeByteArray(key)
	if string(cryptox.MakeVerifier(key)) != string(user.Verifier) {
		t.Fatalf("stored verifier does not match the password")
	}
}
