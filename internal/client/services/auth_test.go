package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrivenko/marksync/internal/client/api"
	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/client/store"
	"github.com/dkrivenko/marksync/internal/common"
)

// loginFake implements api.Client; only Login and SetToken matter here.
type loginFake struct {
	salt     []byte
	loginErr error
	token    string
}

func (f *loginFake) Login(ctx context.Context, username, password string) (*api.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &api.LoginResult{Token: "tok-1", Role: "teacher", Salt: f.salt}, nil
}

func (f *loginFake) Health(ctx context.Context) error { return nil }
func (f *loginFake) SubmitSubmission(ctx context.Context, req *api.SubmissionRequest) (*api.SubmissionResult, error) {
	return nil, common.ErrUnavailable
}
func (f *loginFake) UploadAsset(ctx context.Context, filename string, data []byte) (string, error) {
	return "", common.ErrUnavailable
}
func (f *loginFake) FetchSchools(ctx context.Context) ([]models.School, error) { return nil, nil }
func (f *loginFake) FetchAssessments(ctx context.Context) ([]models.Assessment, error) {
	return nil, nil
}
func (f *loginFake) FetchGrading(ctx context.Context) ([]models.SyncedSubmission, error) {
	return nil, nil
}
func (f *loginFake) PushGrades(ctx context.Context, grades []api.GradePush) error { return nil }
func (f *loginFake) SetToken(token string)                                        { f.token = token }
func (f *loginFake) Close() error                                                 { return nil }

func setupAuth(t *testing.T, client api.Client) AuthService {
	t.Helper()
	db, _, err := store.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuthService(client, db, nil)
}

func TestOnlineLogin_CachesCredential(t *testing.T) {
	client := &loginFake{salt: []byte("per-user-salt")}
	auth := setupAuth(t, client)
	ctx := context.Background()

	session, err := auth.OnlineLogin(ctx, "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, "teacher", session.Role)
	assert.Equal(t, "tok-1", client.token, "token must be installed on the api client")

	cached, err := auth.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", cached.Username)
}

func TestOfflineLogin_AcceptsCachedPassword(t *testing.T) {
	client := &loginFake{salt: []byte("per-user-salt")}
	auth := setupAuth(t, client)
	ctx := context.Background()

	_, err := auth.OnlineLogin(ctx, "alice", []byte("pw"))
	require.NoError(t, err)

	// server goes away
	client.loginErr = common.ErrUnavailable

	session, err := auth.OfflineLogin(ctx, "alice", []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, "teacher", session.Role)
}

func TestOfflineLogin_WrongPassword(t *testing.T) {
	client := &loginFake{salt: []byte("per-user-salt")}
	auth := setupAuth(t, client)
	ctx := context.Background()

	_, err := auth.OnlineLogin(ctx, "alice", []byte("pw"))
	require.NoError(t, err)

	_, err = auth.OfflineLogin(ctx, "alice", []byte("not-the-password"))
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestOfflineLogin_UnknownUser(t *testing.T) {
	auth := setupAuth(t, &loginFake{salt: []byte("s")})

	_, err := auth.OfflineLogin(context.Background(), "nobody", []byte("pw"))
	require.ErrorIs(t, err, common.ErrLocalDataNotAvailable)
}

func TestOfflineLogin_DifferentUserThanCached(t *testing.T) {
	client := &loginFake{salt: []byte("per-user-salt")}
	auth := setupAuth(t, client)
	ctx := context.Background()

	_, err := auth.OnlineLogin(ctx, "alice", []byte("pw"))
	require.NoError(t, err)

	_, err = auth.OfflineLogin(ctx, "bob", []byte("pw"))
	require.ErrorIs(t, err, common.ErrLocalDataNotAvailable)
}

func TestLogout_WipesCache(t *testing.T) {
	client := &loginFake{salt: []byte("per-user-salt")}
	auth := setupAuth(t, client)
	ctx := context.Background()

	_, err := auth.OnlineLogin(ctx, "alice", []byte("pw"))
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx))
	assert.Empty(t, client.token)

	_, err = auth.OfflineLogin(ctx, "alice", []byte("pw"))
	require.ErrorIs(t, err, common.ErrLocalDataNotAvailable)
}
