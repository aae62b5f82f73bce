package mirror_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/client/store"
	"github.com/dkrivenko/marksync/internal/common"
)

func setup(t *testing.T) *store.Repositories {
	t.Helper()
	db, repos, err := store.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repos
}

func marks(v float64) *float64 { return &v }

func TestMirror_ReplaceIsAtomicSwap(t *testing.T) {
	repos := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repos.Mirror.Replace(ctx, []models.SyncedSubmission{
		{ServerID: 1, AssessmentID: 7, StudentName: "A", Answers: map[string]models.Answer{}, FetchedAt: now},
		{ServerID: 2, AssessmentID: 7, StudentName: "B", Answers: map[string]models.Answer{}, FetchedAt: now},
	}))

	require.NoError(t, repos.Mirror.Replace(ctx, []models.SyncedSubmission{
		{ServerID: 3, AssessmentID: 8, StudentName: "C", Answers: map[string]models.Answer{}, FetchedAt: now},
	}))

	all, err := repos.Mirror.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(3), all[0].ServerID)
}

func TestMirror_PutProjectsLocalEdit(t *testing.T) {
	repos := setup(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repos.Mirror.Replace(ctx, []models.SyncedSubmission{
		{ServerID: 501, AssessmentID: 7, StudentName: "A",
			Answers: map[string]models.Answer{"q1": {Value: "Paris"}}, FetchedAt: now},
	}))

	require.NoError(t, repos.Mirror.Put(ctx, &models.SyncedSubmission{
		ServerID: 501, AssessmentID: 7, StudentName: "A",
		Answers:  map[string]models.Answer{"q1": {Value: "Paris", Marks: marks(5)}},
		Complete: true, FetchedAt: now,
	}))

	got, err := repos.Mirror.Get(ctx, 501)
	require.NoError(t, err)
	require.NotNil(t, got.Answers["q1"].Marks)
	assert.Equal(t, 5.0, *got.Answers["q1"].Marks)
	assert.True(t, got.Complete)
}

func TestMirror_GetNotFound(t *testing.T) {
	repos := setup(t)

	_, err := repos.Mirror.Get(context.Background(), 999)
	require.ErrorIs(t, err, common.ErrNotFound)
}
