package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dkrivenko/marksync/internal/common"
	"github.com/dkrivenko/marksync/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal error: %v", err)
	}
	return data
}

const upsertQuery = `(?s)^\s*INSERT\s+INTO\s+submissions\s*\(correlation_id,\s*user_id,\s*assessment_id,\s*student_name,\s*answers,\s*complete\).*ON\s+CONFLICT\s*\(correlation_id\).*RETURNING\s+id,\s*created_at,\s*updated_at;\s*$`

func TestUpsertByCorrelationID_Insert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	answers := map[string]models.Answer{"q1": {Value: "Paris"}}
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(501), now, now)
	mock.ExpectQuery(upsertQuery).
		WithArgs("c-1", "u-1", int64(7), "Amina K", mustJSON(t, answers), false).
		WillReturnRows(rows)

	sub := &models.Submission{
		CorrelationID: "c-1", UserID: "u-1", AssessmentID: 7,
		StudentName: "Amina K", Answers: answers,
	}
	got, err := repo.UpsertByCorrelationID(context.Background(), sub)
	if err != nil {
		t.Fatalf("UpsertByCorrelationID error: %v", err)
	}
	if got.ID != 501 {
		t.Fatalf("unexpected id: %d", got.ID)
	}
}

func TestUpsertByCorrelationID_CrossUserConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	answers := map[string]models.Answer{}
	mock.ExpectQuery(upsertQuery).
		WithArgs("c-1", "intruder", int64(7), "X", mustJSON(t, answers), false).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpsertByCorrelationID(context.Background(), &models.Submission{
		CorrelationID: "c-1", UserID: "intruder", AssessmentID: 7, StudentName: "X", Answers: answers,
	})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,\s*correlation_id,\s*user_id,\s*assessment_id,\s*student_name,\s*answers,\s*complete,\s*created_at,\s*updated_at\s+FROM\s+submissions\s+WHERE\s+id\s*=\s*\$1\s*$`

	now := time.Now()
	answers := mustJSON(t, map[string]models.Answer{"q1": {Value: "Paris"}})
	rows := sqlmock.NewRows([]string{"id", "correlation_id", "user_id", "assessment_id", "student_name", "answers", "complete", "created_at", "updated_at"}).
		AddRow(int64(501), "c-1", "u-1", int64(7), "Amina K", answers, false, now, now)
	mock.ExpectQuery(q).WithArgs(int64(501)).WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), 501)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.StudentName != "Amina K" || got.Answers["q1"].Value != "Paris" {
		t.Fatalf("unexpected submission: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+id,.*FROM\s+submissions\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestList_IncludesIncompleteOrderedByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,.*FROM\s+submissions\s+ORDER\s+BY\s+id\s*$`

	now := time.Now()
	empty := mustJSON(t, map[string]models.Answer{})
	rows := sqlmock.NewRows([]string{"id", "correlation_id", "user_id", "assessment_id", "student_name", "answers", "complete", "created_at", "updated_at"}).
		AddRow(int64(1), "c-1", "u-1", int64(7), "A", empty, true, now, now).
		AddRow(int64(2), "c-2", "u-1", int64(7), "B", empty, false, now, now)
	mock.ExpectQuery(q).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[1].Complete {
		t.Fatalf("incomplete submissions must be part of the feed")
	}
}

func TestUpdateAnswers_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	marks := 5.0
	answers := map[string]models.Answer{"q1": {Value: "Paris", Marks: &marks}}
	q := `(?s)^UPDATE\s+submissions\s+SET\s+answers\s*=\s*\$1,\s*complete\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$3\s*$`

	mock.ExpectExec(q).
		WithArgs(mustJSON(t, answers), true, int64(501)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateAnswers(context.Background(), 501, answers, true); err != nil {
		t.Fatalf("UpdateAnswers error: %v", err)
	}
}

func TestUpdateAnswers_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	answers := map[string]models.Answer{}
	mock.ExpectExec(`(?s)^UPDATE\s+submissions\s+SET\s+answers`).
		WithArgs(mustJSON(t, answers), false, int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAnswers(context.Background(), 999, answers, false)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestUpdateAnswers_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	answers := map[string]models.Answer{}
	mock.ExpectExec(`(?s)^UPDATE\s+submissions\s+SET\s+answers`).
		WithArgs(mustJSON(t, answers), false, int64(1)).
		WillReturnError(errors.New("db err"))

	err := repo.UpdateAnswers(context.Background(), 1, answers, false)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
