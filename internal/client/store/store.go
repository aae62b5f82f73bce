// Package store opens the client's durable SQLite database, applies schema
// migrations, and bundles the per-entity repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkrivenko/marksync/internal/client/migrations"
	"github.com/dkrivenko/marksync/internal/client/repositories/assets"
	"github.com/dkrivenko/marksync/internal/client/repositories/grades"
	"github.com/dkrivenko/marksync/internal/client/repositories/mirror"
	"github.com/dkrivenko/marksync/internal/client/repositories/reference"
	"github.com/dkrivenko/marksync/internal/client/repositories/session"
	"github.com/dkrivenko/marksync/internal/client/repositories/submissions"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories bundles the local store's per-entity repositories.
type Repositories struct {
	Submissions submissions.Repository
	Assets      assets.Repository
	Grades      grades.Repository
	Reference   reference.Repository
	Mirror      mirror.Repository
	Session     session.Repository
}

// RunMigrations applies all embedded migrations. Each version is additive,
// so upgrading never destroys previously persisted records.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite database at dsn,
// migrates it, and returns the handle plus bound repositories.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, *Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	// modernc sqlite allows a single writer; serializing through one
	// connection avoids SQLITE_BUSY under concurrent repo calls.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		return nil, nil, err
	}

	repos := &Repositories{
		Submissions: submissions.NewSQLiteRepository(db),
		Assets:      assets.NewSQLiteRepository(db),
		Grades:      grades.NewSQLiteRepository(db),
		Reference:   reference.NewSQLiteRepository(db),
		Mirror:      mirror.NewSQLiteRepository(db),
		Session:     session.NewSQLiteRepository(db),
	}
	return db, repos, nil
}
