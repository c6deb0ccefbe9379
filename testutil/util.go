package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/storage/database"
)

// PrepareDB returns a migrated in-memory sqlite database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := &core.Config{Database: core.DatabaseConfig{Engine: database.EngineSQLite, Path: ":memory:"}}

	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateStudent registers a student, in groupName when not empty.
func CreateStudent(t *testing.T, repo attendance.Repository, name, groupName string) attendance.Student {
	t.Helper()
	ctx := context.Background()

	var groupID string
	if groupName != "" {
		grp, err := repo.GetGroupByName(ctx, groupName)
		if err != nil {
			if errors.Cause(err) != attendance.ErrGroupNotFound {
				t.Fatalf("CreateStudent(): %v", err)
			}
			if grp, err = repo.CreateGroup(ctx, groupName); err != nil {
				t.Fatalf("CreateStudent(): %v", err)
			}
		}
		groupID = grp.ID
	}

	std, err := repo.CreateStudent(ctx, name, groupID)
	if err != nil {
		t.Fatalf("CreateStudent(): %v", err)
	}
	return std
}

func CreateAttendance(
	t *testing.T,
	repo attendance.Repository,
	studentID, date string,
	status attendance.Status,
	notes ...string,
) attendance.Record {
	t.Helper()
	rec := attendance.Record{
		StudentID: studentID,
		Date:      attendance.ParseDate(date),
		Status:    status,
	}
	if len(notes) > 0 {
		rec.Notes = notes[0]
	}
	rec, err := repo.CreateAttendance(context.Background(), rec)
	if err != nil {
		t.Fatalf("CreateAttendance(): %v", err)
	}
	return rec
}
