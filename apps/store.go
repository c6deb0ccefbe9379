package apps

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/services/attendanceapi"
	"github.com/trezcool/mahudhurio/storage/database"
	inmemdb "github.com/trezcool/mahudhurio/storage/database/inmem"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
)

const (
	SourceDatabase = "database"
	SourceAPI      = "api"
	SourceMemory   = "memory"
)

// Store is where attendances are read from. Repo is nil when the source is read-only.
type Store struct {
	Source attendance.Source
	Repo   attendance.Repository
	DB     *sqlx.DB // nil unless the source is a database
}

// Close releases the database, if any.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// NewStore opens the attendance source selected by conf.Attendance.Source.
func NewStore(conf *core.Config, logger core.Logger, dbLogger core.Logger) (*Store, error) {
	switch conf.Attendance.Source {
	case SourceDatabase, "":
		db, err := database.SetUp(conf)
		if err != nil {
			dbLogger.Error(fmt.Sprintf("setting up database: %v", err), err)
			return nil, errors.Wrap(err, "setting up database")
		}
		repo := sqlxrepos.NewAttendanceRepository(db)
		return &Store{Source: repo, Repo: repo, DB: db}, nil
	case SourceAPI:
		client, err := attendanceapi.NewClient(conf, logger)
		if err != nil {
			return nil, errors.Wrap(err, "creating attendance api client")
		}
		return &Store{Source: client}, nil
	case SourceMemory:
		repo := inmemdb.NewAttendanceRepository(inmemdb.Open())
		return &Store{Source: repo, Repo: repo}, nil
	default:
		return nil, NewArgumentError(fmt.Sprintf("unknown attendance source %q", conf.Attendance.Source))
	}
}

// NewService returns the attendance service reading from s.
func (s *Store) NewService(conf *core.Config) *attendance.Service {
	return attendance.NewService(conf, s.Source, s.Repo)
}
