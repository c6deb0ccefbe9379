package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/mahudhurio/apps"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	sqlxrepos "github.com/trezcool/mahudhurio/storage/database/sqlx"
	"github.com/trezcool/mahudhurio/testutil"
)

var repo attendance.Repository

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	repo = sqlxrepos.NewAttendanceRepository(db)

	conf := core.NewTestConfig()
	conf.Attendance.WindowDays = 30
	conf.Attendance.DisplayDateLayout = attendance.ISODate
	conf.ReportRecipients = nil

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)

	// start CLI
	out := new(bytes.Buffer)
	return &commandLine{
		conf:     conf,
		db:       db,
		svc:      attendance.NewService(conf, repo, repo),
		mailSvc:  emailsvc.NewConsoleServiceMock(conf),
		validate: validate,
		out:      out,
	}, out
}

// seed records three attendances inside the window ending on 2024-01-03, and freezes the clock there.
func seed(t *testing.T) (ana, bruno attendance.Student) {
	ana = testutil.CreateStudent(t, repo, "Ana Souza", "5A")
	bruno = testutil.CreateStudent(t, repo, "Bruno Lima", "")
	testutil.CreateAttendance(t, repo, ana.ID, "2024-01-01", attendance.StatusPresent)
	testutil.CreateAttendance(t, repo, bruno.ID, "2024-01-03", attendance.StatusAbsent, "sick")
	testutil.CreateAttendance(t, repo, ana.ID, "2024-01-02", attendance.StatusAbsent)

	origNow := attendance.NowFunc
	attendance.NowFunc = func() time.Time { return time.Date(2024, time.January, 3, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { attendance.NowFunc = origNow })
	return ana, bruno
}

type countingSource struct {
	attendance.Source
	calls int
}

func (s *countingSource) ListAttendances(ctx context.Context) ([]attendance.Record, error) {
	s.calls++
	return s.Source.ListAttendances(ctx)
}

type failingMailer struct{ err error }

func (m failingMailer) SendMessages(...*core.EmailMessage) {}
func (m failingMailer) Wait() error { return m.err }

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
	extra      interface{}
}

func runCLITests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			if tt.wantOut != "" {
				assert.Equal(t, tt.wantOut, out.String())
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"roster", "-lol"}, wantErr: errHelp},
		{name: "unexpected argument", args: []string{"roster", "ana"}, wantErr: errHelp},
	}
	runCLITests(t, cli, out, tests)
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	origRun := gooseRunFunc
	defer func() { gooseRunFunc = origRun }()
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		if dir != "migrations" {
			return fmt.Errorf("unexpected migrations dir %q", dir)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "notes", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	runCLITests(t, cli, out, tests)

	t.Run("read-only source", func(t *testing.T) {
		roCLI := *cli
		roCLI.db = nil
		err := roCLI.run([]string{"admin", "migrate", "up"})
		var argErr *apps.ArgumentError
		assert.ErrorAs(t, err, &argErr)
	})
}

func Test_commandLine_addStudent(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"addstudent"}, wantErr: errHelp},
		{name: "group only", args: []string{"addstudent", "-group", "5A"}, wantErr: errHelp},
	}
	runCLITests(t, cli, out, tests)

	t.Run("blank name", func(t *testing.T) {
		err := cli.run([]string{"admin", "addstudent", "-name", "  "})
		assert.IsType(t, validator.ValidationErrors{}, err)
	})

	t.Run("with group", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "addstudent", "-name", " Ana Souza ", "-group", "5A"}))
		assert.True(t, strings.HasSuffix(out.String(), "\tAna Souza (5A)\n"), out.String())

		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "addstudent", "-name", "Bruno Lima", "-group", "5a"}))
		assert.True(t, strings.HasSuffix(out.String(), "\tBruno Lima (5A)\n"), out.String())
	})

	t.Run("without group", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "addstudent", "-name", "Carla"}))
		assert.True(t, strings.HasSuffix(out.String(), "\tCarla\n"), out.String())
	})
}

func Test_commandLine_roster(t *testing.T) {
	cli, out := setup(t)
	ana, bruno := seed(t)

	tests := []cliTest{
		{name: "everyone", args: []string{"roster"}, wantOut: bruno.ID + "\tBruno Lima\n" + ana.ID + "\tAna Souza (5A)\n"},
		{name: "search", args: []string{"roster", "-search", "SOUZA"}, wantOut: ana.ID + "\tAna Souza (5A)\n"},
		{name: "no match", args: []string{"roster", "-search", "zz"}, wantOut: "no students found\n"},
	}
	runCLITests(t, cli, out, tests)
}

func Test_commandLine_summary(t *testing.T) {
	cli, out := setup(t)
	ana, _ := seed(t)

	origWidth := termWidthFunc
	defer func() { termWidthFunc = origWidth }()
	termWidthFunc = func() int { return 40 }

	chart := "2024-01-01 |" + strings.Repeat("#", 24) + " 1/0\n" +
		"2024-01-02 |" + strings.Repeat("x", 24) + " 0/1\n" +
		"2024-01-03 |" + strings.Repeat("x", 24) + " 0/1\n" +
		"# present  x absent\n"

	tests := []cliTest{
		{
			name: "defaults", args: []string{"summary"},
			wantOut: "Attendance, 2023-12-04 - 2024-01-03\n  present: 1\n  absent: 2\n  presence rate: 33%\n  trend: -1\n\n" + chart,
		},
		{
			name: "student", args: []string{"summary", "-student", ana.ID},
			wantOut: "Attendance of Ana Souza (5A), 2023-12-04 - 2024-01-03\n  present: 1\n  absent: 1\n  presence rate: 50%\n  trend: -1\n\n" +
				"2024-01-01 |" + strings.Repeat("#", 24) + " 1/0\n" +
				"2024-01-02 |" + strings.Repeat("x", 24) + " 0/1\n" +
				"# present  x absent\n",
		},
		{
			name: "empty window", args: []string{"summary", "-days", "5", "-date", "2023-06-01"},
			wantOut: "Attendance, 2023-05-27 - 2023-06-01\n  present: 0\n  absent: 0\n  presence rate: 0%\n  trend: +0\n\nno records in this period\n",
		},
		{name: "non-int days", args: []string{"summary", "-days", "lol"}, wantErr: errHelp},
		{name: "negative days", args: []string{"summary", "-days=-1"}, wantErrStr: "window_days: must not be negative"},
		{name: "invalid date", args: []string{"summary", "-date", "2024-02-30"}, wantErrStr: "reference_date: must be a valid date (YYYY-MM-DD)"},
	}
	runCLITests(t, cli, out, tests)
}

func Test_commandLine_export(t *testing.T) {
	cli, out := setup(t)
	seed(t)
	path := filepath.Join(t.TempDir(), "summary.xlsx")

	tests := []cliTest{
		{name: "no output", args: []string{"export"}, wantErr: errHelp},
		{name: "export", args: []string{"export", "-o", path}, wantOut: "summary written to " + path + "\n"},
	}
	runCLITests(t, cli, out, tests)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Summary", "Days", "Absences", "Records"}, f.GetSheetList())
	rows, err := f.GetRows("Records")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	rows, err = f.GetRows("Days")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func Test_commandLine_report(t *testing.T) {
	cli, out := setup(t)
	ana, _ := seed(t)

	tests := []cliTest{
		{name: "no recipients", args: []string{"report"}, wantErrStr: "no recipients: use -to or configure the report recipients"},
		{name: "invalid recipient", args: []string{"report", "-to", "lol"}, wantErrStr: `invalid recipient "lol": mail: missing '@' or angle-addr`},
		{name: "send", args: []string{"report", "-to", "head@school.test,teacher@school.test"}, wantOut: "summary sent to 2 recipient(s)\n"},
		{name: "send with attachment", args: []string{"report", "-to", "head@school.test", "-attach"}, wantOut: "summary sent to 1 recipient(s)\n"},
	}

	sent := len(emailsvc.SentMessages)
	runCLITests(t, cli, out, tests)
	require.Len(t, emailsvc.SentMessages, sent+2)

	msg := emailsvc.SentMessages[sent]
	assert.Equal(t, "Attendance summary 2023-12-04 - 2024-01-03", msg.Subject)
	assert.Len(t, msg.To, 2)
	assert.Contains(t, msg.TextContent, "Presence rate: 33%")
	assert.False(t, msg.HasAttachments())

	msg = emailsvc.SentMessages[sent+1]
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "attendance-2024-01-03.xlsx", msg.Attachments[0].Filename)
	assert.Equal(t, xlsxContentType, msg.Attachments[0].ContentType)

	t.Run("configured recipients", func(t *testing.T) {
		cli.conf.ReportRecipients = []string{"head@school.test"}
		defer func() { cli.conf.ReportRecipients = nil }()

		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "report"}))
		assert.Equal(t, "summary sent to 1 recipient(s)\n", out.String())
	})

	t.Run("single snapshot", func(t *testing.T) {
		source := &countingSource{Source: repo}
		scCLI := *cli
		scCLI.svc = attendance.NewService(cli.conf, source, repo)

		out.Reset()
		require.NoError(t, scCLI.run([]string{"admin", "report", "-to", "head@school.test", "-attach", "-student", ana.ID}))
		assert.Equal(t, 1, source.calls)

		msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
		assert.Equal(t, "Attendance summary 2023-12-04 - 2024-01-03 (Ana Souza (5A))", msg.Subject)
		require.Len(t, msg.Attachments, 1)
	})

	t.Run("delivery failure", func(t *testing.T) {
		fCLI := *cli
		fCLI.mailSvc = failingMailer{err: errors.New("sending email: status 401")}

		out.Reset()
		err := fCLI.run([]string{"admin", "report", "-to", "head@school.test"})
		assert.EqualError(t, err, "sending summary: sending email: status 401")
		assert.Empty(t, out.String())
	})
}
