package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/mahudhurio/apps"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const defaultTermWidth = 80

var (
	termWidthFunc = stdoutWidth // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	db       *sqlx.DB // nil unless the source is a database
	svc      *attendance.Service
	mailSvc  core.EmailService
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                   - run a goose migration command (up, down, status...)")
	fmt.Fprintln(cli.out, "  addstudent -name NAME [-group GROUP]                     - register a student")
	fmt.Fprintln(cli.out, "  roster [-search TEXT]                                    - list the students found in the attendances")
	fmt.Fprintln(cli.out, "  summary [-days N] [-student ID] [-date YYYY-MM-DD]       - print the attendance summary and chart")
	fmt.Fprintln(cli.out, "  export -o FILE.xlsx [-days N] [-student ID] [-date ...]  - write the summary to a spreadsheet")
	fmt.Fprintln(cli.out, "  report [-to EMAILS] [-attach] [-days N] [-student ID]    - email the summary")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addstudent":
		return cli.addStudentCmd(args[2:])
	case "roster":
		return cli.rosterCmd(args[2:])
	case "summary":
		return cli.summaryCmd(args[2:])
	case "export":
		return cli.exportCmd(args[2:])
	case "report":
		return cli.reportCmd(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse maps the flag package help and usage errors to errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return errHelp
	}
	return nil
}

// dashboardFlags are shared by the commands computing a Dashboard.
type dashboardFlags struct {
	fs      *flag.FlagSet
	days    *int
	student *string
	date    *string
}

func newDashboardFlags(fs *flag.FlagSet) *dashboardFlags {
	return &dashboardFlags{
		fs:      fs,
		days:    fs.Int("days", 0, "Size of the window, in days before the reference date. Defaults to the configured window."),
		student: fs.String("student", "", "Only count the attendances of this student ID."),
		date:    fs.String("date", "", "Reference date (YYYY-MM-DD). Defaults to today."),
	}
}

func (df *dashboardFlags) query() (attendance.DashboardQuery, error) {
	var dq attendance.DashboardQuery
	df.fs.Visit(func(f *flag.Flag) {
		if f.Name == "days" {
			dq.WindowDays = df.days
		}
	})
	if *df.student != "" {
		dq.StudentID = df.student
	}
	dq.ReferenceDate = *df.date

	if err := dq.Validate(); err != nil {
		return dq, fieldsError(err)
	}
	return dq, nil
}

// fieldsError flattens a core.ValidationError into a one line ArgumentError.
func fieldsError(err error) error {
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) || len(vErr.Fields) == 0 {
		return err
	}
	return apps.NewArgumentError(vErr.Error())
}

func stdoutWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultTermWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}
