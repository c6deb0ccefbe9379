package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/attendance"
)

func (cli *commandLine) addStudentCmd(args []string) error {
	fs := cli.newFlagSet("addstudent")
	name := fs.String("name", "", "The student's full name.")
	group := fs.String("group", "", "The student's group (class). Created when it does not exist yet.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *name == "" {
		fs.Usage()
		return errHelp
	}
	return cli.addStudent(*name, *group)
}

// addStudent registers a student and prints their ID.
func (cli *commandLine) addStudent(name, group string) error {
	ns := attendance.NewStudent{Name: name, GroupName: group}
	if err := ns.Validate(cli.validate); err != nil {
		return err
	}

	std, err := cli.svc.AddStudent(context.Background(), ns)
	if err != nil {
		return errors.Wrap(err, "adding student")
	}
	fmt.Fprintf(cli.out, "%s\t%s\n", std.ID, attendance.RosterEntry{StudentName: std.Name, GroupName: std.GroupName}.Label())
	return nil
}

func (cli *commandLine) rosterCmd(args []string) error {
	fs := cli.newFlagSet("roster")
	search := fs.String("search", "", "Only list the students whose name contains this text, ignoring case.")
	if err := parse(fs, args); err != nil {
		return err
	}
	return cli.roster(*search)
}

func (cli *commandLine) roster(search string) error {
	entries, err := cli.svc.Roster(context.Background(), search)
	if err != nil {
		return errors.Wrap(err, "deriving roster")
	}
	if len(entries) == 0 {
		fmt.Fprintln(cli.out, "no students found")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(cli.out, "%s\t%s\n", e.StudentID, e.Label())
	}
	return nil
}

// studentLabel returns the roster label of studentID in recs, or studentID itself when it has no record.
func studentLabel(recs []attendance.Record, studentID *string) string {
	if studentID == nil {
		return ""
	}
	for _, e := range attendance.DeriveRoster(recs) {
		if e.StudentID == *studentID {
			return e.Label()
		}
	}
	return *studentID
}
