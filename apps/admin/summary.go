package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/apps"
	"github.com/trezcool/mahudhurio/core/attendance"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	"github.com/trezcool/mahudhurio/services/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// dashboard computes the Dashboard selected by dq, its display data and the records it covers,
// all from a single snapshot of the source.
func (cli *commandLine) dashboard(ctx context.Context, dq attendance.DashboardQuery) (attendance.Dashboard, report.SummaryData, []attendance.Record, error) {
	snapshot, err := cli.svc.Snapshot(ctx)
	if err != nil {
		return attendance.Dashboard{}, report.SummaryData{}, nil, errors.Wrap(err, "computing dashboard")
	}
	dash, recs := cli.svc.DashboardOf(snapshot, dq)
	label := studentLabel(snapshot, dq.StudentID)
	return dash, report.NewSummaryData(dash, cli.conf.Attendance.DisplayDateLayout, label), recs, nil
}

func (cli *commandLine) summaryCmd(args []string) error {
	fs := cli.newFlagSet("summary")
	df := newDashboardFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	dq, err := df.query()
	if err != nil {
		return err
	}
	return cli.summary(dq)
}

// summary prints the stats, then one bar per day sized to the terminal.
func (cli *commandLine) summary(dq attendance.DashboardQuery) error {
	_, data, _, err := cli.dashboard(context.Background(), dq)
	if err != nil {
		return err
	}
	if err = report.WriteStats(cli.out, data); err != nil {
		return err
	}
	fmt.Fprintln(cli.out)
	return report.WriteChart(cli.out, data.Days, termWidthFunc())
}

func (cli *commandLine) exportCmd(args []string) error {
	fs := cli.newFlagSet("export")
	output := fs.String("o", "", "Path of the spreadsheet to write.")
	df := newDashboardFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return errHelp
	}
	dq, err := df.query()
	if err != nil {
		return err
	}
	return cli.export(*output, dq)
}

func (cli *commandLine) export(path string, dq attendance.DashboardQuery) error {
	_, data, recs, err := cli.dashboard(context.Background(), dq)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = cli.writeWorkbook(&buf, data, recs); err != nil {
		return err
	}
	if err = os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "writing "+path)
	}
	fmt.Fprintf(cli.out, "summary written to %s\n", path)
	return nil
}

func (cli *commandLine) writeWorkbook(buf *bytes.Buffer, data report.SummaryData, recs []attendance.Record) error {
	return report.WriteXLSX(buf, data, recs, cli.conf.Attendance.DisplayDateLayout)
}

func (cli *commandLine) reportCmd(args []string) error {
	fs := cli.newFlagSet("report")
	to := fs.String("to", "", "Comma separated recipients. Defaults to the configured report recipients.")
	attach := fs.Bool("attach", false, "Attach the summary spreadsheet.")
	df := newDashboardFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	dq, err := df.query()
	if err != nil {
		return err
	}
	return cli.report(*to, *attach, dq)
}

// report emails the summary and waits for the delivery to finish.
func (cli *commandLine) report(to string, attach bool, dq attendance.DashboardQuery) error {
	lists := []string{to}
	if to == "" {
		lists = cli.conf.ReportRecipients
	}
	recipients, err := report.ParseRecipients(lists...)
	if err != nil {
		return apps.NewArgumentError(err.Error())
	}
	if len(recipients) == 0 {
		return apps.NewArgumentError("no recipients: use -to or configure the report recipients")
	}

	dash, data, recs, err := cli.dashboard(context.Background(), dq)
	if err != nil {
		return err
	}
	msg := report.SummaryEmail(recipients, data)

	if attach {
		var buf bytes.Buffer
		if err = cli.writeWorkbook(&buf, data, recs); err != nil {
			return err
		}
		filename := fmt.Sprintf("attendance-%s.xlsx", dash.WindowEnd)
		if err = msg.Attach(&buf, filename, xlsxContentType); err != nil {
			return errors.Wrap(err, "attaching summary")
		}
	}

	if err = msg.Render(cli.conf.AppName); err != nil {
		return errors.Wrap(err, "rendering summary email")
	}
	cli.mailSvc.SendMessages(msg)
	if err = emailsvc.Wait(cli.mailSvc); err != nil {
		return errors.Wrap(err, "sending summary")
	}
	fmt.Fprintf(cli.out, "summary sent to %d recipient(s)\n", len(recipients))
	return nil
}
