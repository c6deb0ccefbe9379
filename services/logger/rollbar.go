package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

// RollbarLogger prints to a standard logger and reports the same entry to rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// rollbarArgs turns a log call into rollbar arguments: msg, then errors and extras.
// The first student found among args (a roster entry or a record) becomes the rollbar person
// and is not forwarded.
func (l RollbarLogger) rollbarArgs(msg string, args []interface{}) []interface{} {
	var studentID, studentName string
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, msg)
	for _, arg := range args {
		switch v := arg.(type) {
		case attendance.RosterEntry:
			if studentID == "" {
				studentID, studentName = v.StudentID, v.StudentName
			}
		case attendance.Record:
			if studentID == "" {
				studentID, studentName = v.StudentID, v.StudentName
			}
		default:
			out = append(out, arg)
		}
	}
	if studentID != "" {
		rollbar.SetPerson(studentID, studentName, "")
	} else {
		rollbar.ClearPerson()
	}
	return out
}

func (l RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Println(level + " " + msg)
	for _, arg := range args {
		l.std.Printf("  %+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.rollbarArgs(msg, args)...)
	l.print("DEBUG", msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.rollbarArgs(msg, args)...)
	l.print("INFO", msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.rollbarArgs(msg, args)...)
	l.print("WARN", msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.rollbarArgs(msg, args)...)
	l.print("ERROR", msg, args)
}

// Fatal flushes pending rollbar reports before exiting.
func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.rollbarArgs(msg, args)...)
	l.print("FATAL", msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
