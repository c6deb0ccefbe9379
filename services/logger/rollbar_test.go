package logsvc

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	logger := NewRollbarLogger(log.New(buf, "TEST : ", 0), &core.Config{Env: "TEST"})
	logger.Enable(false)
	return logger
}

func TestRollbarLogger_rollbarArgs(t *testing.T) {
	logger := newTestLogger(new(bytes.Buffer))
	err := errors.New("boom")
	std := attendance.RosterEntry{StudentID: "s1", StudentName: "Ana"}
	rec := attendance.Record{ID: "r1", StudentID: "s2", StudentName: "Bruno"}

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{name: "msg only", want: []interface{}{"msg"}},
		{name: "error and extras", args: []interface{}{err, map[string]interface{}{"k": 1}}, want: []interface{}{"msg", err, map[string]interface{}{"k": 1}}},
		{name: "student is not forwarded", args: []interface{}{std, err, std}, want: []interface{}{"msg", err}},
		{name: "record is not forwarded", args: []interface{}{err, rec}, want: []interface{}{"msg", err}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.rollbarArgs("msg", tt.args))
		})
	}
}

func TestRollbarLogger_print(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := newTestLogger(buf)

	logger.Info("summary sent", map[string]int{"to": 2})
	logger.Error("fetch failed", errors.New("timeout"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"TEST : INFO summary sent",
		"TEST :   map[to:2]",
		"TEST : ERROR fetch failed",
		"TEST :   timeout",
	}, lines)
}
