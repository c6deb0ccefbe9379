package apps

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
)

func TestNewStore(t *testing.T) {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{})
	logger.Enable(false)

	tests := []struct {
		name         string
		source       string
		baseURL      string
		wantReadOnly bool
		wantDB       bool
		wantErr      bool
	}{
		{name: "database", source: SourceDatabase, wantDB: true},
		{name: "default", source: "", wantDB: true},
		{name: "memory", source: SourceMemory},
		{name: "api", source: SourceAPI, baseURL: "http://localhost:8080", wantReadOnly: true},
		{name: "api without url", source: SourceAPI, baseURL: "localhost", wantErr: true},
		{name: "unknown", source: "csv", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := core.NewTestConfig()
			conf.Attendance.Source = tt.source
			conf.Attendance.APIBaseURL = tt.baseURL

			store, err := NewStore(conf, logger, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, store.Close()) }()

			assert.NotNil(t, store.Source)
			assert.Equal(t, tt.wantReadOnly, store.Repo == nil)
			assert.Equal(t, tt.wantDB, store.DB != nil)

			svc := store.NewService(conf)
			assert.Equal(t, tt.wantReadOnly, svc.ReadOnly())
			if !tt.wantReadOnly {
				recs, err := svc.Snapshot(context.Background())
				require.NoError(t, err)
				assert.Empty(t, recs)
			}
		})
	}
}
