package adapter

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDSN registers a sqlmock connection under a DSN that Open can reach
// through the "sqlmock" driver.
func mockDSN(t *testing.T, dsn string) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.NewWithDSN(dsn, sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return mock
}

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestBaseSQLAdapter_Open(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: "postgres", Database: "orders"}

	t.Run("opens and pings", func(t *testing.T) {
		mock := mockDSN(t, "sqlconvert_open_ok")
		mock.ExpectPing()

		base := &BaseSQLAdapter{}
		require.NoError(t, base.Open(ctx, "sqlmock", "sqlconvert_open_ok", cfg))
		assert.True(t, base.IsConnected())
		assert.Equal(t, "orders", base.Cfg.Database)

		mock.ExpectClose()
		require.NoError(t, base.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("closes the pool when ping fails", func(t *testing.T) {
		mock := mockDSN(t, "sqlconvert_open_ping_fail")
		mock.ExpectPing().WillReturnError(assert.AnError)
		mock.ExpectClose()

		base := &BaseSQLAdapter{}
		err := base.Open(ctx, "sqlmock", "sqlconvert_open_ping_fail", cfg)
		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to ping sqlmock")
		assert.False(t, base.IsConnected())
		assert.Empty(t, base.Cfg.Type, "config is only kept on success")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown driver", func(t *testing.T) {
		base := &BaseSQLAdapter{}
		err := base.Open(ctx, "no_such_driver", "", cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open no_such_driver connection")
		assert.False(t, base.IsConnected())
	})
}

func TestBaseSQLAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	base := &BaseSQLAdapter{}

	assert.False(t, base.IsConnected())
	assert.NoError(t, base.Close(), "closing an unopened adapter is a no-op")

	err := base.Exec(ctx, "CREATE VIEW v AS SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)

	rows, err := base.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Nil(t, rows)
}

func TestBaseSQLAdapter_Exec(t *testing.T) {
	tests := []struct {
		name    string
		stmt    string
		execErr error
		errMsg  string
	}{
		{
			name: "routine definition",
			stmt: "CREATE PROCEDURE get_orders()\nBEGIN\n  SELECT 1;\nEND;",
		},
		{
			name:    "driver error is wrapped",
			stmt:    "DROP PROCEDURE IF EXISTS get_orders;",
			execErr: assert.AnError,
			errMsg:  "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			exp := mock.ExpectExec(tt.stmt)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 0))
			}

			var logs bytes.Buffer
			base := &BaseSQLAdapter{DB: db, Logger: debugLogger(&logs)}
			err = base.Exec(context.Background(), tt.stmt)
			if tt.execErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.execErr)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, logs.String(), "msg=exec")
			assert.Contains(t, logs.String(), "bytes=")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBaseSQLAdapter_Query(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT routine_name").WillReturnRows(
		sqlmock.NewRows([]string{"routine_name"}).AddRow("get_orders").AddRow("log_event"))
	mock.ExpectQuery("SELECT broken").WillReturnError(assert.AnError)

	base := &BaseSQLAdapter{DB: db}
	ctx := context.Background()

	rows, err := base.Query(ctx, "SELECT routine_name FROM information_schema.routines")
	require.NoError(t, err)
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"get_orders", "log_event"}, names)

	rows, err = base.Query(ctx, "SELECT broken")
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "failed to execute query")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_CloseLogs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	var logs bytes.Buffer
	base := &BaseSQLAdapter{DB: db, Logger: debugLogger(&logs)}
	require.NoError(t, base.Close())
	assert.Contains(t, logs.String(), "closing database connection")
	assert.NoError(t, mock.ExpectationsWereMet())
}
