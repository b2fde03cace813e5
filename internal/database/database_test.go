package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_SortedAndEmbedded(t *testing.T) {
	t.Parallel()

	migrations, err := Migrations()

	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "001_create_watchlist", migrations[0].Version)
	assert.Equal(t, "002_create_price_alerts", migrations[1].Version)
	assert.Contains(t, migrations[0].SQL, "ON DELETE CASCADE")
	assert.Contains(t, migrations[1].SQL, "CREATE TABLE IF NOT EXISTS price_alerts")
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		applied   []string
		setupMock func(sqlmock.Sqlmock)
		want      int
		wantErr   bool
	}{
		{
			name:    "fresh database applies everything",
			applied: nil,
			setupMock: func(mock sqlmock.Sqlmock) {
				for _, v := range []string{"001_create_watchlist", "002_create_price_alerts"} {
					mock.ExpectBegin()
					mock.ExpectExec(`CREATE TABLE IF NOT EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))
					mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs(v).WillReturnResult(sqlmock.NewResult(1, 1))
					mock.ExpectCommit()
				}
			},
			want: 2,
		},
		{
			name:    "already applied versions are skipped",
			applied: []string{"001_create_watchlist"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS price_alerts`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("002_create_price_alerts").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			want: 1,
		},
		{
			name:    "failing migration rolls back",
			applied: nil,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS`).WillReturnError(errors.New("syntax error"))
				mock.ExpectRollback()
			},
			want:    0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = mockDB.Close() }()
			db := sqlx.NewDb(mockDB, "sqlmock")

			mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
			rows := sqlmock.NewRows([]string{"version"})
			for _, v := range tt.applied {
				rows.AddRow(v)
			}
			mock.ExpectQuery(`SELECT version FROM schema_migrations`).WillReturnRows(rows)
			tt.setupMock(mock)

			count, err := Migrate(context.Background(), db, nil)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, count)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
