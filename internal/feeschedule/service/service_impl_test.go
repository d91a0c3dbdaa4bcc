package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/admitworks/matricula/internal/config"
	"github.com/admitworks/matricula/internal/feeschedule/domain"
	"github.com/admitworks/matricula/internal/feeschedule/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestAmountForMostSpecificRowWins(t *testing.T) {
	svc, node := setupFeeService(t)
	ctx := context.Background()

	deptID := node.Generate()

	// Session-wide default.
	_, err := svc.Create(ctx, domain.UpsertCommand{
		Purpose: "school_fee",
		Session: "2026/2027",
		Amount:  80000_00,
	})
	require.NoError(t, err)

	// Department override.
	_, err = svc.Create(ctx, domain.UpsertCommand{
		Purpose:      "school_fee",
		Session:      "2026/2027",
		DepartmentID: &deptID,
		Amount:       95000_00,
	})
	require.NoError(t, err)

	// Department + level override.
	_, err = svc.Create(ctx, domain.UpsertCommand{
		Purpose:      "school_fee",
		Session:      "2026/2027",
		DepartmentID: &deptID,
		Level:        "200",
		Amount:       90000_00,
	})
	require.NoError(t, err)

	base, err := svc.AmountFor(ctx, domain.MatchFilter{
		Purpose: "school_fee",
		Session: "2026/2027",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(80000_00), base.Amount)

	dept, err := svc.AmountFor(ctx, domain.MatchFilter{
		Purpose:      "school_fee",
		Session:      "2026/2027",
		DepartmentID: &deptID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(95000_00), dept.Amount)

	level, err := svc.AmountFor(ctx, domain.MatchFilter{
		Purpose:      "school_fee",
		Session:      "2026/2027",
		DepartmentID: &deptID,
		Level:        "200",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(90000_00), level.Amount)
}

func TestAmountForIgnoresInactiveRows(t *testing.T) {
	svc, _ := setupFeeService(t)
	ctx := context.Background()

	inactive := false
	_, err := svc.Create(ctx, domain.UpsertCommand{
		Purpose: "acceptance_fee",
		Session: "2026/2027",
		Amount:  30000_00,
		Active:  &inactive,
	})
	require.NoError(t, err)

	_, err = svc.AmountFor(ctx, domain.MatchFilter{
		Purpose: "acceptance_fee",
		Session: "2026/2027",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAmountForMissingSchedule(t *testing.T) {
	svc, _ := setupFeeService(t)

	_, err := svc.AmountFor(context.Background(), domain.MatchFilter{
		Purpose: "application_fee",
		Session: "1999/2000",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateDefaultsCurrency(t *testing.T) {
	svc, _ := setupFeeService(t)

	schedule, err := svc.Create(context.Background(), domain.UpsertCommand{
		Purpose: "application_fee",
		Session: "2026/2027",
		Amount:  5000_00,
	})
	require.NoError(t, err)
	assert.Equal(t, "NGN", schedule.Currency)
	assert.True(t, schedule.Active)
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc, _ := setupFeeService(t)

	_, err := svc.Create(context.Background(), domain.UpsertCommand{
		Purpose: "application_fee",
		Session: "2026/2027",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func setupFeeService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.Exec(`CREATE TABLE fee_schedules (
		id INTEGER PRIMARY KEY,
		purpose TEXT NOT NULL,
		session TEXT NOT NULL,
		department_id INTEGER,
		level TEXT NOT NULL DEFAULT '',
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`).Error)

	svc := New(Params{
		Config: config.Config{DefaultCurrency: "NGN"},
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Repo:   repository.Provide(),
	})
	return svc, node
}
