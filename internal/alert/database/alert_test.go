package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sod/powersod/internal/alert/model"
	anomalyModel "github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/go-sod/powersod/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_StoreFindDelete(t *testing.T) {
	ctx := context.Background()
	sdb, err := database.NewFromEnv(ctx, &database.Config{FileName: filepath.Join(t.TempDir(), "alerts.db"), Timeout: time.Second})
	require.NoError(t, err)
	defer sdb.Close(ctx)
	db := New(sdb)

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	north := model.NewAlert("north", []anomalyModel.Anomaly{
		anomalyModel.NewAnomaly("north", day, 500, 7, anomalyModel.SeverityCritical, anomalyModel.MethodZScore),
	})
	south := model.NewAlert("south", nil)
	require.NoError(t, db.Store(ctx, north))
	require.NoError(t, db.Store(ctx, south))

	all, err := db.FindAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "north", all[0].Building)
	require.Len(t, all[0].Anomalies, 1)
	assert.Equal(t, anomalyModel.SeverityCritical, all[0].Anomalies[0].Severity)

	onlySouth, err := db.FindAll(ctx, func(a model.Alert) bool { return a.Building == "south" })
	require.NoError(t, err)
	assert.Len(t, onlySouth, 1)

	require.NoError(t, db.Delete(ctx, north))
	all, err = db.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
