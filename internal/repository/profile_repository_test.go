package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nasulife/nasutomo/internal/db"
	"github.com/nasulife/nasutomo/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestUpsertCreatesAndMerges(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	require.NoError(t, repo.Upsert(ctx, db.Profile{
		UserID: "u1", City: "那須町", Status: "学生", ChildAge: "子供なし",
	}))

	// second write merges attributes for the same id
	require.NoError(t, repo.Upsert(ctx, db.Profile{
		UserID: "u1", Name: "なす", City: "那須塩原市", Status: "転勤族", ChildAge: "子供なし",
	}))

	p, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "那須塩原市", p.City)
	assert.Equal(t, "なす", p.Name)

	var count int64
	dbase.Model(&db.Profile{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsertLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	require.NoError(t, repo.Upsert(ctx, db.Profile{
		UserID: "u1", City: "那須町", Status: "学生", ChildAge: "子供なし",
	}))
	_, err := repo.AppendConnection(ctx, "u1", "u2", time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, db.Profile{
		UserID: "u1", City: "その他", Status: "移住者", ChildAge: "子供なし",
	}))

	p, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, p.Connections, 1)
	assert.Equal(t, "u2", p.Connections[0].TargetID)
}

func TestAppendConnectionDedup(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	created, err := repo.AppendConnection(ctx, "u1", "u2", time.Now())
	require.NoError(t, err)
	assert.True(t, created)

	// repeating the same unordered request is a no-op
	created, err = repo.AppendConnection(ctx, "u1", "u2", time.Now())
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	dbase.Model(&db.ConnectionRequest{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// the reverse direction is a distinct ledger entry
	created, err = repo.AppendConnection(ctx, "u2", "u1", time.Now())
	require.NoError(t, err)
	assert.True(t, created)
}

func TestAppendConnectionStatusIsPending(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	_, err := repo.AppendConnection(ctx, "u1", "u2", time.Now())
	require.NoError(t, err)

	var req db.ConnectionRequest
	require.NoError(t, dbase.First(&req).Error)
	assert.Equal(t, db.StatusPending, req.Status)
	assert.Equal(t, "u1", req.InitiatorID)
	assert.Equal(t, "u2", req.TargetID)
}

func TestHasConnection(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewProfileRepository(dbase)

	has, err := repo.HasConnection(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = repo.AppendConnection(ctx, "u1", "u2", time.Now())
	require.NoError(t, err)

	has, err = repo.HasConnection(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, has)

	// direction matters
	has, err = repo.HasConnection(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.False(t, has)
}
