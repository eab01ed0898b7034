package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/confessly/internal/confession"
	"github.com/sujalbistaa/confessly/internal/store"
)

func newTestSweeper(t *testing.T) (*Sweeper, *confession.Service, store.ConfessionStore) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, store.Migrate(gdb))

	st := store.New(gdb)
	svc := confession.NewService(st)
	return New(svc, nil, -10, time.Hour), svc, st
}

func TestRunOnceArchivesAtOrBelowThreshold(t *testing.T) {
	sw, svc, st := newTestSweeper(t)
	ctx := context.Background()

	doomed, err := svc.Submit(ctx, "This confession sank like a stone.", "", "")
	require.NoError(t, err)
	safe, err := svc.Submit(ctx, "This confession is barely safe.", "", "")
	require.NoError(t, err)

	require.NoError(t, st.AddScore(ctx, doomed.ID, -11)) // -10, qualifies
	require.NoError(t, st.AddScore(ctx, safe.ID, -10))   // -9, does not

	n, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, doomed.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)

	got, err = svc.Get(ctx, safe.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived)
}

func TestRunOnceIsIdempotent(t *testing.T) {
	sw, svc, st := newTestSweeper(t)
	ctx := context.Background()

	c, err := svc.Submit(ctx, "Running the sweep twice changes nothing.", "", "")
	require.NoError(t, err)
	require.NoError(t, st.AddScore(ctx, c.ID, -20))

	n, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// The full lifecycle from the board's point of view: a fresh confession
// gets one upvote, then eleven downvotes, and the next sweep hides it
// from the public while the admin list keeps it.
func TestDownvotedConfessionDisappearsFromPublic(t *testing.T) {
	sw, svc, _ := newTestSweeper(t)
	ctx := context.Background()

	c, err := svc.Submit(ctx, "This is a test confession.", "", "")
	require.NoError(t, err)
	require.Equal(t, 1, c.Score)

	require.NoError(t, svc.Vote(ctx, c.ID, "1"))
	for i := 0; i < 11; i++ {
		require.NoError(t, svc.Vote(ctx, c.ID, "-1"))
	}

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, -9, got.Score)

	// Not low enough yet; the sweep leaves it alone.
	n, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, svc.Vote(ctx, c.ID, "-1"))
	n, err = sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	public, err := svc.ListPublic(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, public)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Archived)
}

func TestStartStop(t *testing.T) {
	sw, _, _ := newTestSweeper(t)
	require.NoError(t, sw.Start())
	sw.Stop()

	// Stop without Start is a no-op.
	idle := New(nil, nil, -10, time.Hour)
	idle.Stop()
}
